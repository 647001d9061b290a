// Package handlers provides HTTP handlers serving the built guide and playlist.
package handlers

import (
	"net/http"

	"github.com/lvstream/eventguide/internal/data"
	"github.com/sirupsen/logrus"
)

// GuideHandler serves the synthesized guide document.
type GuideHandler struct {
	store  *data.Store
	logger *logrus.Logger
}

// NewGuideHandler creates a new guide handler instance.
func NewGuideHandler(store *data.Store, logger *logrus.Logger) *GuideHandler {
	return &GuideHandler{
		store:  store,
		logger: logger,
	}
}

// XML serves the uncompressed guide document.
func (h *GuideHandler) XML(w http.ResponseWriter, _ *http.Request) {
	body, ok := h.store.GetGuideXML()
	if !ok {
		h.logger.Error("Guide data not available")
		http.Error(w, "Guide data not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(body)
}

// Gzip serves the gzip-compressed guide document.
func (h *GuideHandler) Gzip(w http.ResponseWriter, _ *http.Request) {
	body, ok := h.store.GetGuideGzip()
	if !ok {
		h.logger.Error("Guide data not available")
		http.Error(w, "Guide data not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	_, _ = w.Write(body)
}
