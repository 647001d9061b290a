package handlers

import (
	"net/http"

	"github.com/lvstream/eventguide/internal/data"
	"github.com/sirupsen/logrus"
)

// PlaylistHandler serves the rendered event playlist.
type PlaylistHandler struct {
	store  *data.Store
	logger *logrus.Logger
}

// NewPlaylistHandler creates a new playlist handler instance.
func NewPlaylistHandler(store *data.Store, logger *logrus.Logger) *PlaylistHandler {
	return &PlaylistHandler{
		store:  store,
		logger: logger,
	}
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	body, ok := h.store.GetPlaylist()
	if !ok {
		h.logger.Error("Playlist data not available")
		http.Error(w, "Playlist data not available", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "audio/x-mpegurl")
	_, _ = w.Write(body)
}
