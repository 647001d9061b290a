package data

import (
	"bytes"
	"fmt"
	"time"

	"github.com/lvstream/eventguide/config"
	"github.com/lvstream/eventguide/internal/guide"
	"github.com/lvstream/eventguide/internal/metrics"
	"github.com/lvstream/eventguide/internal/playlist"
	"github.com/sirupsen/logrus"
)

// Builder turns fetched inputs into serialized guide and playlist artifacts.
type Builder struct {
	config  *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// Artifacts holds the serialized outputs of one build.
type Artifacts struct {
	GuideXML  []byte
	GuideGzip []byte
	Playlist  []byte
	Report    *guide.BuildReport
}

// NewBuilder creates a new builder instance.
func NewBuilder(cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Builder {
	return &Builder{
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// Build runs admission, synthesis and merging over the fetched inputs and
// serializes the result. The reference moment is the current UTC time shifted
// by the configured offset, matching the frame the feed's wall-clock times
// are interpreted in.
func (b *Builder) Build(result *FetchResult) (*Artifacts, error) {
	now := time.Now().UTC().Add(b.config.TZOffset())

	admitted, tree, report := guide.Build(result.Feed, result.Fragments, guide.BuildOptions{
		Now:          now,
		Keywords:     b.config.Keywords,
		TZOffset:     b.config.TZOffset(),
		GraceWindow:  b.config.GraceWindow(),
		MainDuration: b.config.MainDuration(),
		Lang:         b.config.Lang,
	}, b.logger)

	b.observe(report)

	var xmlBuf bytes.Buffer
	if err := tree.Encode(&xmlBuf); err != nil {
		return nil, fmt.Errorf("failed to serialize guide: %w", err)
	}

	var gzBuf bytes.Buffer
	if err := tree.EncodeGzip(&gzBuf); err != nil {
		return nil, fmt.Errorf("failed to serialize compressed guide: %w", err)
	}

	m3u := playlist.Generate(admitted, playlist.Options{
		GuideURL:  b.config.GuideURL,
		StreamURL: b.config.StreamURL,
	})

	b.logger.WithFields(logrus.Fields{
		"channels":   report.Synthesis.Channels,
		"programmes": report.Synthesis.Programmes,
		"fragments":  report.Fragments,
		"admitted":   report.Admission.Admitted,
		"skipped":    len(report.Admission.Skips),
	}).Info("Guide build completed")

	return &Artifacts{
		GuideXML:  xmlBuf.Bytes(),
		GuideGzip: gzBuf.Bytes(),
		Playlist:  m3u,
		Report:    report,
	}, nil
}

func (b *Builder) observe(report *guide.BuildReport) {
	b.metrics.AddEventsAdmitted(report.Admission.Admitted)
	for _, skip := range report.Admission.Skips {
		b.metrics.IncEventSkipped(string(skip.Reason))
	}
	for _, skip := range report.Synthesis.Skips {
		b.metrics.IncEventSkipped(string(skip.Reason))
	}
	b.metrics.AddProgrammes(report.Synthesis.Programmes)
	b.metrics.AddAnnouncements(report.Synthesis.Announcements)
}
