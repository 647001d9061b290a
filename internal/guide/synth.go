package guide

import (
	"sort"
	"strings"
	"time"

	"github.com/lvstream/eventguide/internal/feed"
	"github.com/lvstream/eventguide/pkg/xmltv"
	"github.com/sirupsen/logrus"
)

const (
	defaultMainDuration = 2 * time.Hour
	defaultLang         = "it"

	fallbackTitle        = "Evento Sconosciuto"
	fallbackDescription  = "Trasmesso in diretta."
	announcementCategory = "Annuncio"
)

// Options configure timeline synthesis.
type Options struct {
	// TZOffset is the fixed local UTC offset rendered into timestamps. Zero
	// is taken literally (a "+0000" suffix), not as unset.
	TZOffset time.Duration
	// MainDuration is the fixed length of a main programme block; the feed
	// carries no end times (default 2h).
	MainDuration time.Duration
	// Lang tags title, desc and category elements (default "it").
	Lang string
}

// SkipReason classifies why a block was omitted during synthesis.
type SkipReason string

// Synthesis skip reasons.
const (
	SkipZeroLength SkipReason = "zero-length announcement"
	SkipOverlap    SkipReason = "announcement start after stop"
)

// Skip records one omitted block.
type Skip struct {
	Channel string
	Event   string
	Reason  SkipReason
}

// Report summarizes a synthesis pass.
type Report struct {
	Channels      int
	Programmes    int
	Announcements int
	Skips         []Skip
}

// Synthesize merges admitted events into per-channel timelines of
// announcement and main programme blocks.
//
// Events are processed per date and, within a date, per category sorted by
// adjusted start (stable, feed order on ties). The per-channel last-end map
// resets at every date boundary; channel declarations are registered once per
// run. Blocks are appended in processing order and never re-sorted globally.
func Synthesize(admitted []feed.Admitted, opts Options, logger logrus.FieldLogger) (*xmltv.TV, *Report) {
	if opts.MainDuration == 0 {
		opts.MainDuration = defaultMainDuration
	}
	if opts.Lang == "" {
		opts.Lang = defaultLang
	}

	offset := xmltv.FormatOffset(opts.TZOffset)
	tv := &xmltv.TV{}
	report := &Report{}
	registered := make(map[string]bool)

	for _, day := range groupBy(admitted, func(a feed.Admitted) string {
		return a.Date.Format("2006-01-02")
	}) {
		// Last main-block end per channel, scoped to this date only.
		lastEnd := make(map[string]time.Time)

		for _, category := range groupBy(day.entries, func(a feed.Admitted) string {
			return a.Category
		}) {
			events := append([]feed.Admitted(nil), category.entries...)
			sort.SliceStable(events, func(i, j int) bool {
				return events[i].Start.Before(events[j].Start)
			})

			for _, event := range events {
				synthesizeEvent(event, tv, report, registered, lastEnd, opts, offset, logger)
			}
		}
	}

	report.Channels = len(registered)
	logger.WithFields(logrus.Fields{
		"channels":      report.Channels,
		"programmes":    report.Programmes,
		"announcements": report.Announcements,
	}).Info("Timeline synthesis completed")

	return tv, report
}

func synthesizeEvent(event feed.Admitted, tv *xmltv.TV, report *Report, registered map[string]bool, lastEnd map[string]time.Time, opts Options, offset string, logger logrus.FieldLogger) {
	title := feed.CleanMarkup(event.Event.Title)
	title = strings.ReplaceAll(title, "&", "and")
	if strings.TrimSpace(title) == "" {
		title = fallbackTitle
	}

	description := event.Event.Description
	if description == "" {
		description = fallbackDescription
	}

	// One lane per title: every broadcaster of this event shares the id, so
	// the blocks are emitted once regardless of how many channels carried it.
	channelID := ChannelID(title)

	if !registered[channelID] {
		tv.Channels = append(tv.Channels, xmltv.Channel{
			ID:           channelID,
			DisplayNames: []xmltv.DisplayName{{Text: title}},
		})
		registered[channelID] = true
	}

	start := event.Start
	stop := start.Add(opts.MainDuration)

	emitAnnouncement(tv, report, lastEnd, channelID, title, start, opts, offset, logger)

	tv.Programmes = append(tv.Programmes, xmltv.Programme{
		Start:    xmltv.FormatTime(start, offset),
		Stop:     xmltv.FormatTime(stop, offset),
		Channel:  channelID,
		Title:    xmltv.Text{Lang: opts.Lang, Text: description},
		Desc:     xmltv.Text{Lang: opts.Lang, Text: title},
		Category: xmltv.Text{Lang: opts.Lang, Text: event.Category},
	})
	report.Programmes++

	lastEnd[channelID] = stop
}

// emitAnnouncement fills the gap before an event with a filler block running
// from the previous programme's stop (or local midnight) to the event start.
func emitAnnouncement(tv *xmltv.TV, report *Report, lastEnd map[string]time.Time, channelID, title string, eventStart time.Time, opts Options, offset string, logger logrus.FieldLogger) {
	stop := eventStart

	var start time.Time
	if previous, ok := lastEnd[channelID]; ok && previous.Before(eventStart) {
		start = previous
	} else {
		// First event of the day on this channel, or the previous block
		// overlaps this one: fall back to the start of the calendar day.
		y, m, d := eventStart.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, eventStart.Location())
	}

	switch {
	case start.Before(stop):
		tv.Programmes = append(tv.Programmes, xmltv.Programme{
			Start:    xmltv.FormatTime(start, offset),
			Stop:     xmltv.FormatTime(stop, offset),
			Channel:  channelID,
			Title:    xmltv.Text{Lang: opts.Lang, Text: "Inizia alle " + eventStart.Format("15:04") + "."},
			Desc:     xmltv.Text{Lang: opts.Lang, Text: title + "."},
			Category: xmltv.Text{Lang: opts.Lang, Text: announcementCategory},
		})
		report.Programmes++
		report.Announcements++
	case start.Equal(stop):
		logger.WithFields(logrus.Fields{
			"channel": channelID,
			"event":   title,
		}).Info("Skipping zero-length announcement")
		report.Skips = append(report.Skips, Skip{Channel: channelID, Event: title, Reason: SkipZeroLength})
	default:
		logger.WithFields(logrus.Fields{
			"channel": channelID,
			"event":   title,
		}).Warn("Announcement start is after its stop, skipping")
		report.Skips = append(report.Skips, Skip{Channel: channelID, Event: title, Reason: SkipOverlap})
	}
}

type group struct {
	key     string
	entries []feed.Admitted
}

// groupBy buckets entries by key, preserving first-seen order of both the
// groups and their members.
func groupBy(entries []feed.Admitted, key func(feed.Admitted) string) []group {
	var groups []group
	index := make(map[string]int)

	for _, entry := range entries {
		k := key(entry)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].entries = append(groups[i].entries, entry)
	}

	return groups
}
