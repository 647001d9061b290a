package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"
)

// DefaultKeywords is the channel-name allow-list used when no keywords are
// configured. Matching is per whole word, so multi-word entries only ever
// match single-word tokens and are kept for parity with the source lists.
var DefaultKeywords = []string{
	"italy", "rai", "italia", "it", "uk", "tnt", "usa",
	"tennis channel", "tennis stream", "la",
}

const (
	defaultGraceWindow = 2 * time.Hour

	// Events filed under yesterday's section are only admitted when their
	// original wall-clock time falls within the overnight carry-over window.
	overnightWindowEnd = 4 * time.Hour

	excludedCategory = "tv shows"
)

// Options control event admission.
type Options struct {
	// Now is the fixed reference moment for the whole run.
	Now time.Time
	// Keywords is the channel-name allow-list; DefaultKeywords when empty.
	Keywords []string
	// TZOffset is the feed-to-local wall-clock correction. Zero is taken
	// literally (the feed is already local), not as unset.
	TZOffset time.Duration
	// GraceWindow is how far in the past an already-started event may lie
	// and still be admitted (default 2h, boundary inclusive).
	GraceWindow time.Duration
}

// SkipReason classifies why a feed entry was excluded from synthesis.
type SkipReason string

// Admission skip reasons.
const (
	SkipBadDate    SkipReason = "unparseable date key"
	SkipDateWindow SkipReason = "date is neither today nor yesterday"
	SkipCategory   SkipReason = "excluded category"
	SkipBadTime    SkipReason = "unparseable event time"
	SkipStale      SkipReason = "event started before the grace window"
	SkipOvernight  SkipReason = "outside the overnight carry-over window"
	SkipNoChannels SkipReason = "no channels matched the keyword list"
)

// Skip records a single dropped feed entry and why it was dropped.
type Skip struct {
	Date     string
	Category string
	Event    string
	Reason   SkipReason
}

// Report summarizes an admission pass so callers can inspect what was
// dropped without scraping logs.
type Report struct {
	Admitted int
	Skips    []Skip
}

func (r *Report) skip(date, category, event string, reason SkipReason) {
	r.Skips = append(r.Skips, Skip{Date: date, Category: category, Event: event, Reason: reason})
}

// Admitted is an event that passed admission, carrying its adjusted local
// start and the channels that survived the keyword filter.
type Admitted struct {
	// Date is the calendar date of the feed section, at local midnight.
	Date time.Time
	// Category is the cleaned category name.
	Category string
	// Event is the original feed record.
	Event Event
	// Start is the time-adjusted local start of the event.
	Start time.Time
	// Channels are the broadcasters kept by the keyword filter.
	Channels []ChannelRef
}

// Admit walks the feed and returns the events eligible for synthesis, in
// feed order, together with a report of everything that was dropped. No
// malformed entry aborts the pass.
func Admit(f *Feed, opts Options, logger logrus.FieldLogger) ([]Admitted, *Report) {
	if opts.GraceWindow == 0 {
		opts.GraceWindow = defaultGraceWindow
	}

	keywords := opts.Keywords
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	keywordSet := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		keywordSet[strings.ToLower(kw)] = true
	}

	loc := opts.Now.Location()
	today := dateOnly(opts.Now)
	yesterday := today.AddDate(0, 0, -1)

	var admitted []Admitted
	report := &Report{}

	for _, day := range f.Days {
		date, err := ParseDateKey(day.Key, loc)
		if err != nil {
			logger.WithField("date", day.Key).WithError(err).Warn("Skipping day section with unparseable date")
			report.skip(day.Key, "", "", SkipBadDate)
			continue
		}

		isYesterday := false
		switch {
		case date.Equal(today):
		case date.Equal(yesterday):
			isYesterday = true
		default:
			report.skip(day.Key, "", "", SkipDateWindow)
			continue
		}

		for _, category := range day.Categories {
			name := CleanCategory(category.Name)
			if strings.EqualFold(name, excludedCategory) {
				report.skip(day.Key, name, "", SkipCategory)
				continue
			}

			for _, event := range category.Events {
				entry, reason := admitEvent(event, date, isYesterday, keywordSet, opts)
				if reason != "" {
					logger.WithFields(logrus.Fields{
						"date":     day.Key,
						"category": name,
						"event":    event.Title,
						"reason":   string(reason),
					}).Debug("Event not admitted")
					report.skip(day.Key, name, event.Title, reason)
					continue
				}

				entry.Category = name
				admitted = append(admitted, entry)
				report.Admitted++
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"admitted": report.Admitted,
		"skipped":  len(report.Skips),
	}).Info("Admission pass completed")

	return admitted, report
}

func admitEvent(event Event, date time.Time, isYesterday bool, keywords map[string]bool, opts Options) (Admitted, SkipReason) {
	clock, err := time.Parse("15:04", strings.TrimSpace(event.Time))
	if err != nil {
		return Admitted{}, SkipBadTime
	}

	wallClock := time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute
	start := date.Add(wallClock).Add(opts.TZOffset)

	if isYesterday {
		// Yesterday's section only carries events that aired past local
		// midnight but are still filed under the previous day; the window is
		// checked against the original, uncorrected wall-clock time.
		if wallClock > overnightWindowEnd {
			return Admitted{}, SkipOvernight
		}
	} else if opts.Now.Sub(start) > opts.GraceWindow {
		return Admitted{}, SkipStale
	}

	var kept []ChannelRef
	for _, ch := range event.Channels {
		if matchesKeywords(CleanMarkup(ch.Name), keywords) {
			kept = append(kept, ch)
		}
	}
	if len(kept) == 0 {
		return Admitted{}, SkipNoChannels
	}

	return Admitted{Date: date, Event: event, Start: start, Channels: kept}, ""
}

var (
	ordinalPattern = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)
	wordPattern    = regexp.MustCompile(`\w+`)
)

// dateKeyLayouts cover the feed's usual "Saturday 15 Nov 2025" form before
// falling back to fully lenient parsing.
var dateKeyLayouts = []string{
	"Monday 2 Jan 2006",
	"Monday 2 January 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// ParseDateKey parses a human-readable schedule date key. Only the prefix
// before " - " is considered and ordinal suffixes (1st, 2nd, ...) are
// stripped first. The result is the calendar date at midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	prefix := strings.TrimSpace(strings.SplitN(key, " - ", 2)[0])
	prefix = ordinalPattern.ReplaceAllString(prefix, "$1")

	for _, layout := range dateKeyLayouts {
		if t, err := time.ParseInLocation(layout, prefix, loc); err == nil {
			return dateOnly(t), nil
		}
	}

	t, err := dateparse.ParseIn(prefix, loc)
	if err != nil {
		return time.Time{}, err
	}
	return dateOnly(t), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func matchesKeywords(channelName string, keywords map[string]bool) bool {
	for _, word := range wordPattern.FindAllString(strings.ToLower(channelName), -1) {
		if keywords[word] {
			return true
		}
	}
	return false
}
