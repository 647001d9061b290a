// Package feed models the raw live-event schedule consumed by the guide builder.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidDocument is returned when the schedule document is not a JSON object.
	ErrInvalidDocument = errors.New("schedule document is not a JSON object")
)

// Feed is the raw schedule: an ordered list of day sections, each holding an
// ordered list of categories with their events. Order matches the JSON
// document, which matters because the guide is emitted in feed order.
type Feed struct {
	Days []Day
}

// Day is one date section of the schedule. The key is a human-readable date
// string, optionally suffixed with " - <extra text>".
type Day struct {
	Key        string
	Categories []Category
}

// Category groups the events of one sport or section within a day.
type Category struct {
	Name   string
	Events []Event
}

// Event is a single scheduled broadcast. Time is the original wall-clock
// "HH:MM" string from the source; Channels lists every broadcaster carrying
// the event.
type Event struct {
	Time        string       `json:"time"`
	Title       string       `json:"event"`
	Description string       `json:"description"`
	Channels    []ChannelRef `json:"channels"`
}

// ChannelRef identifies one broadcaster of an event. ID is an opaque
// passthrough for the stream resolver; only Name is inspected here.
type ChannelRef struct {
	Name string `json:"channel_name"`
	ID   string `json:"channel_id"`
}

// Parse decodes a schedule document, preserving day and category order.
// Individual malformed event records are skipped and logged; a document that
// is not well-formed JSON is an error.
func Parse(data []byte, logger logrus.FieldLogger) (*Feed, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))

	tok, err := decoder.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule document: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrInvalidDocument
	}

	feed := &Feed{}
	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read date key: %w", err)
		}
		dateKey, _ := keyTok.(string)

		day, err := parseDay(decoder, dateKey, logger)
		if err != nil {
			return nil, err
		}
		feed.Days = append(feed.Days, day)
	}

	return feed, nil
}

func parseDay(decoder *json.Decoder, dateKey string, logger logrus.FieldLogger) (Day, error) {
	day := Day{Key: dateKey}

	tok, err := decoder.Token()
	if err != nil {
		return day, fmt.Errorf("failed to read day section %q: %w", dateKey, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		// Not an object; skip whatever value this is and keep the day empty.
		logger.WithField("date", dateKey).Warn("Day section is not an object, skipping")
		return day, skipValue(decoder, tok)
	}

	for decoder.More() {
		keyTok, err := decoder.Token()
		if err != nil {
			return day, fmt.Errorf("failed to read category key in %q: %w", dateKey, err)
		}
		category, _ := keyTok.(string)

		var rawEvents []json.RawMessage
		if err := decoder.Decode(&rawEvents); err != nil {
			return day, fmt.Errorf("failed to read events for %q/%q: %w", dateKey, category, err)
		}

		events := make([]Event, 0, len(rawEvents))
		for _, raw := range rawEvents {
			var event Event
			if err := json.Unmarshal(raw, &event); err != nil {
				logger.WithFields(logrus.Fields{
					"date":     dateKey,
					"category": category,
				}).WithError(err).Warn("Skipping malformed event record")
				continue
			}
			events = append(events, event)
		}

		day.Categories = append(day.Categories, Category{Name: category, Events: events})
	}

	// Consume the closing '}' of the day object.
	if _, err := decoder.Token(); err != nil {
		return day, fmt.Errorf("failed to close day section %q: %w", dateKey, err)
	}

	return day, nil
}

// skipValue consumes the remainder of a composite value whose opening token
// has already been read.
func skipValue(decoder *json.Decoder, tok json.Token) error {
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}

	depth := 1
	for depth > 0 {
		next, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("failed to skip malformed value: %w", err)
		}
		if d, ok := next.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}

	return nil
}

var (
	spanTagPattern = regexp.MustCompile(`</?span[^>]*>`)
	anyTagPattern  = regexp.MustCompile(`<[^>]+>`)
)

// CleanMarkup strips leftover span tags from scraped text.
func CleanMarkup(s string) string {
	return spanTagPattern.ReplaceAllString(s, "")
}

// CleanCategory strips all markup tags and surrounding whitespace from a
// category name.
func CleanCategory(s string) string {
	return strings.TrimSpace(anyTagPattern.ReplaceAllString(s, ""))
}
