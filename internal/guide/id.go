// Package guide synthesizes per-channel XMLTV timelines from admitted live
// events and merges them with externally supplied guide fragments.
package guide

import (
	"regexp"
	"strings"
)

// FallbackChannelID is returned when a title normalizes to nothing.
const FallbackChannelID = "unknownchannel"

var (
	markupPattern  = regexp.MustCompile(`</?[^>]*>`)
	invalidPattern = regexp.MustCompile(`[^a-z0-9àáèéìíòóùú]`)
)

// ChannelID derives a stable channel identifier from an event title.
//
// The identity comes from the event title, not from the broadcaster's own
// name: every feed entry carrying the same title lands on the same channel
// lane even when the underlying broadcasters differ. That grouping is how the
// source system correlates multi-channel broadcasts of one event, and
// downstream cross-references depend on it, so two unrelated events that
// happen to share a title will collapse onto one lane.
func ChannelID(title string) string {
	s := markupPattern.ReplaceAllString(title, "")
	s = strings.ToLower(s)
	s = invalidPattern.ReplaceAllString(s, "")
	if s == "" {
		return FallbackChannelID
	}
	return s
}
