package guide

import (
	"regexp"
	"strings"

	"github.com/lvstream/eventguide/pkg/xmltv"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeID makes a fragment's channel id joinable with locally
// synthesized ones on a best-effort basis. This is deliberately weaker than
// ChannelID: only whitespace is removed and the result lowercased; every
// other character passes through untouched.
func NormalizeID(id string) string {
	return strings.ToLower(whitespacePattern.ReplaceAllString(id, ""))
}

// Merge appends the channels and programmes of every external fragment into
// a new document, in fragment order, followed by the local content.
//
// Channel-id attributes of fragment nodes are normalized with NormalizeID so
// they can join locally synthesized lanes; the nodes are otherwise carried
// verbatim, including children this package has no dedicated fields for.
// Programmes are never deduplicated
// across fragments: two sources describing the same broadcast yield two
// entries sharing a channel id. Nil fragments and an empty fragment sequence
// are tolerated.
func Merge(local *xmltv.TV, fragments []*xmltv.TV) *xmltv.TV {
	merged := &xmltv.TV{}

	for _, fragment := range fragments {
		if fragment == nil {
			continue
		}

		for _, channel := range fragment.Channels {
			channel.ID = NormalizeID(channel.ID)
			merged.Channels = append(merged.Channels, channel)
		}
		for _, programme := range fragment.Programmes {
			programme.Channel = NormalizeID(programme.Channel)
			merged.Programmes = append(merged.Programmes, programme)
		}
	}

	if local != nil {
		merged.Channels = append(merged.Channels, local.Channels...)
		merged.Programmes = append(merged.Programmes, local.Programmes...)
	}

	return merged
}
