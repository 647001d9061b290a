// Package playlist renders M3U playlists for the admitted live events.
package playlist

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lvstream/eventguide/internal/feed"
	"github.com/lvstream/eventguide/internal/guide"
)

// Options configure playlist generation.
type Options struct {
	// GuideURL is advertised in the url-tvg playlist header; omitted when empty.
	GuideURL string
	// StreamURL is a template for stream addresses; the channel's opaque
	// external id replaces a %s placeholder (or is appended when absent).
	StreamURL string
}

// Generate renders an M3U playlist with one entry per admitted event and
// broadcasting channel, grouped by category via group-title attributes. The
// tvg-id matches the guide's synthesized channel id so players can join the
// playlist against the EPG.
func Generate(admitted []feed.Admitted, opts Options) []byte {
	var buf bytes.Buffer

	if opts.GuideURL != "" {
		fmt.Fprintf(&buf, "#EXTM3U url-tvg=%q\n", opts.GuideURL)
	} else {
		buf.WriteString("#EXTM3U\n")
	}

	for _, event := range admitted {
		title := feed.CleanMarkup(event.Event.Title)
		title = strings.ReplaceAll(title, "&", "and")
		if strings.TrimSpace(title) == "" {
			continue
		}

		name := fmt.Sprintf("%s (%s)", title, event.Start.Format("15:04"))
		tvgID := guide.ChannelID(title)

		for _, channel := range event.Channels {
			fmt.Fprintf(&buf, "#EXTINF:-1 tvg-id=%q tvg-name=%q group-title=%q,%s\n",
				tvgID, name, event.Category, name)
			buf.WriteString(streamURL(opts.StreamURL, channel.ID))
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes()
}

func streamURL(template, channelID string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, channelID)
	}
	return template + channelID
}
