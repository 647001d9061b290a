// Package xmltv provides types, parsing and serialization for XMLTV guide documents.
package xmltv

import (
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// TimeLayout is the timestamp layout used by XMLTV start/stop attributes,
// without the trailing UTC-offset suffix.
const TimeLayout = "20060102150405"

// TV represents the root element of an XMLTV guide document.
type TV struct {
	XMLName    xml.Name    `xml:"tv"`
	Channels   []Channel   `xml:"channel"`
	Programmes []Programme `xml:"programme"`
}

// Channel declares a channel referenced by programme entries. Child elements
// this package has no dedicated field for are carried in Extra, so externally
// produced declarations survive a parse/encode round trip intact.
type Channel struct {
	ID           string        `xml:"id,attr"`
	DisplayNames []DisplayName `xml:"display-name"`
	Icon         *Icon         `xml:"icon,omitempty"`
	Extra        []Element     `xml:",any"`
}

// DisplayName is the human-readable name of a channel.
type DisplayName struct {
	Lang string `xml:"lang,attr,omitempty"`
	Text string `xml:",chardata"`
}

// Icon represents a channel icon.
type Icon struct {
	Src string `xml:"src,attr"`
}

// Programme is a single time-bounded entry in the guide. Child elements this
// package does not model (sub-title, episode-num, icons, ...) are carried in
// Extra.
type Programme struct {
	Start    string    `xml:"start,attr"`
	Stop     string    `xml:"stop,attr"`
	Channel  string    `xml:"channel,attr"`
	Title    Text      `xml:"title"`
	Desc     Text      `xml:"desc"`
	Category Text      `xml:"category"`
	Extra    []Element `xml:",any"`
}

// Text is a language-tagged text element.
type Text struct {
	Lang string `xml:"lang,attr,omitempty"`
	Text string `xml:",chardata"`
}

// Element is a verbatim copy of an unmodeled child element. The inner XML is
// kept raw, so nested children re-encode exactly as they were parsed.
type Element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",innerxml"`
}

// FormatTime renders a timestamp in XMLTV attribute form, e.g.
// "20251115200000 +0200". The offset string is appended verbatim.
func FormatTime(t time.Time, offset string) string {
	return t.Format(TimeLayout) + " " + offset
}

// FormatOffset renders a fixed UTC offset as an XMLTV suffix, e.g. "+0200".
func FormatOffset(offset time.Duration) string {
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours := int(offset / time.Hour)
	minutes := int(offset/time.Minute) % 60
	return fmt.Sprintf("%s%02d%02d", sign, hours, minutes)
}

// Parse decodes an XMLTV document from a reader.
func Parse(r io.Reader) (*TV, error) {
	decoder := xml.NewDecoder(r)

	var tv TV
	if err := decoder.Decode(&tv); err != nil {
		return nil, fmt.Errorf("failed to decode XMLTV document: %w", err)
	}

	return &tv, nil
}

// Encode writes the document as indented XML with a declaration header.
func (tv *TV) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(tv); err != nil {
		return fmt.Errorf("failed to encode XMLTV document: %w", err)
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write trailing newline: %w", err)
	}

	return nil
}

// EncodeGzip writes the gzip-compressed form of the encoded document.
func (tv *TV) EncodeGzip(w io.Writer) error {
	gz := gzip.NewWriter(w)
	if err := tv.Encode(gz); err != nil {
		_ = gz.Close()
		return err
	}

	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}

	return nil
}
