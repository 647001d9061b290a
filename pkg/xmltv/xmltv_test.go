package xmltv

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"
	"time"
)

func TestFormatOffset(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{2 * time.Hour, "+0200"},
		{0, "+0000"},
		{-5*time.Hour - 30*time.Minute, "-0530"},
		{time.Hour + 45*time.Minute, "+0145"},
	}

	for _, tt := range tests {
		if got := FormatOffset(tt.offset); got != tt.want {
			t.Errorf("FormatOffset(%v) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	stamp := time.Date(2025, time.November, 15, 20, 0, 0, 0, time.UTC)
	if got := FormatTime(stamp, "+0200"); got != "20251115200000 +0200" {
		t.Errorf("FormatTime = %q", got)
	}
}

func sampleTV() *TV {
	return &TV{
		Channels: []Channel{{
			ID:           "teamavsteamb",
			DisplayNames: []DisplayName{{Text: "Team A vs Team B"}},
		}},
		Programmes: []Programme{{
			Start:    "20251115200000 +0200",
			Stop:     "20251115220000 +0200",
			Channel:  "teamavsteamb",
			Title:    Text{Lang: "it", Text: "Trasmesso in diretta."},
			Desc:     Text{Lang: "it", Text: "Team A vs Team B"},
			Category: Text{Lang: "it", Text: "Football"},
		}},
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTV().Encode(&buf); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>") {
		t.Error("Missing XML declaration")
	}
	for _, want := range []string{
		`<channel id="teamavsteamb">`,
		`<display-name>Team A vs Team B</display-name>`,
		`<programme start="20251115200000 +0200" stop="20251115220000 +0200" channel="teamavsteamb">`,
		`<title lang="it">Trasmesso in diretta.</title>`,
		`<category lang="it">Football</category>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Encoded output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Encoded output should end with a newline")
	}
}

func TestParseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleTV().Encode(&buf); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	tv, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(tv.Channels) != 1 || tv.Channels[0].ID != "teamavsteamb" {
		t.Errorf("Channels not preserved: %+v", tv.Channels)
	}
	if len(tv.Programmes) != 1 || tv.Programmes[0].Title.Text != "Trasmesso in diretta." {
		t.Errorf("Programmes not preserved: %+v", tv.Programmes)
	}
}

func TestParseRejectsMalformedDocument(t *testing.T) {
	if _, err := Parse(strings.NewReader("<tv><channel")); err == nil {
		t.Error("Expected error for truncated document")
	}
}

func TestEncodeGzip(t *testing.T) {
	var plain, compressed bytes.Buffer
	tv := sampleTV()
	if err := tv.Encode(&plain); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if err := tv.EncodeGzip(&compressed); err != nil {
		t.Fatalf("EncodeGzip returned error: %v", err)
	}

	reader, err := gzip.NewReader(&compressed)
	if err != nil {
		t.Fatalf("Output is not valid gzip: %v", err)
	}
	defer reader.Close()

	var restored bytes.Buffer
	if _, err := restored.ReadFrom(reader); err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}
	if !bytes.Equal(plain.Bytes(), restored.Bytes()) {
		t.Error("Gzip payload differs from plain encoding")
	}
}
