package feed

import (
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestParsePreservesOrder(t *testing.T) {
	doc := []byte(`{
		"Saturday 15 Nov 2025": {
			"Football": [
				{"time": "18:00", "event": "Team A vs Team B", "channels": [{"channel_name": "Italy Sports 1", "channel_id": "1"}]},
				{"time": "20:00", "event": "Team C vs Team D", "channels": [{"channel_name": "Italy Sports 2", "channel_id": "2"}]}
			],
			"Tennis": [
				{"time": "12:00", "event": "Final", "channels": []}
			]
		},
		"Friday 14 Nov 2025": {
			"Basketball": [
				{"time": "02:00", "event": "Late Game", "channels": []}
			]
		}
	}`)

	f, err := Parse(doc, testLogger())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if len(f.Days) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(f.Days))
	}
	if f.Days[0].Key != "Saturday 15 Nov 2025" || f.Days[1].Key != "Friday 14 Nov 2025" {
		t.Errorf("Day order not preserved: %q, %q", f.Days[0].Key, f.Days[1].Key)
	}

	categories := f.Days[0].Categories
	if len(categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(categories))
	}
	if categories[0].Name != "Football" || categories[1].Name != "Tennis" {
		t.Errorf("Category order not preserved: %q, %q", categories[0].Name, categories[1].Name)
	}

	events := categories[0].Events
	if len(events) != 2 {
		t.Fatalf("Expected 2 football events, got %d", len(events))
	}
	if events[0].Title != "Team A vs Team B" {
		t.Errorf("Unexpected first event title: %q", events[0].Title)
	}
	if len(events[0].Channels) != 1 || events[0].Channels[0].Name != "Italy Sports 1" {
		t.Errorf("Channels not parsed: %+v", events[0].Channels)
	}
	if events[0].Channels[0].ID != "1" {
		t.Errorf("Channel id not parsed: %q", events[0].Channels[0].ID)
	}
}

func TestParseSkipsMalformedEvents(t *testing.T) {
	doc := []byte(`{
		"Saturday 15 Nov 2025": {
			"Football": [
				"not an event",
				{"time": "18:00", "event": "Valid Event", "channels": []},
				{"time": "19:00", "event": "Bad Channels", "channels": "oops"}
			]
		}
	}`)

	f, err := Parse(doc, testLogger())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	events := f.Days[0].Categories[0].Events
	if len(events) != 1 {
		t.Fatalf("Expected 1 surviving event, got %d", len(events))
	}
	if events[0].Title != "Valid Event" {
		t.Errorf("Wrong event survived: %q", events[0].Title)
	}
}

func TestParseRejectsNonObjectDocument(t *testing.T) {
	_, err := Parse([]byte(`["not", "an", "object"]`), testLogger())
	if !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Expected ErrInvalidDocument, got %v", err)
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"truncated`), testLogger())
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestCleanMarkup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<span class="x">Rai 1</span>`, "Rai 1"},
		{"plain text", "plain text"},
		{"<span>a</span> and <span>b</span>", "a and b"},
		{"<b>kept</b>", "<b>kept</b>"},
	}

	for _, tt := range tests {
		if got := CleanMarkup(tt.in); got != tt.want {
			t.Errorf("CleanMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanCategory(t *testing.T) {
	if got := CleanCategory("<span>Football</span> "); got != "Football" {
		t.Errorf("CleanCategory = %q, want Football", got)
	}
	if got := CleanCategory("Tennis"); got != "Tennis" {
		t.Errorf("CleanCategory = %q, want Tennis", got)
	}
}
