package guide

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lvstream/eventguide/internal/feed"
	"github.com/lvstream/eventguide/pkg/xmltv"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var saturday = time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{TZOffset: 2 * time.Hour}
}

func admittedEvent(title, category string, start time.Time) feed.Admitted {
	return feed.Admitted{
		Date:     time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		Category: category,
		Event:    feed.Event{Title: title},
		Start:    start,
		Channels: []feed.ChannelRef{{Name: "Italy Sports 1", ID: "1"}},
	}
}

func blockTime(t *testing.T, stamp string) time.Time {
	t.Helper()
	parsed, err := time.Parse(xmltv.TimeLayout, strings.SplitN(stamp, " ", 2)[0])
	if err != nil {
		t.Fatalf("Unparseable block timestamp %q: %v", stamp, err)
	}
	return parsed
}

func TestSynthesizeSingleEvent(t *testing.T) {
	admitted := []feed.Admitted{
		admittedEvent("Team A vs Team B", "Football", saturday.Add(20*time.Hour)),
	}

	tv, report := Synthesize(admitted, testOptions(), testLogger())

	if len(tv.Channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(tv.Channels))
	}
	if tv.Channels[0].ID != "teamavsteamb" {
		t.Errorf("Expected channel id teamavsteamb, got %q", tv.Channels[0].ID)
	}
	if len(tv.Channels[0].DisplayNames) != 1 || tv.Channels[0].DisplayNames[0].Text != "Team A vs Team B" {
		t.Errorf("Expected display name from event title, got %+v", tv.Channels[0].DisplayNames)
	}

	if len(tv.Programmes) != 2 {
		t.Fatalf("Expected announcement + main block, got %d programmes", len(tv.Programmes))
	}

	announcement := tv.Programmes[0]
	if announcement.Start != "20251115000000 +0200" || announcement.Stop != "20251115200000 +0200" {
		t.Errorf("Unexpected announcement window: %s - %s", announcement.Start, announcement.Stop)
	}
	if announcement.Title.Text != "Inizia alle 20:00." {
		t.Errorf("Unexpected announcement title: %q", announcement.Title.Text)
	}
	if announcement.Category.Text != "Annuncio" {
		t.Errorf("Unexpected announcement category: %q", announcement.Category.Text)
	}

	main := tv.Programmes[1]
	if main.Start != "20251115200000 +0200" || main.Stop != "20251115220000 +0200" {
		t.Errorf("Unexpected main window: %s - %s", main.Start, main.Stop)
	}
	if main.Title.Text != "Trasmesso in diretta." {
		t.Errorf("Expected fallback description as title, got %q", main.Title.Text)
	}
	if main.Desc.Text != "Team A vs Team B" {
		t.Errorf("Expected event name as desc, got %q", main.Desc.Text)
	}
	if main.Category.Text != "Football" {
		t.Errorf("Expected category Football, got %q", main.Category.Text)
	}
	if main.Title.Lang != "it" || main.Category.Lang != "it" {
		t.Errorf("Expected it language tags, got %q/%q", main.Title.Lang, main.Category.Lang)
	}

	if report.Programmes != 2 || report.Announcements != 1 || report.Channels != 1 {
		t.Errorf("Unexpected report: %+v", report)
	}
}

func TestSynthesizeChainsAnnouncements(t *testing.T) {
	admitted := []feed.Admitted{
		admittedEvent("Grand Slam", "Tennis", saturday.Add(10*time.Hour)),
		admittedEvent("Grand Slam", "Tennis", saturday.Add(14*time.Hour)),
	}

	tv, _ := Synthesize(admitted, testOptions(), testLogger())

	if len(tv.Channels) != 1 {
		t.Fatalf("Events sharing a title must share a lane, got %d channels", len(tv.Channels))
	}
	if len(tv.Programmes) != 4 {
		t.Fatalf("Expected 4 programmes, got %d", len(tv.Programmes))
	}

	// Second announcement must start where the first main block stopped.
	second := tv.Programmes[2]
	if second.Start != "20251115120000 +0200" || second.Stop != "20251115140000 +0200" {
		t.Errorf("Unexpected second announcement window: %s - %s", second.Start, second.Stop)
	}

	assertNonOverlapping(t, tv)
}

func TestSynthesizeNonOverlapAcrossCategories(t *testing.T) {
	admitted := []feed.Admitted{
		admittedEvent("Evening Match", "Football", saturday.Add(21*time.Hour)),
		admittedEvent("Morning Race", "Motorsport", saturday.Add(9*time.Hour)),
		admittedEvent("Morning Race", "Motorsport", saturday.Add(15*time.Hour)),
	}

	tv, _ := Synthesize(admitted, testOptions(), testLogger())
	assertNonOverlapping(t, tv)
}

func TestSynthesizeZeroLengthAnnouncementOmitted(t *testing.T) {
	admitted := []feed.Admitted{
		admittedEvent("Midnight Show", "Football", saturday),
	}

	tv, report := Synthesize(admitted, testOptions(), testLogger())

	if len(tv.Programmes) != 1 {
		t.Fatalf("Expected only the main block, got %d programmes", len(tv.Programmes))
	}
	if len(report.Skips) != 1 || report.Skips[0].Reason != SkipZeroLength {
		t.Errorf("Expected one SkipZeroLength record, got %+v", report.Skips)
	}
}

func TestSynthesizeDeclaresChannelOnce(t *testing.T) {
	admitted := []feed.Admitted{
		admittedEvent("Repeated Title", "Football", saturday.Add(10*time.Hour)),
		admittedEvent("Repeated Title", "Tennis", saturday.Add(13*time.Hour)),
		admittedEvent("Repeated Title", "Football", saturday.Add(16*time.Hour)),
	}

	tv, report := Synthesize(admitted, testOptions(), testLogger())

	if len(tv.Channels) != 1 {
		t.Fatalf("Expected a single channel declaration, got %d", len(tv.Channels))
	}
	if report.Channels != 1 {
		t.Errorf("Report should count 1 channel, got %d", report.Channels)
	}
}

func TestSynthesizeResetsLastEndPerDate(t *testing.T) {
	sunday := saturday.AddDate(0, 0, 1)
	admitted := []feed.Admitted{
		admittedEvent("Daily Show", "Football", saturday.Add(20*time.Hour)),
		admittedEvent("Daily Show", "Football", sunday.Add(10*time.Hour)),
	}

	tv, _ := Synthesize(admitted, testOptions(), testLogger())

	if len(tv.Programmes) != 4 {
		t.Fatalf("Expected 4 programmes, got %d", len(tv.Programmes))
	}

	// Sunday's announcement starts at Sunday midnight, not at Saturday's
	// last block end.
	sundayAnnouncement := tv.Programmes[2]
	if sundayAnnouncement.Start != "20251116000000 +0200" {
		t.Errorf("Expected Sunday announcement from midnight, got %s", sundayAnnouncement.Start)
	}
	if sundayAnnouncement.Stop != "20251116100000 +0200" {
		t.Errorf("Unexpected Sunday announcement stop: %s", sundayAnnouncement.Stop)
	}
}

func TestSynthesizeZeroOffsetTakenLiterally(t *testing.T) {
	admitted := []feed.Admitted{
		admittedEvent("Team A vs Team B", "Football", saturday.Add(20*time.Hour)),
	}

	tv, _ := Synthesize(admitted, Options{}, testLogger())

	if len(tv.Programmes) != 2 {
		t.Fatalf("Expected 2 programmes, got %d", len(tv.Programmes))
	}
	main := tv.Programmes[1]
	if main.Start != "20251115200000 +0000" || main.Stop != "20251115220000 +0000" {
		t.Errorf("Zero offset must render as +0000: %s - %s", main.Start, main.Stop)
	}
}

func TestSynthesizeEmptyInput(t *testing.T) {
	tv, report := Synthesize(nil, testOptions(), testLogger())

	if tv == nil {
		t.Fatal("Expected a document even for empty input")
	}
	if len(tv.Channels) != 0 || len(tv.Programmes) != 0 {
		t.Errorf("Expected empty document, got %d channels, %d programmes", len(tv.Channels), len(tv.Programmes))
	}
	if report.Programmes != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
}

// assertNonOverlapping verifies that per channel, blocks sorted by start
// never overlap.
func assertNonOverlapping(t *testing.T, tv *xmltv.TV) {
	t.Helper()

	perChannel := make(map[string][][2]time.Time)
	for _, programme := range tv.Programmes {
		start := blockTime(t, programme.Start)
		stop := blockTime(t, programme.Stop)
		perChannel[programme.Channel] = append(perChannel[programme.Channel], [2]time.Time{start, stop})
	}

	for channel, blocks := range perChannel {
		for i := 0; i < len(blocks); i++ {
			for j := i + 1; j < len(blocks); j++ {
				a, b := blocks[i], blocks[j]
				if a[0].Before(b[1]) && b[0].Before(a[1]) {
					t.Errorf("Channel %s has overlapping blocks: %v and %v", channel, a, b)
				}
			}
		}
	}
}
