// Package config provides configuration management for the event guide generator.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrFeedRequired is returned when no schedule feed source is provided.
	ErrFeedRequired = errors.New("schedule feed URL or path is required")
	// ErrInvalidPort is returned when the port number is invalid.
	ErrInvalidPort = errors.New("invalid port number")
	// ErrOffsetHours is returned when the timezone offset is out of range.
	ErrOffsetHours = errors.New("timezone offset must be between -14 and 14 hours")
	// ErrGracePositive is returned when the grace window is not positive.
	ErrGracePositive = errors.New("grace window must be positive")
	// ErrDurationPositive is returned when the main block duration is not positive.
	ErrDurationPositive = errors.New("main block duration must be positive")
	// ErrRefreshIntervalPositive is returned when the refresh interval is not positive.
	ErrRefreshIntervalPositive = errors.New("refresh interval must be positive")
	// ErrWorkersPositive is returned when the fetch worker bound is not positive.
	ErrWorkersPositive = errors.New("fetch workers must be positive")
	// ErrInvalidLogLevel is returned when the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config holds the application configuration.
type Config struct {
	FeedSource      string
	FragmentURLs    []string
	Keywords        []string
	TZOffsetHours   int
	GraceHours      int
	DurationHours   int
	Lang            string
	OutputXML       string
	OutputGzip      string
	OutputM3U       string
	GuideURL        string
	StreamURL       string
	Serve           bool
	Port            int
	LogLevel        string
	RefreshInterval time.Duration
	FetchWorkers    int
}

// New creates a new configuration instance from command-line flags, with
// environment variables (and an optional .env file) supplying the defaults.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	var fragments, keywords string

	flag.StringVar(&cfg.FeedSource, "feed", envString("FEED_SOURCE", ""), "URL or file path of the schedule JSON (required)")
	flag.StringVar(&fragments, "fragments", envString("FRAGMENT_URLS", ""), "Comma-separated URLs of external XMLTV fragments")
	flag.StringVar(&keywords, "keywords", envString("CHANNEL_KEYWORDS", ""), "Comma-separated channel keyword allow-list (defaults to the built-in locale list)")
	flag.IntVar(&cfg.TZOffsetHours, "tz-offset", envInt("TZ_OFFSET_HOURS", 2), "Feed-to-local timezone offset in hours")
	flag.IntVar(&cfg.GraceHours, "grace", envInt("GRACE_HOURS", 2), "Trailing grace window in hours for already-started events")
	flag.IntVar(&cfg.DurationHours, "duration", envInt("DURATION_HOURS", 2), "Fixed main programme duration in hours")
	flag.StringVar(&cfg.Lang, "lang", envString("GUIDE_LANG", "it"), "Language tag for guide text elements")
	flag.StringVar(&cfg.OutputXML, "out", envString("OUTPUT_XML", "epg.xml"), "Output path for the guide XML")
	flag.StringVar(&cfg.OutputGzip, "out-gz", envString("OUTPUT_GZIP", "epg.xml.gz"), "Output path for the gzip-compressed guide")
	flag.StringVar(&cfg.OutputM3U, "out-m3u", envString("OUTPUT_M3U", "playlist.m3u"), "Output path for the event playlist")
	flag.StringVar(&cfg.GuideURL, "guide-url", envString("GUIDE_URL", ""), "Public guide URL advertised in the playlist header")
	flag.StringVar(&cfg.StreamURL, "stream-url", envString("STREAM_URL", ""), "Stream URL template; %s is replaced with the channel id")
	flag.BoolVar(&cfg.Serve, "serve", envBool("SERVE", false), "Serve the guide over HTTP instead of exiting after writing files")
	flag.IntVar(&cfg.Port, "port", envInt("PORT", 8080), "Port to listen on in serve mode")
	flag.StringVar(&cfg.LogLevel, "log-level", envString("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	flag.DurationVar(&cfg.RefreshInterval, "refresh-interval", envDuration("REFRESH_INTERVAL", 30*time.Minute), "Interval between rebuilds in serve mode")
	flag.IntVar(&cfg.FetchWorkers, "fetch-workers", envInt("FETCH_WORKERS", 4), "Maximum concurrent fragment downloads")

	flag.Parse()

	cfg.FragmentURLs = splitList(fragments)
	cfg.Keywords = splitList(keywords)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.FeedSource == "" {
		return ErrFeedRequired
	}

	if c.TZOffsetHours < -14 || c.TZOffsetHours > 14 {
		return fmt.Errorf("%w: %d", ErrOffsetHours, c.TZOffsetHours)
	}

	if c.GraceHours <= 0 {
		return ErrGracePositive
	}

	if c.DurationHours <= 0 {
		return ErrDurationPositive
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	if c.RefreshInterval <= 0 {
		return ErrRefreshIntervalPositive
	}

	if c.FetchWorkers <= 0 {
		return ErrWorkersPositive
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: %s (must be debug, info, warn, or error)", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// TZOffset returns the timezone offset as a duration.
func (c *Config) TZOffset() time.Duration {
	return time.Duration(c.TZOffsetHours) * time.Hour
}

// GraceWindow returns the grace window as a duration.
func (c *Config) GraceWindow() time.Duration {
	return time.Duration(c.GraceHours) * time.Hour
}

// MainDuration returns the main block duration as a duration.
func (c *Config) MainDuration() time.Duration {
	return time.Duration(c.DurationHours) * time.Hour
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envString(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}
