package data

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lvstream/eventguide/config"
	"github.com/lvstream/eventguide/internal/feed"
	"github.com/lvstream/eventguide/internal/metrics"
	"github.com/lvstream/eventguide/pkg/xmltv"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnexpectedStatus is returned when an HTTP response has an unexpected status code.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// Fetcher retrieves the schedule feed and the external guide fragments.
type Fetcher struct {
	config  *config.Config
	client  *http.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

// FetchResult contains the retrieved schedule and fragments. Fragments that
// failed to download or parse are simply absent; source order is preserved
// for the ones that succeeded.
type FetchResult struct {
	Feed      *feed.Feed
	Fragments []*xmltv.TV
}

// NewFetcher creates a new fetcher instance.
func NewFetcher(cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Fetcher {
	return &Fetcher{
		config: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:  logger,
		metrics: m,
	}
}

// FetchAll retrieves the schedule feed and every configured fragment. The
// feed is required; fragment failures are logged, counted and skipped.
func (f *Fetcher) FetchAll() (*FetchResult, error) {
	scheduleFeed, err := f.fetchFeed()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule feed: %w", err)
	}

	return &FetchResult{
		Feed:      scheduleFeed,
		Fragments: f.fetchFragments(),
	}, nil
}

func (f *Fetcher) fetchFeed() (*feed.Feed, error) {
	source := f.config.FeedSource
	f.logger.WithField("source", source).Info("Loading schedule feed")

	var (
		body []byte
		err  error
	)
	if isURL(source) {
		body, err = f.download(source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	body, err = maybeGunzip(body)
	if err != nil {
		return nil, err
	}

	scheduleFeed, err := feed.Parse(body, f.logger)
	if err != nil {
		return nil, err
	}

	f.logger.WithField("days", len(scheduleFeed.Days)).Info("Schedule feed loaded")
	return scheduleFeed, nil
}

// fetchFragments downloads the configured XMLTV fragments with a bounded
// worker pool. Each source fails independently.
func (f *Fetcher) fetchFragments() []*xmltv.TV {
	urls := f.config.FragmentURLs
	if len(urls) == 0 {
		return nil
	}

	results := make([]*xmltv.TV, len(urls))
	sem := make(chan struct{}, f.config.FetchWorkers)
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, url string) {
			defer wg.Done()
			defer func() { <-sem }()

			fragment, err := f.fetchFragment(url)
			if err != nil {
				f.logger.WithField("url", url).WithError(err).Warn("Skipping guide fragment")
				f.metrics.IncFragmentFailure()
				return
			}
			results[i] = fragment
		}(i, url)
	}

	wg.Wait()

	fragments := make([]*xmltv.TV, 0, len(results))
	for _, fragment := range results {
		if fragment != nil {
			fragments = append(fragments, fragment)
		}
	}

	f.logger.WithFields(logrus.Fields{
		"requested": len(urls),
		"fetched":   len(fragments),
	}).Info("Guide fragments fetched")

	return fragments
}

func (f *Fetcher) fetchFragment(url string) (*xmltv.TV, error) {
	body, err := f.download(url)
	if err != nil {
		return nil, err
	}

	body, err = maybeGunzip(body)
	if err != nil {
		return nil, err
	}

	return xmltv.Parse(bytes.NewReader(body))
}

func (f *Fetcher) download(url string) ([]byte, error) {
	resp, err := f.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// maybeGunzip transparently decompresses gzip payloads, detected by the
// magic bytes rather than the URL suffix.
func maybeGunzip(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip payload: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress gzip payload: %w", err)
	}

	return body, nil
}
