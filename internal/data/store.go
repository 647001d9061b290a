// Package data provides in-memory storage, fetching and refresh scheduling
// for the event guide generator.
package data

import (
	"sync"
	"time"
)

// Store provides thread-safe in-memory storage for the built guide and
// playlist artifacts.
type Store struct {
	mu       sync.RWMutex
	guide    *GuideData
	playlist *PlaylistData
	lastSync time.Time
}

// GuideData contains the serialized guide document and its gzip copy.
type GuideData struct {
	XML       []byte
	Gzip      []byte
	UpdatedAt time.Time
}

// PlaylistData contains the rendered M3U playlist.
type PlaylistData struct {
	Raw       []byte
	UpdatedAt time.Time
}

// NewStore creates a new empty data store.
func NewStore() *Store {
	return &Store{}
}

// SetGuide stores the serialized guide document.
func (s *Store) SetGuide(xml, gz []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guide = &GuideData{
		XML:       xml,
		Gzip:      gz,
		UpdatedAt: time.Now(),
	}
	s.lastSync = time.Now()
}

// SetPlaylist stores the rendered playlist.
func (s *Store) SetPlaylist(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlist = &PlaylistData{
		Raw:       raw,
		UpdatedAt: time.Now(),
	}
	s.lastSync = time.Now()
}

// GetGuideXML retrieves the guide XML. Returns false if no data is available.
func (s *Store) GetGuideXML() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.guide == nil {
		return nil, false
	}

	return s.guide.XML, true
}

// GetGuideGzip retrieves the gzip-compressed guide. Returns false if no data
// is available.
func (s *Store) GetGuideGzip() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.guide == nil {
		return nil, false
	}

	return s.guide.Gzip, true
}

// GetPlaylist retrieves the playlist. Returns false if no data is available.
func (s *Store) GetPlaylist() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.playlist == nil {
		return nil, false
	}

	return s.playlist.Raw, true
}

// HasData returns true if the store contains both guide and playlist data.
func (s *Store) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.guide != nil && s.playlist != nil
}

// LastSync returns the time of the last data synchronization.
func (s *Store) LastSync() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSync
}
