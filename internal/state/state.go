// Package state holds the single authoritative playback snapshot for the
// relay. One Store exists per process; it is created by the composition root
// and shared by the webhook ingestor, the control proxy, and the query routes.
package state

import "sync"

// Snapshot is the client-facing copy of the playback state. The session
// token is deliberately absent: it never leaves the process.
type Snapshot struct {
	TrackName      string  `json:"track_name"`
	ArtistName     string  `json:"artist_name"`
	ContainerName  string  `json:"container_name"`
	IsPlaying      bool    `json:"is_playing"`
	SessionGroupID *string `json:"session_group_id"`
}

// Store provides thread-safe access to the playback state. Grouped fields
// (the metadata triple, the credential pair) are always written under a
// single lock acquisition so readers never observe a half-updated group.
type Store struct {
	mu sync.RWMutex

	trackName     string
	artistName    string
	containerName string
	isPlaying     bool

	sessionToken   string
	sessionGroupID string
}

// NewStore creates an empty store. All fields start zero-valued; a missing
// session is a valid state, not an error.
func NewStore() *Store {
	return &Store{}
}

// SetNowPlaying replaces the metadata triple as one unit.
func (s *Store) SetNowPlaying(track, artist, container string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackName = track
	s.artistName = artist
	s.containerName = container
}

// SetPlaying records the last known play/pause signal.
func (s *Store) SetPlaying(playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPlaying = playing
}

// TogglePlaying flips the play flag and returns the new value.
func (s *Store) TogglePlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPlaying = !s.isPlaying
	return s.isPlaying
}

// SetSession replaces the credential pair as one unit, superseding any
// prior session. Validation is the caller's job; the store passes values
// through as received.
func (s *Store) SetSession(token, groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionToken = token
	s.sessionGroupID = groupID
}

// Session returns the credential pair. ok is true only when both parts are
// present; the control proxy must refuse to act otherwise.
func (s *Store) Session() (token, groupID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sessionToken == "" || s.sessionGroupID == "" {
		return "", "", false
	}
	return s.sessionToken, s.sessionGroupID, true
}

// Snapshot returns a copy of the current state for polling consumers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TrackName:     s.trackName,
		ArtistName:    s.artistName,
		ContainerName: s.containerName,
		IsPlaying:     s.isPlaying,
	}
	if s.sessionGroupID != "" {
		groupID := s.sessionGroupID
		snap.SessionGroupID = &groupID
	}
	return snap
}
