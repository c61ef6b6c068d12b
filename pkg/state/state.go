// Package state persists the small amount of scheduler state that should
// survive a restart: which auto-post menus already went out and where the
// last manual post landed.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"cantinabot/pkg/fileutil"
)

// Snapshot is the on-disk shape of the bot state.
type Snapshot struct {
	// LastAutoPost maps cantina key -> ISO date of the last successful
	// automatic (or schedule-resetting manual) post.
	LastAutoPost map[string]string `json:"last_auto_post"`

	// PreferredChannel is the channel the last successful post went to,
	// used as the auto-post destination fallback.
	PreferredChannel string `json:"preferred_channel,omitempty"`

	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a file-backed store for the bot state.
type Store struct {
	path string

	mu   sync.Mutex
	snap Snapshot
}

// Open loads the state file at path, creating an empty state when the
// file does not exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		snap: Snapshot{LastAutoPost: map[string]string{}},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	if err := json.Unmarshal(data, &s.snap); err != nil {
		return nil, fmt.Errorf("unmarshaling state file: %w", err)
	}
	if s.snap.LastAutoPost == nil {
		s.snap.LastAutoPost = map[string]string{}
	}

	return s, nil
}

// LastAutoPost returns the ISO date of the last schedule-satisfying post
// for the cantina, or "" when none is recorded.
func (s *Store) LastAutoPost(cantina string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.LastAutoPost[cantina]
}

// MarkAutoPost records a schedule-satisfying post for the cantina on the
// given ISO date and persists the state.
func (s *Store) MarkAutoPost(cantina, isoDate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.LastAutoPost[cantina] = isoDate
	return s.saveLocked()
}

// PreferredChannel returns the remembered destination channel, or "".
func (s *Store) PreferredChannel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.PreferredChannel
}

// SetPreferredChannel remembers the destination channel and persists the
// state.
func (s *Store) SetPreferredChannel(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if channelID == "" || s.snap.PreferredChannel == channelID {
		return nil
	}
	s.snap.PreferredChannel = channelID
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	s.snap.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(&s.snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	return nil
}
