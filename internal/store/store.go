package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"kwhmi/agent/internal/types"
)

// DefaultMaxEvents bounds the journal when no limit is configured.
const DefaultMaxEvents = 200

// Store is a bounded in-memory journal of resolver events. It is written
// by the resolver loop and read by the HTTP API.
type Store struct {
	mu      sync.RWMutex
	events  []types.Event // oldest first, never holds the marker
	marker  *types.Event  // set once the cap has been hit; listed last
	max     int
	dropped int
	now     func() time.Time
}

func New(maxEvents int) *Store {
	if maxEvents <= 1 {
		maxEvents = DefaultMaxEvents
	}
	return &Store{max: maxEvents, now: time.Now}
}

// Append records an event. Once the cap is reached the oldest entries are
// dropped and a single truncation marker is listed after the newest event,
// so the total stays at the cap.
func (s *Store) Append(typ string, payload map[string]any) types.Event {
	evt := types.Event{ID: uuid.NewString(), Type: typ, Ts: s.now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	if s.size() <= s.max {
		return evt
	}
	keep := s.max - 1
	dropped := len(s.events) - keep
	for i := 0; i < dropped; i++ {
		s.events[i] = types.Event{}
	}
	// Reslicing from the front; append reallocates once capacity runs out,
	// copying only live entries.
	s.events = s.events[dropped:]
	s.dropped += dropped
	s.marker = &types.Event{
		ID:      uuid.NewString(),
		Type:    types.EventTruncated,
		Ts:      s.now().UTC(),
		Payload: map[string]any{"dropped": dropped, "kept": keep, "dropped_total": s.dropped},
	}
	return evt
}

func (s *Store) size() int {
	if s.marker != nil {
		return len(s.events) + 1
	}
	return len(s.events)
}

// List returns a copy of the journal, oldest first. limit <= 0 returns all.
func (s *Store) List(limit int) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.size()
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]types.Event, 0, limit)
	want := limit
	if s.marker != nil {
		want--
	}
	if want > 0 {
		out = append(out, s.events[len(s.events)-want:]...)
	}
	if s.marker != nil {
		out = append(out, *s.marker)
	}
	return out
}

// ListType returns events of one type, oldest first.
func (s *Store) ListType(typ string) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Event, 0)
	for _, e := range s.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	if s.marker != nil && s.marker.Type == typ {
		out = append(out, *s.marker)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size()
}
