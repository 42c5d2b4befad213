package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jason-s-yu/argumentor/internal/models"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryStore keeps snapshots in process memory. Values are stored encoded so
// callers never share state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	debates map[string]memoryEntry
	ttl     TTLPolicy

	// Now is the clock used for expiry; tests replace it.
	Now func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(ttl TTLPolicy) *MemoryStore {
	return &MemoryStore{
		debates: make(map[string]memoryEntry),
		ttl:     ttl,
		Now:     time.Now,
	}
}

// live returns the entry for roomCode, dropping it if expired. Assumes lock is held.
func (s *MemoryStore) live(roomCode string) (memoryEntry, bool) {
	e, ok := s.debates[roomCode]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.Now().Before(e.expires) {
		delete(s.debates, roomCode)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Get(_ context.Context, roomCode string) (*models.Debate, error) {
	s.mu.Lock()
	e, ok := s.live(roomCode)
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var d models.Debate
	if err := json.Unmarshal(e.data, &d); err != nil {
		return nil, fmt.Errorf("decode debate %s: %w", roomCode, err)
	}
	return &d, nil
}

func (s *MemoryStore) Put(_ context.Context, d models.Debate) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode debate %s: %w", d.RoomCode, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debates[d.RoomCode] = memoryEntry{data: data, expires: s.Now().Add(s.ttl.For(d))}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, roomCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.debates, roomCode)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, roomCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(roomCode)
	return ok, nil
}

func (s *MemoryStore) Codes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := make([]string, 0, len(s.debates))
	for code := range s.debates {
		if _, ok := s.live(code); ok {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// ExpiresIn reports the remaining lifetime of a record, or 0 if it is gone.
func (s *MemoryStore) ExpiresIn(roomCode string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(roomCode)
	if !ok {
		return 0
	}
	return e.expires.Sub(s.Now())
}
