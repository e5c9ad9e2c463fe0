package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mikhlas911/medizap-ai/internal/conversation"
)

// MemoryStore is the single-instance fallback when Redis isn't configured,
// and the store demo mode runs on. Entries expire after ttl of inactivity;
// Run sweeps them out in the background.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	sess     *CallSession
	lastSeen time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) GetOrCreate(ctx context.Context, callID string) (*CallSession, bool, error) {
	if callID == "" {
		return nil, false, fmt.Errorf("session: call id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if e, ok := s.entries[callID]; ok && now.Sub(e.lastSeen) < s.ttl {
		e.lastSeen = now
		out := *e.sess
		return &out, false, nil
	}

	sess := &CallSession{
		CallID:    callID,
		StartedAt: now,
		State:     conversation.NewState(),
	}
	stored := *sess
	s.entries[callID] = &memoryEntry{sess: &stored, lastSeen: now}
	return sess, true, nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *CallSession) error {
	if sess == nil || sess.CallID == "" {
		return fmt.Errorf("session: call id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sess
	s.entries[sess.CallID] = &memoryEntry{sess: &stored, lastSeen: s.now().UTC()}
	return nil
}

func (s *MemoryStore) Complete(ctx context.Context, callID string) (time.Duration, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[callID]
	if !ok {
		return 0, false, nil
	}
	delete(s.entries, callID)
	elapsed := s.now().UTC().Sub(e.sess.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, true, nil
}

// Sweep drops entries idle past the TTL and returns how many it removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) >= s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
