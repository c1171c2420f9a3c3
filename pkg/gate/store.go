package gate

import (
	"sync"
	"time"

	"github.com/dohwa-law/portal-gate/internal/domain"
)

// Stamp records that a dashboard category was successfully unlocked.
type Stamp struct {
	Category   domain.Category
	UnlockedAt time.Time
}

// SessionStore holds session stamps for one browsing context. Stamps are
// ephemeral: they live with the client, never on the server.
type SessionStore interface {
	Get(category domain.Category) (Stamp, bool)
	Set(stamp Stamp)
	Clear(category domain.Category)
}

// MemoryStore is the per-tab SessionStore. It vanishes with the process, the
// same way sessionStorage vanishes with the browsing context.
type MemoryStore struct {
	mu     sync.Mutex
	stamps map[domain.Category]Stamp
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stamps: make(map[domain.Category]Stamp)}
}

func (s *MemoryStore) Get(category domain.Category) (Stamp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp, ok := s.stamps[category]
	return stamp, ok
}

func (s *MemoryStore) Set(stamp Stamp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamps[stamp.Category] = stamp
}

func (s *MemoryStore) Clear(category domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stamps, category)
}
