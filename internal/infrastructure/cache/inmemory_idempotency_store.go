package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore is the single-instance fallback used when Redis
// is disabled. Keys expire at their deadline; a background sweeper drops
// them so the map does not grow with every webhook delivery.
type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	deadline map[string]time.Time
	now      func() time.Time
	stop     context.CancelFunc
	done     chan struct{}
}

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(defaultSweepInterval, time.Now)
}

func newInMemoryIdempotencyStore(every time.Duration, now func() time.Time) *InMemoryIdempotencyStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &InMemoryIdempotencyStore{
		deadline: map[string]time.Time{},
		now:      now,
		stop:     cancel,
		done:     make(chan struct{}),
	}
	go s.sweeper(ctx, every)
	return s
}

// live must be called with mu held.
func (s *InMemoryIdempotencyStore) live(key string, at time.Time) bool {
	d, ok := s.deadline[key]
	return ok && at.Before(d)
}

// MarkProcessed claims key for ttl. It returns false while an earlier claim
// is still live.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now()
	if s.live(key, at) {
		return false, nil
	}
	s.deadline[key] = at.Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadline, key)
	return nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live(key, s.now()), nil
}

// Close stops the sweeper and waits for it. Repeated calls are no-ops.
func (s *InMemoryIdempotencyStore) Close() error {
	s.stop()
	<-s.done
	return nil
}

// Size counts stored keys, including expired ones not yet swept.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deadline)
}

func (s *InMemoryIdempotencyStore) sweeper(ctx context.Context, every time.Duration) {
	defer close(s.done)
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := s.now()
	for key := range s.deadline {
		if !s.live(key, at) {
			delete(s.deadline, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
