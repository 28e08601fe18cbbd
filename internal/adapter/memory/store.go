package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/windsim/internal/domain"
)

// Store keeps the most recently used runs in process. Runs expire ttl after
// they were stored, like the redis store, measured on the domain clock.
// It implements pipeline.Sink and the HTTP run reader.
type Store struct {
	maxRuns int
	ttl     time.Duration

	mu    sync.Mutex
	order *list.List // of *storedRun, most recently used first
	runs  map[string]*list.Element
}

type storedRun struct {
	run       *domain.Run
	expiresAt time.Time
}

// NewStore creates a run store holding at most maxRuns runs. A non-positive
// ttl keeps runs until they are evicted.
func NewStore(maxRuns int, ttl time.Duration) *Store {
	return &Store{
		maxRuns: max(maxRuns, 1),
		ttl:     ttl,
		order:   list.New(),
		runs:    make(map[string]*list.Element),
	}
}

func (s *Store) Name() string { return "memory" }

// Load stores the run under its ID, restarting its expiry. Expired runs are
// dropped first, then the least recently used runs beyond the limit.
func (s *Store) Load(_ context.Context, run *domain.Run) error {
	now := domain.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropExpired(now)

	sr := &storedRun{run: run, expiresAt: s.expiry(now)}
	if el, ok := s.runs[run.ID]; ok {
		el.Value = sr
		s.order.MoveToFront(el)
		return nil
	}
	s.runs[run.ID] = s.order.PushFront(sr)

	for s.order.Len() > s.maxRuns {
		s.removeElement(s.order.Back())
	}
	return nil
}

// GetRun returns a live run or domain.ErrRunNotFound.
func (s *Store) GetRun(_ context.Context, id string) (*domain.Run, error) {
	now := domain.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	sr := el.Value.(*storedRun)
	if sr.expired(now) {
		s.removeElement(el)
		return nil, domain.ErrRunNotFound
	}
	s.order.MoveToFront(el)
	return sr.run, nil
}

// CheckReadiness always succeeds; the store has no external dependency.
func (s *Store) CheckReadiness(_ context.Context) error {
	return nil
}

// Len returns the number of stored runs, including expired ones not yet dropped.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *Store) expiry(now time.Time) time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(s.ttl)
}

func (sr *storedRun) expired(now time.Time) bool {
	return !sr.expiresAt.IsZero() && !now.Before(sr.expiresAt)
}

func (s *Store) dropExpired(now time.Time) {
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*storedRun).expired(now) {
			s.removeElement(el)
		}
		el = next
	}
}

func (s *Store) removeElement(el *list.Element) {
	sr := s.order.Remove(el).(*storedRun)
	delete(s.runs, sr.run.ID)
}
