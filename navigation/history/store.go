package history

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrNilRun           = errors.New("run must not be nil")
)

// Store holds runs in memory, newest last
type Store struct {
	runs  map[string]*service.Run
	order []string
	limit int
	mu    sync.RWMutex
	now   func() time.Time
}

// NewStore creates a store that keeps at most limit runs. A limit of zero
// or less means unlimited.
func NewStore(limit int) *Store {
	return &Store{
		runs:  make(map[string]*service.Run),
		limit: limit,
		now:   time.Now,
	}
}

// Save stores run, assigning an ID and creation time when missing.
// When the store is full the oldest run is evicted.
func (s *Store) Save(run *service.Run) error {
	if run == nil {
		return ErrNilRun
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	key := strings.ToLower(run.ID)
	if _, exists := s.runs[key]; exists {
		return ErrRunAlreadyExists
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}

	s.runs[key] = run
	s.order = append(s.order, key)

	for s.limit > 0 && len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}
	return nil
}

// Get retrieves a run by ID (case-insensitive)
func (s *Store) Get(id string) (*service.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[strings.ToLower(id)]
	if !exists {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// List returns all runs, newest first
func (s *Store) List() []*service.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*service.Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, s.runs[s.order[i]])
	}
	return result
}

// Delete removes a run
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := s.runs[key]; !exists {
		return ErrRunNotFound
	}
	delete(s.runs, key)
	s.removeFromOrder(key)
	return nil
}

// CleanupExpired removes runs created more than maxAge ago and returns
// how many were removed
func (s *Store) CleanupExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0

	for id, run := range s.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
			s.removeFromOrder(id)
			removed++
		}
	}

	return removed
}

// Count returns the number of stored runs
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func (s *Store) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
