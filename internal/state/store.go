package state

import (
	"errors"
	"sync"

	"github.com/eigerco/beerus/pkg/model"
)

// ErrUninitialized is returned by Read before the first Replace.
var ErrUninitialized = errors.New("state is not initialized")

// Store holds the single trusted snapshot. Readers get a copy, so a
// Replace never changes a value a reader already holds.
type Store struct {
	mu    sync.RWMutex
	state model.State
	set   bool

	hooks []func(model.State)
}

func NewStore() *Store {
	return &Store{}
}

// NewStoreWith returns a store already holding s.
func NewStoreWith(s model.State) *Store {
	return &Store{state: s, set: true}
}

// Read returns a copy of the current snapshot.
func (s *Store) Read() (model.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return model.State{}, ErrUninitialized
	}
	return s.state, nil
}

// Replace swaps in a new snapshot and then runs the replace hooks outside
// the lock.
func (s *Store) Replace(state model.State) {
	s.mu.Lock()
	s.state = state
	s.set = true
	hooks := s.hooks
	s.mu.Unlock()

	for _, h := range hooks {
		h(state)
	}
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

// OnReplace registers h to be called after every Replace. Hooks must not
// block for long; they run on the writer's goroutine.
func (s *Store) OnReplace(h func(model.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}
