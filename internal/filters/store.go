package filters

import "sync"

// ViewMode selects how listings are laid out
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// State is a snapshot of the store
type State struct {
	Filters          Criteria `json:"filters"`
	ViewMode         ViewMode `json:"viewMode"`
	FiltersPanelOpen bool     `json:"isFiltersFullOpen"`
}

// Store owns the current search intent. It accepts any criteria as given;
// validation happens when the query is built.
type Store struct {
	mu          sync.RWMutex
	state       State
	subscribers []func(Criteria)
}

// NewStore creates a store in grid mode with the panel closed
func NewStore(initial Criteria) *Store {
	return &Store{
		state: State{
			Filters:  initial.Clone(),
			ViewMode: ViewGrid,
		},
	}
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Filters = s.state.Filters.Clone()
	return st
}

// Filters returns a copy of the current criteria
func (s *Store) Filters() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Filters.Clone()
}

// SetFilters replaces the criteria wholesale and notifies subscribers.
// Partial updates are built by the caller from Filters().
func (s *Store) SetFilters(next Criteria) {
	s.setFilters(next, true)
}

func (s *Store) setFilters(next Criteria, notify bool) {
	next = next.Clone()

	s.mu.Lock()
	s.state.Filters = next
	subs := make([]func(Criteria), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	if !notify {
		return
	}
	for _, fn := range subs {
		fn(next.Clone())
	}
}

// SetViewMode switches between grid and list
func (s *Store) SetViewMode(mode ViewMode) {
	s.mu.Lock()
	s.state.ViewMode = mode
	s.mu.Unlock()
}

// ToggleFiltersPanel flips the full filter panel and returns the new value
func (s *Store) ToggleFiltersPanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.FiltersPanelOpen = !s.state.FiltersPanelOpen
	return s.state.FiltersPanelOpen
}

// Subscribe registers fn to receive every criteria change made through
// SetFilters. Callbacks run on the caller's goroutine, outside the lock.
func (s *Store) Subscribe(fn func(Criteria)) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}
