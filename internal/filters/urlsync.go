package filters

import (
	"log"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a filter change reaches the URL
const DefaultDebounce = 300 * time.Millisecond

// Navigator replaces the address bar query with rawQuery
type Navigator interface {
	Navigate(rawQuery string) error
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(rawQuery string) error

func (f NavigatorFunc) Navigate(rawQuery string) error {
	return f(rawQuery)
}

// URLSync mirrors store changes into the URL. A burst of changes within the
// debounce window produces one navigation carrying the last state.
type URLSync struct {
	store *Store
	nav   Navigator
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending *Criteria
	last    string
	stopped bool
}

// NewURLSync subscribes to store. delay <= 0 selects DefaultDebounce.
func NewURLSync(store *Store, nav Navigator, delay time.Duration) *URLSync {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	s := &URLSync{
		store: store,
		nav:   nav,
		delay: delay,
		last:  Canonical(store.Filters()),
	}
	store.Subscribe(s.Schedule)
	return s
}

// Schedule records c as the state to push and restarts the debounce timer
func (s *URLSync) Schedule(c Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	s.pending = &c
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *URLSync) fire(gen uint64) {
	s.mu.Lock()
	// a newer Schedule, Flush or Stop superseded this timer
	if gen != s.gen || s.stopped || s.pending == nil {
		s.mu.Unlock()
		return
	}
	c := *s.pending
	s.pending = nil
	s.mu.Unlock()

	s.push(c)
}

// Flush pushes a pending change immediately
func (s *URLSync) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	c := s.pending
	s.pending = nil
	s.mu.Unlock()

	if c != nil {
		s.push(*c)
	}
}

// Stop drops any pending change and ignores later ones
func (s *URLSync) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.gen++
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Restore loads the criteria encoded in rawQuery into the store without
// navigating. An empty query restores Default().
func (s *URLSync) Restore(rawQuery string) (Criteria, error) {
	rawQuery = strings.TrimPrefix(rawQuery, "?")

	c := Default()
	if rawQuery != "" {
		values, err := url.ParseQuery(rawQuery)
		if err != nil {
			return Criteria{}, err
		}
		if c, err = Decode(values); err != nil {
			return Criteria{}, err
		}
	}

	s.mu.Lock()
	s.gen++
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	s.last = Canonical(c)
	s.mu.Unlock()

	s.store.setFilters(c, false)
	return c, nil
}

func (s *URLSync) push(c Criteria) {
	query := Canonical(c)

	s.mu.Lock()
	if query == s.last {
		s.mu.Unlock()
		return
	}
	s.last = query
	s.mu.Unlock()

	if err := s.nav.Navigate(query); err != nil {
		log.Printf("[URL Sync] navigate failed query=%q error=%v", query, err)
	}
}
