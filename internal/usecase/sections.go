package usecase

import (
	"sync"

	"flightsearch-service/internal/domain/entity"
)

// SectionStateStore holds one mutable section per requested leg. It is
// the only piece the presentation layer observes. Mutation goes through
// Update, which bounds-checks the index: polling can outlive a re-render
// that shrank the section list, so a stale index is a no-op, never a
// panic.
type SectionStateStore struct {
	mu       sync.RWMutex
	sections []entity.Section
	watchers []chan struct{}
}

// NewSectionStateStore creates a new section state store
func NewSectionStateStore() *SectionStateStore {
	return &SectionStateStore{}
}

// Reset replaces all sections, discarding prior state.
func (s *SectionStateStore) Reset(sections []entity.Section) {
	s.mu.Lock()
	s.sections = make([]entity.Section, len(sections))
	for i := range sections {
		sec := sections[i]
		refreshHasMore(&sec)
		s.sections[i] = sec
	}
	s.mu.Unlock()
	s.notify()
}

// Update applies the mutator to the section at index and nowhere else.
// Out-of-range indices are a no-op.
func (s *SectionStateStore) Update(index int, mutate func(*entity.Section)) {
	s.mu.Lock()
	if index < 0 || index >= len(s.sections) {
		s.mu.Unlock()
		return
	}
	mutate(&s.sections[index])
	refreshHasMore(&s.sections[index])
	s.mu.Unlock()
	s.notify()
}

// Get returns a copy of the section at index.
func (s *SectionStateStore) Get(index int) (entity.Section, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.sections) {
		return entity.Section{}, false
	}
	return s.sections[index].Clone(), true
}

// Sections returns a snapshot of all sections.
func (s *SectionStateStore) Sections() []entity.Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]entity.Section, len(s.sections))
	for i := range s.sections {
		snapshot[i] = s.sections[i].Clone()
	}
	return snapshot
}

// Len returns the current number of sections.
func (s *SectionStateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sections)
}

// Watch returns a channel pulsed after every mutation so an observer can
// re-snapshot without polling. The channel is never closed.
func (s *SectionStateStore) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *SectionStateStore) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// hasMore is true while the search is running or while merged flights
// remain beyond the reveal cursor.
func refreshHasMore(sec *entity.Section) {
	sec.HasMore = !sec.IsComplete || len(sec.Flights) > sec.VisibleCount
}
