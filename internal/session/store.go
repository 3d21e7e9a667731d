package session

import (
	"container/list"
	"sync"
	"time"

	applog "journal/internal/log"
)

// Store is an in-memory session table with LRU eviction and a sliding TTL.
type Store struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time

	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
}

type entry struct {
	id        string
	state     State
	expiresAt time.Time
}

// NewStore creates a store holding at most maxSize sessions, each expiring ttl
// after its last use.
func NewStore(maxSize int, ttl time.Duration) *Store {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
	}
}

// Get returns the state for id. A missing or expired session yields a fresh
// state and ok=false.
func (s *Store) Get(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[id]
	if !exists {
		return newState(), false
	}
	e := elem.Value.(*entry)
	if s.now().After(e.expiresAt) {
		s.removeElement(elem)
		return newState(), false
	}
	e.expiresAt = s.now().Add(s.ttl)
	s.lru.MoveToFront(elem)
	return e.state, true
}

// Put stores state for id and refreshes its expiry.
func (s *Store) Put(id string, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires := s.now().Add(s.ttl)
	if elem, exists := s.items[id]; exists {
		e := elem.Value.(*entry)
		e.state = state
		e.expiresAt = expires
		s.lru.MoveToFront(elem)
		return
	}

	elem := s.lru.PushFront(&entry{id: id, state: state, expiresAt: expires})
	s.items[id] = elem

	if s.lru.Len() > s.maxSize {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
}

// TakeFlash returns and clears the flash message of id.
func (s *Store) TakeFlash(id string) *Flash {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, exists := s.items[id]
	if !exists {
		return nil
	}
	e := elem.Value.(*entry)
	f := e.state.Flash
	e.state.Flash = nil
	return f
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, exists := s.items[id]; exists {
		s.removeElement(elem)
	}
}

func (s *Store) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(s.items, e.id)
	s.lru.Remove(elem)
}

// CleanExpired removes all expired sessions and returns how many were dropped.
func (s *Store) CleanExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var toRemove []*list.Element
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		s.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the number of live sessions.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// StartCleanup sweeps expired sessions every interval until Stop is called.
func (s *Store) StartCleanup(interval time.Duration) {
	s.stopCleanup = make(chan struct{})
	s.cleanupDone = make(chan struct{})
	go s.cleanup(interval)
}

func (s *Store) cleanup(interval time.Duration) {
	defer close(s.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.CleanExpired(); n > 0 {
				applog.Default(applog.ComponentSession).Debug("Session cleanup completed", "sessions_removed", n)
			}
		case <-s.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine, if running.
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		if s.stopCleanup != nil {
			close(s.stopCleanup)
			<-s.cleanupDone
		}
	})
}
