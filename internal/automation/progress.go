package automation

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStore is the process-wide progress registry.
var DefaultStore = NewStore()

// Store tracks the lifecycle of every automation for UI consumption. It is
// pure in-memory state: a single writer (the orchestrator) mutates it and
// arbitrarily many subscribers re-pull snapshots on notification.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*Progress
	order     []string // creation order of entry ids
	listeners map[int]func()
	nextID    int
}

// NewStore creates an empty progress store.
func NewStore() *Store {
	return &Store{
		entries:   make(map[string]*Progress),
		listeners: make(map[int]func()),
	}
}

// Start registers a new automation in running state and returns its id.
// The id is freshly generated and never collides with an existing entry.
func (s *Store) Start(typ Type, cfg Config) string {
	s.mu.Lock()
	id := uuid.NewString()
	for s.entries[id] != nil {
		id = uuid.NewString()
	}
	cfg.ID = id
	s.entries[id] = &Progress{
		ID:        id,
		Type:      typ,
		Config:    cfg,
		Status:    StatusRunning,
		StartTime: time.Now(),
	}
	s.order = append(s.order, id)
	s.mu.Unlock()

	s.notify()
	return id
}

// Update merges run/prompt indices into an entry. Unknown ids and terminal
// entries are ignored, and indices never move backwards: the orchestrator
// calls this from inside its run loop and a bad id must not abort it.
func (s *Store) Update(id string, runIndex, promptIndex int) {
	s.mu.Lock()
	p, ok := s.entries[id]
	if !ok || p.Terminal() {
		s.mu.Unlock()
		return
	}
	if runIndex > p.CurrentRunIndex {
		p.CurrentRunIndex = runIndex
		p.CurrentPromptIndex = 0
	}
	if promptIndex > p.CurrentPromptIndex {
		p.CurrentPromptIndex = promptIndex
	}
	s.mu.Unlock()

	s.notify()
}

// Complete finalizes an entry: status error when errMsg is non-empty,
// completed otherwise. Calling it again on a terminal entry is a no-op, so
// a terminal status never reverts.
func (s *Store) Complete(id, errMsg string) {
	s.mu.Lock()
	p, ok := s.entries[id]
	if !ok || p.Terminal() {
		s.mu.Unlock()
		return
	}
	if errMsg != "" {
		p.Status = StatusError
		p.Error = errMsg
	} else {
		p.Status = StatusCompleted
	}
	now := time.Now()
	p.EndTime = &now
	s.mu.Unlock()

	s.notify()
}

// List returns a snapshot of all entries, most recent automation first.
func (s *Store) List() []Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Progress, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if p, ok := s.entries[s.order[i]]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// Get returns one entry by id.
func (s *Store) Get(id string) (Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[id]
	if !ok {
		return Progress{}, false
	}
	return *p, true
}

// Remove deletes one entry regardless of status.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	if ok {
		s.compactOrder()
	}
	s.mu.Unlock()

	if ok {
		s.notify()
	}
}

// ClearCompleted deletes every terminal entry; running entries survive.
func (s *Store) ClearCompleted() {
	s.mu.Lock()
	removed := false
	for id, p := range s.entries {
		if p.Terminal() {
			delete(s.entries, id)
			removed = true
		}
	}
	if removed {
		s.compactOrder()
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// compactOrder drops ids of deleted entries so the creation-order slice
// does not grow without bound on a long-lived server. Caller holds s.mu.
func (s *Store) compactOrder() {
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.entries[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

// Subscribe registers a listener invoked after every mutation. Listeners
// carry no payload; they re-pull state via List. The returned function
// removes exactly this registration and is safe to call more than once.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify fans out to a snapshot of the listener set, taken under the lock
// so a listener that unsubscribes mid-notification cannot corrupt the
// iteration. A panicking listener must not starve the others.
func (s *Store) notify() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids) // registration order
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[automation] progress listener panic: %v", r)
				}
			}()
			fn()
		}()
	}
}
