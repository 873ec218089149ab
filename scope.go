package pilotdash

import (
	"sync"
	"sync/atomic"
)

// Scope serializes every view state mutation and flushes watchers after
// each one, so renderers always observe state changed by async callbacks.
//
// All poll loops and channel callbacks of a dashboard share one Scope.
type Scope struct {
	mu       sync.RWMutex
	wmu      sync.Mutex
	watchers []func()
	digests  atomic.Uint64
}

func NewScope() *Scope {
	return &Scope{}
}

// Apply runs fn with exclusive access to view state, then calls every
// watcher once. Watchers run outside the state lock and may call Read.
// fn must not call Apply or Read, nor view getters built on them.
func (s *Scope) Apply(fn func()) {
	s.apply(fn)
	s.digest()
}

func (s *Scope) apply(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// Read runs fn with shared access to view state.
func (s *Scope) Read(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// Watch registers fn to be called after every Apply.
func (s *Scope) Watch(fn func()) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Digests returns how many flushes happened so far.
func (s *Scope) Digests() uint64 {
	return s.digests.Load()
}

func (s *Scope) digest() {
	s.digests.Add(1)
	s.wmu.Lock()
	watchers := make([]func(), len(s.watchers))
	copy(watchers, s.watchers)
	s.wmu.Unlock()
	for _, w := range watchers {
		w()
	}
}
