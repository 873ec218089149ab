package vehicle

import (
	"sync"

	"github.com/caarlos0/pilotdash"
)

// State is the last arm status and GPS fix reported by the flight
// controller.
type State struct {
	mu     sync.RWMutex
	armed  bool
	gps    pilotdash.Position
	hasFix bool
}

func (s *State) Status() pilotdash.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pilotdash.Status{Armed: s.armed}
}

// Position returns the last fix and whether there was any.
func (s *State) Position() (pilotdash.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gps, s.hasFix
}

// SetArmed reports whether the value changed.
func (s *State) SetArmed(armed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.armed != armed
	s.armed = armed
	return changed
}

func (s *State) SetPosition(pos pilotdash.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gps = pos
	s.hasFix = true
}
