package app

import (
	"path/filepath"
	"sync"

	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/rpc"
)

// StateOwner is the single source of truth for where the explorer is: the
// library's locations, the navigation history and the listing request
// generation. Explorer view state lives in explorer.View; this owns the rest.
//
// All mutations go through StateOwner methods which hold the mutex.
// UI reads via GetSnapshot() which returns an immutable view.
type StateOwner struct {
	mu sync.RWMutex

	locations []rpc.Location
	nav       *Navigator

	// gen invalidates listing responses that started before a newer request
	gen uint64

	invalidate func()
}

// NavSnapshot is an immutable view of navigation state for the UI to render.
type NavSnapshot struct {
	Locations  []rpc.Location
	LocationID int
	Path       string
	CanBack    bool
	CanForward bool
}

// NewStateOwner creates a new state owner
func NewStateOwner(invalidate func()) *StateOwner {
	return &StateOwner{
		nav:        NewNavigator(),
		invalidate: invalidate,
	}
}

// GetSnapshot returns an immutable snapshot for UI rendering
func (s *StateOwner) GetSnapshot() NavSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locations := make([]rpc.Location, len(s.locations))
	copy(locations, s.locations)

	snap := NavSnapshot{Locations: locations, CanBack: s.nav.CanBack(), CanForward: s.nav.CanForward()}
	if cur, ok := s.nav.Current(); ok {
		snap.LocationID, snap.Path = cur.LocationID, cur.Path
	}
	return snap
}

// SetLocations replaces the location list.
func (s *StateOwner) SetLocations(locs []rpc.Location) {
	s.mu.Lock()
	s.locations = append([]rpc.Location(nil), locs...)
	s.mu.Unlock()
	s.notify()
}

// Location looks up a location by id.
func (s *StateOwner) Location(id int) (rpc.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.locations {
		if l.ID == id {
			return l, true
		}
	}
	return rpc.Location{}, false
}

// Navigate records t in history and returns the generation its listing
// request must carry.
func (s *StateOwner) Navigate(t Target) uint64 {
	s.mu.Lock()
	s.nav.Navigate(t)
	s.gen++
	gen := s.gen
	s.mu.Unlock()
	debug.Log(debug.APP, "navigate: location=%d path=%q gen=%d", t.LocationID, t.Path, gen)
	s.notify()
	return gen
}

// Back moves to the parent directory.
func (s *StateOwner) Back() (Target, uint64, bool) {
	s.mu.Lock()
	t, ok := s.nav.GoBack()
	if ok {
		s.gen++
	}
	gen := s.gen
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return t, gen, ok
}

// Forward moves forward in history.
func (s *StateOwner) Forward() (Target, uint64, bool) {
	s.mu.Lock()
	t, ok := s.nav.GoForward()
	if ok {
		s.gen++
	}
	gen := s.gen
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return t, gen, ok
}

// Refresh starts a new request for the current directory without touching
// history.
func (s *StateOwner) Refresh() (Target, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.nav.Current()
	if ok {
		s.gen++
	}
	return t, s.gen, ok
}

// IsCurrent reports whether a response for gen is still wanted.
func (s *StateOwner) IsCurrent(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen == s.gen
}

// AbsPath maps a location-relative path to the host filesystem.
func (s *StateOwner) AbsPath(locationID int, rel string) (string, bool) {
	loc, ok := s.Location(locationID)
	if !ok || loc.Path == "" {
		return "", false
	}
	return filepath.Join(loc.Path, filepath.FromSlash(cleanRel(rel))), true
}

func (s *StateOwner) notify() {
	if s.invalidate != nil {
		s.invalidate()
	}
}
