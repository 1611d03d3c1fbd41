package auth

import (
	"sync"

	"github.com/d60-Lab/feedcore/internal/model"
)

// Snapshot is what subscribers receive on every auth change. Profile
// is only meaningful when SignedIn is true.
type Snapshot struct {
	SignedIn bool
	Profile  model.Profile
}

// State holds the current session and fans out a snapshot copy to
// every subscriber on each change. Channels are buffered with size 1
// and coalesce: a slow subscriber sees the latest state, never a
// backlog.
type State struct {
	mu      sync.Mutex
	current Snapshot
	subs    map[chan Snapshot]struct{}
}

func NewState() *State {
	return &State{subs: make(map[chan Snapshot]struct{})}
}

// Subscribe registers a listener. The channel immediately carries the
// current snapshot. Cancel removes the listener and closes the channel.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	ch <- s.current
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Current returns the latest snapshot.
func (s *State) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *State) SetSignedIn(p model.Profile) {
	s.mu.Lock()
	s.current = Snapshot{SignedIn: true, Profile: p}
	s.broadcast()
	s.mu.Unlock()
}

func (s *State) SetSignedOut() {
	s.mu.Lock()
	s.current = Snapshot{}
	s.broadcast()
	s.mu.Unlock()
}

// Merge applies partial profile fields to the current session if it
// belongs to userID, then notifies subscribers.
func (s *State) Merge(userID string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current.SignedIn || s.current.Profile.ID != userID {
		return
	}
	p := &s.current.Profile
	for k, v := range fields {
		str, _ := v.(string)
		switch k {
		case "displayName":
			p.DisplayName = str
		case "bio":
			p.Bio = str
		case "photoURL":
			p.PhotoURL = str
		case "bannerURL":
			p.BannerURL = str
		}
	}
	s.broadcast()
}

// broadcast requires s.mu held.
func (s *State) broadcast() {
	for ch := range s.subs {
		select {
		case ch <- s.current:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- s.current
		}
	}
}
