package engine

import (
	"sync"

	"github.com/rtwworks/platform/internal/shared/types"
)

// Overlay holds one user's read and dismissed notification IDs. Derivation
// output is pure and stateless; the overlay is merged in afterwards so that
// re-deriving never resets what the user has already acted on. Notification
// IDs are deterministic, which is what lets state recorded against a past
// pass apply to the next one.
type Overlay struct {
	mu        sync.Mutex
	read      map[types.ID]struct{}
	dismissed map[types.ID]struct{}
}

func NewOverlay() *Overlay {
	return &Overlay{
		read:      make(map[types.ID]struct{}),
		dismissed: make(map[types.ID]struct{}),
	}
}

// MarkRead records a notification as read. Marking an ID that no current
// derivation produces is harmless.
func (o *Overlay) MarkRead(id types.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.read[id] = struct{}{}
}

// Dismiss hides a notification from future derivation output.
func (o *Overlay) Dismiss(id types.ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dismissed[id] = struct{}{}
}

// Apply filters dismissed notifications out of ns and sets the Read bit on
// the rest, preserving order. ns is not modified.
func (o *Overlay) Apply(ns []Notification) []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		if _, gone := o.dismissed[n.ID]; gone {
			continue
		}
		if _, read := o.read[n.ID]; read {
			n.Read = true
		}
		out = append(out, n)
	}
	return out
}

// OverlayStore hands out per-user overlays, creating them on first use.
type OverlayStore struct {
	mu     sync.Mutex
	byUser map[types.ID]*Overlay
}

func NewOverlayStore() *OverlayStore {
	return &OverlayStore{byUser: make(map[types.ID]*Overlay)}
}

// For returns the overlay for userID, creating an empty one if needed.
func (s *OverlayStore) For(userID types.ID) *Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byUser[userID]
	if !ok {
		o = NewOverlay()
		s.byUser[userID] = o
	}
	return o
}
