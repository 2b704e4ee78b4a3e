package ingestion

import (
	"sync"

	"wtr-service/pkg/common"
)

// IdentityTracker holds the signed-in owner of this device.
type IdentityTracker struct {
	logger common.Logger

	mu        sync.RWMutex
	ownerID   string
	onSignIn  []func(ownerID string)
	onSignOut []func()
}

// NewIdentityTracker creates a tracker with nobody signed in.
func NewIdentityTracker(logger common.Logger) *IdentityTracker {
	return &IdentityTracker{logger: logger}
}

// OnSignIn registers fn for every time an identity becomes available.
func (t *IdentityTracker) OnSignIn(fn func(ownerID string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSignIn = append(t.onSignIn, fn)
}

// OnSignOut registers fn for sign-outs.
func (t *IdentityTracker) OnSignOut(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSignOut = append(t.onSignOut, fn)
}

// OwnerID returns the signed-in owner.
func (t *IdentityTracker) OwnerID() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ownerID, t.ownerID != ""
}

// SignIn sets the owner. Listeners fire only when the owner changes.
func (t *IdentityTracker) SignIn(ownerID string) {
	if ownerID == "" {
		return
	}
	t.mu.Lock()
	changed := t.ownerID != ownerID
	t.ownerID = ownerID
	listeners := t.onSignIn
	t.mu.Unlock()

	if !changed {
		return
	}
	t.logger.Info("Signed in as %s", ownerID)
	for _, fn := range listeners {
		fn(ownerID)
	}
}

// SignOut clears the owner.
func (t *IdentityTracker) SignOut() {
	t.mu.Lock()
	was := t.ownerID
	t.ownerID = ""
	listeners := t.onSignOut
	t.mu.Unlock()

	if was == "" {
		return
	}
	t.logger.Info("Signed out %s", was)
	for _, fn := range listeners {
		fn()
	}
}
