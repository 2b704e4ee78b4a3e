package ingestion

import (
	"testing"

	"wtr-service/pkg/common"
)

func TestIdentityTracker(t *testing.T) {
	tracker := NewIdentityTracker(common.NopLogger{})
	var signIns []string
	signOuts := 0
	tracker.OnSignIn(func(ownerID string) { signIns = append(signIns, ownerID) })
	tracker.OnSignOut(func() { signOuts++ })

	if _, ok := tracker.OwnerID(); ok {
		t.Fatal("Expected nobody signed in")
	}

	tracker.SignIn("owner-1")
	tracker.SignIn("owner-1")
	tracker.SignIn("")
	if ownerID, ok := tracker.OwnerID(); !ok || ownerID != "owner-1" {
		t.Errorf("Expected owner-1, got %q (%v)", ownerID, ok)
	}
	if len(signIns) != 1 {
		t.Errorf("Expected one sign-in notification, got %v", signIns)
	}

	tracker.SignIn("owner-2")
	if len(signIns) != 2 || signIns[1] != "owner-2" {
		t.Errorf("Expected owner switch to notify, got %v", signIns)
	}

	tracker.SignOut()
	tracker.SignOut()
	if signOuts != 1 {
		t.Errorf("Expected one sign-out notification, got %d", signOuts)
	}
	if _, ok := tracker.OwnerID(); ok {
		t.Error("Expected nobody signed in after sign-out")
	}
}
