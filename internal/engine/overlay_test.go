package engine

import (
	"testing"

	"github.com/rtwworks/platform/internal/casefile"
	"github.com/rtwworks/platform/internal/shared/types"
)

func TestOverlayApply(t *testing.T) {
	readID := types.NewID()
	goneID := types.NewID()
	plainID := types.NewID()

	o := NewOverlay()
	o.MarkRead(readID)
	o.Dismiss(goneID)

	ns := []Notification{{ID: readID}, {ID: goneID}, {ID: plainID}}
	got := o.Apply(ns)

	if len(got) != 2 {
		t.Fatalf("Expected 2 notifications after dismissal, got %d", len(got))
	}
	if got[0].ID != readID || !got[0].Read {
		t.Errorf("Expected %s marked read, got %+v", readID, got[0])
	}
	if got[1].ID != plainID || got[1].Read {
		t.Errorf("Expected %s untouched, got %+v", plainID, got[1])
	}
	if ns[0].Read {
		t.Error("Expected the input slice left unmodified")
	}
}

// Read and dismissed state must survive re-derivation because notification
// identity is deterministic.
func TestOverlaySurvivesRederivation(t *testing.T) {
	c := compliantCase()
	c.ReviewDates = []string{isoDaysFromNow(-8), isoDaysFromNow(-2)}
	cases := []casefile.Case{*c}
	user := testUser()

	first, _ := DeriveNotifications(cases, user, testNow)
	if len(first) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(first))
	}

	o := NewOverlay()
	o.MarkRead(first[0].ID)
	o.Dismiss(first[1].ID)

	second, _ := DeriveNotifications(cases, user, testNow)
	merged := o.Apply(second)

	if len(merged) != 1 {
		t.Fatalf("Expected the dismissed notification filtered out, got %d", len(merged))
	}
	if merged[0].ID != first[0].ID || !merged[0].Read {
		t.Errorf("Expected %s still read after re-derivation, got %+v", first[0].ID, merged[0])
	}
}

func TestOverlayStorePerUser(t *testing.T) {
	store := NewOverlayStore()
	alice := types.NewID()
	bob := types.NewID()
	id := types.NewID()

	store.For(alice).Dismiss(id)

	ns := []Notification{{ID: id}}
	if got := store.For(alice).Apply(ns); len(got) != 0 {
		t.Errorf("Expected dismissal visible to the same user, got %d notifications", len(got))
	}
	if got := store.For(bob).Apply(ns); len(got) != 1 {
		t.Errorf("Expected another user's overlay unaffected, got %d notifications", len(got))
	}
}
