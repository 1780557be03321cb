package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/skyharbor-io/opsdeck/internal/domain/shell"
	"github.com/skyharbor-io/opsdeck/internal/shared/types"
	"github.com/skyharbor-io/opsdeck/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *shell.Manager) {
	t.Helper()
	kv, err := storage.NewKV(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	sh := shell.NewManager()
	sh.RegisterApp(types.AppDescriptor{ID: "checkin", Title: "Check-In Desk"})
	sh.RegisterApp(types.AppDescriptor{ID: "boarding", Title: "Boarding Control"})
	return NewManager(sh, kv), sh
}

func TestSaveAndRestore(t *testing.T) {
	mgr, sh := newTestManager(t)

	w1 := sh.Launch("checkin")
	sh.Launch("boarding")
	sh.Focus(w1.ID)

	saved, err := mgr.Save("shift-change", "handing over to night shift")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Name != "shift-change" {
		t.Errorf("name = %q", saved.Name)
	}

	// Mutate the workspace, then restore the snapshot.
	sh.Launch("checkin")
	if len(sh.List()) != 3 {
		t.Fatalf("expected 3 windows before restore")
	}

	ok, err := mgr.Restore(saved.ID)
	if err != nil || !ok {
		t.Fatalf("restore: ok=%v err=%v", ok, err)
	}
	wins := sh.List()
	if len(wins) != 2 {
		t.Fatalf("expected 2 windows after restore, got %d", len(wins))
	}
}

func TestRestoreUnknownSession(t *testing.T) {
	mgr, _ := newTestManager(t)
	ok, err := mgr.Restore("session-nope")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ok {
		t.Error("expected restore of unknown session to report false")
	}
}

func TestListNewestFirst(t *testing.T) {
	mgr, sh := newTestManager(t)
	sh.Launch("checkin")

	first, err := mgr.Save("first", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := mgr.Save("second", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	sessions, err := mgr.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Errorf("expected newest first, got %s then %s", sessions[0].ID, sessions[1].ID)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	mgr, sh := newTestManager(t)
	sh.Launch("checkin")

	saved, err := mgr.Save("temp", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mgr.Delete(saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := mgr.Delete(saved.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	got, err := mgr.Get(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected session gone after delete")
	}
}

func TestSavedSessionSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	kv, err := storage.NewKV(dir)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	sh := shell.NewManager()
	sh.RegisterApp(types.AppDescriptor{ID: "checkin", Title: "Check-In Desk"})
	sh.Launch("checkin")

	saved, err := NewManager(sh, kv).Save("persisted", "")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	kv2, err := storage.NewKV(dir)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	mgr2 := NewManager(sh, kv2)
	got, err := mgr2.Get(saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Name != "persisted" {
		t.Fatalf("expected persisted session after reopen, got %+v", got)
	}
}
