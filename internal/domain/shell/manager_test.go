package shell

import (
	"testing"

	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

func newTestManager() *Manager {
	m := NewManager()
	m.RegisterApp(types.AppDescriptor{ID: "checkin", Title: "Check-In", Component: "CheckInApp", DefaultWidth: 1024, DefaultHeight: 720})
	m.RegisterApp(types.AppDescriptor{ID: "boarding", Title: "Boarding", Component: "BoardingApp"})
	return m
}

func TestRegisterAppDuplicate(t *testing.T) {
	m := newTestManager()
	m.RegisterApp(types.AppDescriptor{ID: "checkin", Title: "Imposter"})

	apps := m.Apps()
	if len(apps) != 2 {
		t.Fatalf("Expected 2 apps, got %d", len(apps))
	}
	for _, a := range apps {
		if a.ID == "checkin" && a.Title != "Check-In" {
			t.Errorf("Duplicate registration replaced descriptor: %q", a.Title)
		}
	}
}

func TestLaunchUnknownApp(t *testing.T) {
	m := newTestManager()

	if win := m.Launch("nonexistent"); win != nil {
		t.Fatalf("Launch of unknown app should return nil, got %+v", win)
	}
	if got := len(m.List()); got != 0 {
		t.Errorf("Expected no windows, got %d", got)
	}
}

func TestLaunchCascadeAndDefaults(t *testing.T) {
	m := newTestManager()

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		win := m.Launch("checkin")
		if win == nil {
			t.Fatal("Launch failed")
		}
		if seen[win.ID] {
			t.Errorf("Window id %q reused", win.ID)
		}
		seen[win.ID] = true

		if win.Width != 1024 || win.Height != 720 {
			t.Errorf("Expected declared default size 1024x720, got %dx%d", win.Width, win.Height)
		}
		if want := cascadeBaseX + cascadeStep*i; win.X != want {
			t.Errorf("Window %d: expected x=%d, got %d", i, want, win.X)
		}
	}

	// Undeclared defaults fall back to the constant
	win := m.Launch("boarding")
	if win.Width != defaultWidth || win.Height != defaultHeight {
		t.Errorf("Expected fallback size %dx%d, got %dx%d", defaultWidth, defaultHeight, win.Width, win.Height)
	}
}

// The active window's stacking order must stay strictly above every other
// non-minimized window through any launch/focus/maximize sequence.
func TestStackingMonotonicity(t *testing.T) {
	m := newTestManager()

	assertActiveOnTop := func(step string) {
		t.Helper()
		active := m.ActiveID()
		if active == "" {
			t.Fatalf("%s: no active window", step)
		}
		top, _ := m.Get(active)
		for _, win := range m.List() {
			if win.ID != active && !win.Minimized && win.Z >= top.Z {
				t.Errorf("%s: window %s (z=%d) not below active (z=%d)", step, win.ID, win.Z, top.Z)
			}
		}
	}

	a := m.Launch("checkin")
	assertActiveOnTop("launch a")
	b := m.Launch("boarding")
	assertActiveOnTop("launch b")
	c := m.Launch("checkin")
	assertActiveOnTop("launch c")

	m.Focus(a.ID)
	assertActiveOnTop("focus a")
	m.Maximize(b.ID)
	assertActiveOnTop("maximize b")
	m.Maximize(b.ID) // un-maximize still raises
	assertActiveOnTop("unmaximize b")
	m.Focus(c.ID)
	assertActiveOnTop("focus c")
}

func TestFocusAlreadyActiveIsNoop(t *testing.T) {
	m := newTestManager()
	win := m.Launch("checkin")

	before, _ := m.Get(win.ID)
	m.Focus(win.ID)
	after, _ := m.Get(win.ID)

	if before.Z != after.Z {
		t.Errorf("Focusing the active window changed z: %d -> %d", before.Z, after.Z)
	}
}

func TestCloseIdempotence(t *testing.T) {
	m := newTestManager()
	a := m.Launch("checkin")
	b := m.Launch("boarding")

	// Closing a background window leaves the active window alone
	m.Close(a.ID)
	if m.ActiveID() != b.ID {
		t.Errorf("Expected active %s, got %s", b.ID, m.ActiveID())
	}

	// Closing again, or closing garbage, is a no-op
	m.Close(a.ID)
	m.Close("never-existed")
	if m.ActiveID() != b.ID {
		t.Error("No-op close changed the active window")
	}
	if got := len(m.List()); got != 1 {
		t.Errorf("Expected 1 window, got %d", got)
	}

	// Closing the active window empties the active reference
	m.Close(b.ID)
	if m.ActiveID() != "" {
		t.Errorf("Expected no active window, got %s", m.ActiveID())
	}
}

func TestMinimizeFocusRoundTrip(t *testing.T) {
	m := newTestManager()
	a := m.Launch("checkin")
	m.Launch("boarding")

	m.Minimize(a.ID)
	win, _ := m.Get(a.ID)
	if !win.Minimized {
		t.Fatal("Expected window minimized")
	}
	if m.ActiveID() == a.ID {
		t.Error("Minimized window must not be active")
	}

	// Intervening operations on other windows
	other := m.Launch("boarding")
	m.Maximize(other.ID)

	m.Focus(a.ID)
	win, _ = m.Get(a.ID)
	if win.Minimized {
		t.Error("Focus should clear the minimized flag")
	}
	if m.ActiveID() != a.ID {
		t.Errorf("Expected %s active after focus, got %s", a.ID, m.ActiveID())
	}
}

func TestMinimizeActiveClearsActive(t *testing.T) {
	m := newTestManager()
	a := m.Launch("checkin")

	m.Minimize(a.ID)
	if m.ActiveID() != "" {
		t.Errorf("Expected empty active id, got %s", m.ActiveID())
	}
}

func TestMoveResizeUnclamped(t *testing.T) {
	m := newTestManager()
	a := m.Launch("checkin")

	m.Move(a.ID, -500, 99999)
	m.Resize(a.ID, 1, 1)
	win, _ := m.Get(a.ID)
	if win.X != -500 || win.Y != 99999 {
		t.Errorf("Expected position (-500,99999), got (%d,%d)", win.X, win.Y)
	}
	if win.Width != 1 || win.Height != 1 {
		t.Errorf("Expected size 1x1, got %dx%d", win.Width, win.Height)
	}

	// Unknown ids are ignored
	m.Move("ghost", 0, 0)
	m.Resize("ghost", 0, 0)
}

func TestWorkspaceRestore(t *testing.T) {
	m := newTestManager()
	a := m.Launch("checkin")
	b := m.Launch("boarding")
	m.Move(a.ID, 10, 20)
	m.Minimize(b.ID)
	m.Focus(a.ID)

	ws := m.Workspace()

	m2 := newTestManager()
	m2.Restore(ws)

	windows := m2.List()
	if len(windows) != 2 {
		t.Fatalf("Expected 2 restored windows, got %d", len(windows))
	}

	var restoredA *types.Window
	for i := range windows {
		if windows[i].AppID == "checkin" {
			restoredA = &windows[i]
		}
	}
	if restoredA == nil {
		t.Fatal("check-in window not restored")
	}
	if restoredA.X != 10 || restoredA.Y != 20 {
		t.Errorf("Geometry not restored: (%d,%d)", restoredA.X, restoredA.Y)
	}
	if m2.ActiveID() != restoredA.ID {
		t.Errorf("Expected restored active %s, got %s", restoredA.ID, m2.ActiveID())
	}
}

func TestStats(t *testing.T) {
	m := newTestManager()
	m.Launch("checkin")
	b := m.Launch("boarding")
	m.Minimize(b.ID)

	stats := m.Stats()
	if stats.RegisteredApps != 2 {
		t.Errorf("Expected 2 registered apps, got %d", stats.RegisteredApps)
	}
	if stats.OpenWindows != 2 {
		t.Errorf("Expected 2 open windows, got %d", stats.OpenWindows)
	}
	if stats.Minimized != 1 {
		t.Errorf("Expected 1 minimized window, got %d", stats.Minimized)
	}
}
