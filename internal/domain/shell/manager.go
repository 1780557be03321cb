package shell

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

const (
	// Fallback window size when a descriptor declares no defaults.
	defaultWidth  = 900
	defaultHeight = 600

	// Successive launches cascade down-right from this origin.
	cascadeBaseX = 48
	cascadeBaseY = 48
	cascadeStep  = 24
)

// Manager orchestrates the app catalogue and open windows.
type Manager struct {
	mu       sync.RWMutex
	catalog  map[string]types.AppDescriptor // Protected by mu
	windows  map[string]*types.Window       // Protected by mu
	activeID *string                        // Protected by mu
	zCounter int64                          // Protected by mu
}

// NewManager creates a new shell manager.
func NewManager() *Manager {
	return &Manager{
		catalog: make(map[string]types.AppDescriptor),
		windows: make(map[string]*types.Window),
	}
}

// RegisterApp adds a descriptor to the catalogue. Duplicate registration
// is an idempotent no-op; the first descriptor wins.
func (m *Manager) RegisterApp(desc types.AppDescriptor) {
	if desc.ID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.catalog[desc.ID]; exists {
		return
	}
	m.catalog[desc.ID] = desc
}

// Apps returns the catalogue sorted by id.
func (m *Manager) Apps() []types.AppDescriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apps := make([]types.AppDescriptor, 0, len(m.catalog))
	for _, desc := range m.catalog {
		apps = append(apps, desc)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].ID < apps[j].ID })
	return apps
}

// Launch opens a new window for an installed app. Unknown app ids fail
// silently and return nil. The new window becomes active.
func (m *Manager) Launch(appID string) *types.Window {
	m.mu.Lock()
	defer m.mu.Unlock()

	desc, ok := m.catalog[appID]
	if !ok {
		return nil
	}

	width, height := desc.DefaultWidth, desc.DefaultHeight
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	offset := cascadeStep * len(m.windows)
	m.zCounter++

	win := &types.Window{
		ID:       appID + "-" + uuid.New().String(),
		AppID:    appID,
		Title:    desc.Title,
		Z:        m.zCounter,
		X:        cascadeBaseX + offset,
		Y:        cascadeBaseY + offset,
		Width:    width,
		Height:   height,
		OpenedAt: time.Now(),
	}

	m.windows[win.ID] = win
	m.activeID = &win.ID

	winCopy := *win
	return &winCopy
}

// Get retrieves a window by id.
func (m *Manager) Get(id string) (*types.Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	win, ok := m.windows[id]
	if !ok {
		return nil, false
	}

	// Return a copy to prevent external modifications
	winCopy := *win
	return &winCopy, true
}

// List returns all open windows ordered back-to-front by stacking order.
func (m *Manager) List() []types.Window {
	m.mu.RLock()
	defer m.mu.RUnlock()

	windows := make([]types.Window, 0, len(m.windows))
	for _, win := range m.windows {
		windows = append(windows, *win)
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Z < windows[j].Z })
	return windows
}

// ActiveID returns the active window id, or empty string when none.
func (m *Manager) ActiveID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeID == nil {
		return ""
	}
	return *m.activeID
}

// Close removes a window. Closing an unknown id is a no-op. If the closed
// window was active, no other window is auto-focused; callers wanting that
// behavior must call Focus explicitly.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.windows[id]; !ok {
		return
	}
	delete(m.windows, id)

	if m.activeID != nil && *m.activeID == id {
		m.activeID = nil
	}
}

// Minimize toggles a window's minimized flag. A minimized window keeps its
// stacking order but cannot be active.
func (m *Manager) Minimize(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[id]
	if !ok {
		return
	}

	win.Minimized = !win.Minimized
	if win.Minimized && m.activeID != nil && *m.activeID == id {
		m.activeID = nil
	}
}

// Maximize toggles a window's maximized flag. Regardless of toggle
// direction the window is raised to the front and made active.
func (m *Manager) Maximize(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[id]
	if !ok {
		return
	}

	win.Maximized = !win.Maximized
	win.Minimized = false
	m.zCounter++
	win.Z = m.zCounter
	m.activeID = &win.ID
}

// Focus raises a window to the front and makes it active, clearing its
// minimized flag. Focusing the already-active window is a no-op.
func (m *Manager) Focus(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	win, ok := m.windows[id]
	if !ok {
		return
	}
	if m.activeID != nil && *m.activeID == id {
		return
	}

	win.Minimized = false
	m.zCounter++
	win.Z = m.zCounter
	m.activeID = &win.ID
}

// Move replaces a window's position. No clamping against screen bounds is
// performed; any coordinates are accepted.
func (m *Manager) Move(id string, x, y int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if win, ok := m.windows[id]; ok {
		win.X = x
		win.Y = y
	}
}

// Resize replaces a window's size.
func (m *Manager) Resize(id string, width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if win, ok := m.windows[id]; ok {
		win.Width = width
		win.Height = height
	}
}

// Workspace captures all open windows and the active id for session
// persistence.
func (m *Manager) Workspace() types.Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws := types.Workspace{Windows: make([]types.Window, 0, len(m.windows))}
	for _, win := range m.windows {
		ws.Windows = append(ws.Windows, *win)
	}
	sort.Slice(ws.Windows, func(i, j int) bool { return ws.Windows[i].Z < ws.Windows[j].Z })

	if m.activeID != nil {
		id := *m.activeID
		ws.ActiveWindowID = &id
	}
	return ws
}

// Restore replaces all open windows with the given workspace. Windows whose
// app is no longer in the catalogue are skipped. Stacking order is rebuilt
// from the snapshot's relative order; ids are minted fresh.
func (m *Manager) Restore(ws types.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windows = make(map[string]*types.Window)
	m.activeID = nil

	ordered := make([]types.Window, len(ws.Windows))
	copy(ordered, ws.Windows)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Z < ordered[j].Z })

	var activeNew *string
	for _, snap := range ordered {
		if _, ok := m.catalog[snap.AppID]; !ok {
			continue
		}

		m.zCounter++
		win := snap
		win.ID = snap.AppID + "-" + uuid.New().String()
		win.Z = m.zCounter
		win.OpenedAt = time.Now()
		m.windows[win.ID] = &win

		if ws.ActiveWindowID != nil && *ws.ActiveWindowID == snap.ID {
			id := win.ID
			activeNew = &id
		}
	}
	m.activeID = activeNew
}

// Stats returns shell statistics.
func (m *Manager) Stats() types.ShellStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var minimized int
	for _, win := range m.windows {
		if win.Minimized {
			minimized++
		}
	}

	stats := types.ShellStats{
		RegisteredApps: len(m.catalog),
		OpenWindows:    len(m.windows),
		Minimized:      minimized,
	}
	if m.activeID != nil {
		id := *m.activeID
		stats.ActiveWindowID = &id
	}
	return stats
}
