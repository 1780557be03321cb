package types

import "time"

// AppDescriptor is one installed app in the shell catalogue.
// Descriptors are registered once at startup and immutable thereafter.
type AppDescriptor struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Icon          string `json:"icon"`
	Component     string `json:"component"` // Opaque renderable unit, resolved by the frontend
	DefaultWidth  int    `json:"default_width,omitempty"`
	DefaultHeight int    `json:"default_height,omitempty"`
	Category      string `json:"category,omitempty"`
}

// Window represents one open window instance.
type Window struct {
	ID        string    `json:"id"`
	AppID     string    `json:"app_id"`
	Title     string    `json:"title"`
	Minimized bool      `json:"minimized"`
	Maximized bool      `json:"maximized"`
	Z         int64     `json:"z"` // Stacking order, unique, monotonically increasing
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	OpenedAt  time.Time `json:"opened_at"`
}

// ShellStats contains shell manager statistics.
type ShellStats struct {
	RegisteredApps int     `json:"registered_apps"`
	OpenWindows    int     `json:"open_windows"`
	Minimized      int     `json:"minimized"`
	ActiveWindowID *string `json:"active_window_id,omitempty"`
}

// Workspace captures the full window layout for session persistence.
type Workspace struct {
	Windows        []Window `json:"windows"`
	ActiveWindowID *string  `json:"active_window_id,omitempty"`
}

// Session is a named, persisted workspace snapshot.
type Session struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Workspace   Workspace `json:"workspace"`
}
