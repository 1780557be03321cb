// Package session persists named workspace snapshots (the set of open
// windows, their geometry and the active window) to the local durable
// cache and restores them through the shell manager.
package session
