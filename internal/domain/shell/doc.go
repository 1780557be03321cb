// Package shell implements the desktop shell: the catalogue of installed
// apps and the set of open window instances.
//
// The manager owns all window state behind a single lock. Stacking order
// is a monotonically increasing counter; the non-minimized window with the
// highest order is the active window. Operations addressed at unknown ids
// are no-ops rather than errors, matching the forgiving behavior a UI
// shell needs.
package shell
