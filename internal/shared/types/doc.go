// Package types provides shared data structures for the opsdeck backend.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Shell Types:
//   - AppDescriptor: Installed application entry in the shell catalogue
//   - Window: Open window instance with geometry and stacking order
//   - ShellStats: Shell manager statistics
//
// Domain Types:
//   - Flight, Passenger, Voucher, Complaint, Email: Operational records
//   - LogEntry: Bounded audit log entry
//   - Snapshot: Deep copy of every domain collection
//
// Replication Types:
//   - Change: Inbound change notification from the remote store
//   - Session, Workspace: Saved window layouts
package types
