// Package state owns the shared operational dataset: flights, passengers,
// the bounded audit log, vouchers, complaints and outbound emails.
//
// All collections live behind one lock and are mutated only through the
// named operations in ops.go. Every successful operation is visible to
// local readers before any network work starts; replication is triggered
// fire-and-forget afterwards and its failures never roll back local state.
//
// The replicator writes inbound remote changes back through the Apply*/
// Remove* methods, which bypass audit logging and push triggering so a
// remote change is never re-echoed outward.
package state
