// Package replication keeps the local domain state reconciled with a
// remote row-oriented store.
//
// The model is local-first: mutations are already applied to the store
// before this layer sees them. A capacity-1 trigger coalesces bursts of
// mutations into full-snapshot pushes; each record is upserted
// independently in small batches so one bad row never aborts its
// siblings. There is no retry policy on a failed push; the next mutation's
// trigger is the de facto retry.
//
// While a push is in flight (and for a short grace lag afterwards) a
// process-wide sync flag is held. Inbound change notifications arriving
// with the flag set are discarded as echoes of this device's own writes.
// A slower polling path reloads the full remote dataset on an interval and
// applies whatever differs by deep equality, covering silent feed failures.
//
// Initial connect failure degrades the layer to local-only mode: the
// readiness flag stays false and no sync is ever attempted, without
// surfacing errors to callers.
package replication
