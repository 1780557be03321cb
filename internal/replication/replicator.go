package replication

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/skyharbor-io/opsdeck/internal/infrastructure/logging"
	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

// Watched collections and their primary keys.
const (
	CollectionFlights    = "flights"
	CollectionPassengers = "passengers"
	CollectionVouchers   = "vouchers"
	CollectionComplaints = "complaints"
	CollectionEmails     = "emails"
)

type collectionSpec struct {
	name string
	pk   string
}

// The audit log is deliberately absent: it is a device-local trail and has
// no stable primary key to upsert by.
var collections = []collectionSpec{
	{CollectionFlights, "id"},
	{CollectionPassengers, "locator"},
	{CollectionVouchers, "code"},
	{CollectionComplaints, "id"},
	{CollectionEmails, "id"},
}

// Store is the local state the replicator reads snapshots from and writes
// remote changes into. Apply/Remove must not re-trigger replication.
type Store interface {
	Snapshot() types.Snapshot
	LogQuiet(message, source string, level types.Severity)

	ApplyFlight(types.Flight)
	RemoveFlight(id string)
	ApplyPassenger(types.Passenger)
	RemovePassenger(locator string)
	ApplyVoucher(types.Voucher)
	RemoveVoucher(code string)
	ApplyComplaint(types.Complaint)
	RemoveComplaint(id string)
	ApplyEmail(types.Email)
	RemoveEmail(id string)
}

// Observer receives replication lifecycle signals, e.g. for metrics.
type Observer interface {
	PushCompleted(failed int)
	SyncFlagChanged(up bool)
	InboundChange(applied bool)
	ReconcileRun(err error)
}

type nopObserver struct{}

func (nopObserver) PushCompleted(int)    {}
func (nopObserver) SyncFlagChanged(bool) {}
func (nopObserver) InboundChange(bool)   {}
func (nopObserver) ReconcileRun(error)   {}

// Options tune the replicator.
type Options struct {
	// BatchSize is how many records are pushed per batch.
	BatchSize int
	// FlagClearLag is how long the sync flag stays up after a push
	// settles, covering the remote store's notification latency.
	FlagClearLag time.Duration
}

// Replicator drives outbound snapshot pushes and applies inbound changes.
type Replicator struct {
	store      Store
	client     Client
	pollClient Client // Used by Reconcile when set
	logger     *logging.Logger
	opts       Options
	obs        Observer

	ready   atomic.Bool
	syncing atomic.Bool

	clearMu    sync.Mutex
	clearTimer *time.Timer // Protected by clearMu

	trigger chan struct{}
	stop    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewReplicator creates a replicator over the given store and client.
func NewReplicator(store Store, client Client, logger *logging.Logger, opts Options) *Replicator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 25
	}
	if opts.FlagClearLag <= 0 {
		opts.FlagClearLag = time.Second
	}
	return &Replicator{
		store:   store,
		client:  client,
		logger:  logger.Named("replication"),
		opts:    opts,
		obs:     nopObserver{},
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// WithObserver attaches a lifecycle observer. Call before Start.
func (r *Replicator) WithObserver(obs Observer) *Replicator {
	if obs != nil {
		r.obs = obs
	}
	return r
}

// WithPollClient routes reconcile reloads through a separate client. The
// poller can then retry transport errors while push traffic stays
// single-shot.
func (r *Replicator) WithPollClient(c Client) *Replicator {
	r.pollClient = c
	return r
}

// Start performs the initial remote load and, on success, marks the layer
// ready and starts the push worker. A connect failure is not an error:
// the layer degrades to local-only mode and never syncs.
func (r *Replicator) Start(ctx context.Context) {
	if err := r.initialLoad(ctx); err != nil {
		r.logger.Warn("Remote store unavailable, running local-only", zap.Error(err))
		r.store.LogQuiet("Remote store unreachable, operating offline", "sync", types.SeverityWarning)
		return
	}

	r.ready.Store(true)
	r.logger.Info("Remote store connected, replication active")

	r.wg.Add(1)
	go r.worker(ctx)
}

// Stop shuts the push worker down and releases the sync flag timer.
func (r *Replicator) Stop() {
	r.stopped.Do(func() { close(r.stop) })
	r.wg.Wait()

	r.clearMu.Lock()
	if r.clearTimer != nil {
		r.clearTimer.Stop()
		r.clearTimer = nil
	}
	r.clearMu.Unlock()
}

// Ready reports whether the initial remote load succeeded.
func (r *Replicator) Ready() bool {
	return r.ready.Load()
}

// Syncing reports whether a locally originated push is in flight or inside
// its grace lag.
func (r *Replicator) Syncing() bool {
	return r.syncing.Load()
}

// Trigger schedules an asynchronous full-state push. Triggers arriving
// while one is already pending coalesce; the caller never blocks.
func (r *Replicator) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Replicator) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-r.trigger:
			r.push(ctx)
		}
	}
}

// push upserts the full local snapshot. Each record is pushed
// independently; one failure never aborts its batch siblings, and no
// failure ever propagates to the mutation that triggered the push.
func (r *Replicator) push(ctx context.Context) {
	r.beginSync()
	defer r.endSync()

	snap := r.store.Snapshot()
	var failed int

	for _, spec := range collections {
		rows, err := snapshotRows(snap, spec.name)
		if err != nil {
			r.logger.Error("Failed to serialize collection", zap.String("collection", spec.name), zap.Error(err))
			failed++
			continue
		}

		for start := 0; start < len(rows); start += r.opts.BatchSize {
			end := start + r.opts.BatchSize
			if end > len(rows) {
				end = len(rows)
			}
			for _, row := range rows[start:end] {
				if err := r.upsert(ctx, spec, row); err != nil {
					failed++
					r.logger.Warn("Failed to push record",
						zap.String("collection", spec.name),
						zap.Any("pk", row[spec.pk]),
						zap.Error(err),
					)
				}
			}
		}
	}

	r.obs.PushCompleted(failed)
	if failed > 0 {
		r.store.LogQuiet(fmt.Sprintf("Remote sync failed for %d record(s)", failed), "sync", types.SeverityError)
	}
}

// upsert probes with an update by primary key, inserts when nothing
// matched, and falls back to a second update when the insert reports a
// duplicate (a concurrent writer got there first).
func (r *Replicator) upsert(ctx context.Context, spec collectionSpec, row Row) error {
	pk, ok := row[spec.pk].(string)
	if !ok || pk == "" {
		return fmt.Errorf("record in %s has no %s key", spec.name, spec.pk)
	}
	filter := map[string]string{spec.pk: pk}

	matched, err := r.client.Update(ctx, spec.name, filter, row)
	if err != nil {
		return err
	}
	if matched > 0 {
		return nil
	}

	if err := r.client.Insert(ctx, spec.name, row); err != nil {
		if errors.Is(err, ErrDuplicate) {
			_, err = r.client.Update(ctx, spec.name, filter, row)
		}
		return err
	}
	return nil
}

func (r *Replicator) beginSync() {
	r.clearMu.Lock()
	if r.clearTimer != nil {
		r.clearTimer.Stop()
		r.clearTimer = nil
	}
	r.clearMu.Unlock()
	r.syncing.Store(true)
	r.obs.SyncFlagChanged(true)
}

// endSync schedules the flag clear instead of dropping it immediately.
// The remote store's change notifications for our own push can arrive
// after the push settles; the lag keeps them recognizable as echoes.
func (r *Replicator) endSync() {
	r.clearMu.Lock()
	defer r.clearMu.Unlock()
	if r.clearTimer != nil {
		r.clearTimer.Stop()
	}
	r.clearTimer = time.AfterFunc(r.opts.FlagClearLag, func() {
		r.syncing.Store(false)
		r.obs.SyncFlagChanged(false)
	})
}

// HandleChange applies one inbound change notification. Changes arriving
// while the sync flag is up are echoes of this device's own push and are
// discarded.
func (r *Replicator) HandleChange(change types.Change) {
	if r.syncing.Load() {
		r.obs.InboundChange(false)
		return
	}
	r.obs.InboundChange(true)
	if err := r.applyChange(change); err != nil {
		r.logger.Warn("Failed to apply inbound change",
			zap.String("collection", change.Collection),
			zap.String("kind", string(change.Kind)),
			zap.Error(err),
		)
	}
}

func (r *Replicator) applyChange(change types.Change) error {
	if change.Kind == types.ChangeDelete {
		return r.applyDelete(change)
	}
	return r.applyRow(change.Collection, change.Row)
}

// applyRow decodes a wire row and replaces the local record wholesale.
// The remote record is authoritative on conflict.
func (r *Replicator) applyRow(collection string, row Row) error {
	data, err := sonic.Marshal(row)
	if err != nil {
		return err
	}

	switch collection {
	case CollectionFlights:
		var f types.Flight
		if err := sonic.Unmarshal(data, &f); err != nil {
			return err
		}
		r.store.ApplyFlight(f)
	case CollectionPassengers:
		var p types.Passenger
		if err := sonic.Unmarshal(data, &p); err != nil {
			return err
		}
		r.store.ApplyPassenger(p)
	case CollectionVouchers:
		var v types.Voucher
		if err := sonic.Unmarshal(data, &v); err != nil {
			return err
		}
		r.store.ApplyVoucher(v)
	case CollectionComplaints:
		var c types.Complaint
		if err := sonic.Unmarshal(data, &c); err != nil {
			return err
		}
		r.store.ApplyComplaint(c)
	case CollectionEmails:
		var e types.Email
		if err := sonic.Unmarshal(data, &e); err != nil {
			return err
		}
		r.store.ApplyEmail(e)
	default:
		return fmt.Errorf("unwatched collection %q", collection)
	}
	return nil
}

func (r *Replicator) applyDelete(change types.Change) error {
	row := change.Row
	if row == nil {
		row = change.OldRow
	}

	var spec *collectionSpec
	for i := range collections {
		if collections[i].name == change.Collection {
			spec = &collections[i]
			break
		}
	}
	if spec == nil {
		return fmt.Errorf("unwatched collection %q", change.Collection)
	}

	pk, _ := row[spec.pk].(string)
	if pk == "" {
		return fmt.Errorf("delete in %s carries no %s key", change.Collection, spec.pk)
	}

	switch change.Collection {
	case CollectionFlights:
		r.store.RemoveFlight(pk)
	case CollectionPassengers:
		r.store.RemovePassenger(pk)
	case CollectionVouchers:
		r.store.RemoveVoucher(pk)
	case CollectionComplaints:
		r.store.RemoveComplaint(pk)
	case CollectionEmails:
		r.store.RemoveEmail(pk)
	}
	return nil
}

// Reconcile reloads the entire remote dataset and applies every record
// that differs from local state by value. Records that already match
// produce no redundant update, which is what keeps this path safe against
// echoes without consulting the sync flag.
func (r *Replicator) Reconcile(ctx context.Context) (err error) {
	defer func() { r.obs.ReconcileRun(err) }()

	client := r.client
	if r.pollClient != nil {
		client = r.pollClient
	}

	snap := r.store.Snapshot()

	for _, spec := range collections {
		remote, err := client.Select(ctx, spec.name, nil)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", spec.name, err)
		}

		local, err := snapshotRows(snap, spec.name)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", spec.name, err)
		}
		localByPK := make(map[string]Row, len(local))
		for _, row := range local {
			if pk, ok := row[spec.pk].(string); ok {
				localByPK[pk] = row
			}
		}

		for _, row := range remote {
			pk, ok := row[spec.pk].(string)
			if !ok || pk == "" {
				continue
			}
			if existing, ok := localByPK[pk]; ok && rowsEqual(existing, row) {
				continue
			}
			if err := r.applyRow(spec.name, row); err != nil {
				r.logger.Warn("Failed to reconcile record",
					zap.String("collection", spec.name),
					zap.String("pk", pk),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

func (r *Replicator) initialLoad(ctx context.Context) error {
	for _, spec := range collections {
		rows, err := r.client.Select(ctx, spec.name, nil)
		if err != nil {
			return fmt.Errorf("initial load of %s: %w", spec.name, err)
		}
		for _, row := range rows {
			if err := r.applyRow(spec.name, row); err != nil {
				r.logger.Warn("Skipping malformed record during initial load",
					zap.String("collection", spec.name),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// snapshotRows serializes one collection of a snapshot into wire rows.
func snapshotRows(snap types.Snapshot, collection string) ([]Row, error) {
	var records []any
	switch collection {
	case CollectionFlights:
		for _, f := range snap.Flights {
			records = append(records, f)
		}
	case CollectionPassengers:
		for _, p := range snap.Passengers {
			records = append(records, p)
		}
	case CollectionVouchers:
		for _, v := range snap.Vouchers {
			records = append(records, v)
		}
	case CollectionComplaints:
		for _, c := range snap.Complaints {
			records = append(records, c)
		}
	case CollectionEmails:
		for _, e := range snap.Emails {
			records = append(records, e)
		}
	default:
		return nil, fmt.Errorf("unwatched collection %q", collection)
	}

	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		data, err := sonic.Marshal(rec)
		if err != nil {
			return nil, err
		}
		var row Row
		if err := sonic.Unmarshal(data, &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowsEqual compares two rows by value after a JSON round trip,
// sidestepping numeric-type mismatches between decoded JSON and Go values.
func rowsEqual(a, b Row) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize round-trips a row through JSON so both sides compare with the
// same value types.
func normalize(row Row) Row {
	data, err := sonic.Marshal(row)
	if err != nil {
		return row
	}
	var out Row
	if err := sonic.Unmarshal(data, &out); err != nil {
		return row
	}
	return out
}
