package state

import (
	"sort"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/skyharbor-io/opsdeck/internal/infrastructure/logging"
	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

// MaxLogEntries bounds the audit log; oldest entries are dropped first.
const MaxLogEntries = 100

// Pusher triggers asynchronous replication of the local state.
type Pusher interface {
	Ready() bool
	Trigger()
}

// Notifier fans local changes out to connected UI clients.
type Notifier interface {
	Broadcast(event string, payload any)
}

// Mirror persists best-effort snapshots to the local durable cache.
type Mirror interface {
	Set(key string, value any) error
}

// SnapshotKey is the cache key the mirror writes under. Callers reload it
// at startup via Restore.
const SnapshotKey = "domain-state"

// Store holds every domain collection behind a single lock.
type Store struct {
	mu         sync.RWMutex
	flights    map[string]*types.Flight    // Protected by mu
	passengers map[string]*types.Passenger // Protected by mu, keyed by locator
	logs       []types.LogEntry            // Protected by mu, newest first
	vouchers   map[string]*types.Voucher   // Protected by mu, keyed by code
	complaints map[string]*types.Complaint // Protected by mu
	emails     map[string]*types.Email     // Protected by mu

	pusher      Pusher
	notifier    Notifier
	mirror      Mirror
	mirrorDirty chan struct{}
	sanitizer   *bluemonday.Policy
	logger      *logging.Logger
}

// NewStore creates an empty store.
func NewStore(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		flights:    make(map[string]*types.Flight),
		passengers: make(map[string]*types.Passenger),
		vouchers:   make(map[string]*types.Voucher),
		complaints: make(map[string]*types.Complaint),
		emails:     make(map[string]*types.Email),
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.Named("state"),
	}
}

// WithPusher attaches the replication trigger.
func (s *Store) WithPusher(p Pusher) *Store {
	s.pusher = p
	return s
}

// WithNotifier attaches the UI fan-out hub.
func (s *Store) WithNotifier(n Notifier) *Store {
	s.notifier = n
	return s
}

// WithMirror attaches the local durable cache. Snapshots are written by a
// background worker so mutations never wait on compression or disk; like
// the replication trigger, pending writes coalesce into one.
func (s *Store) WithMirror(m Mirror) *Store {
	s.mirror = m
	s.mirrorDirty = make(chan struct{}, 1)
	go s.mirrorLoop()
	return s
}

func (s *Store) mirrorLoop() {
	for range s.mirrorDirty {
		if err := s.mirror.Set(SnapshotKey, s.Snapshot()); err != nil {
			s.logger.Warn("Failed to mirror snapshot", zap.Error(err))
		}
	}
}

func (s *Store) scheduleMirror() {
	if s.mirror == nil {
		return
	}
	select {
	case s.mirrorDirty <- struct{}{}:
	default:
	}
}

// ---------------------------------------------------------------------------
// Readers
// ---------------------------------------------------------------------------

// GetFlight retrieves a flight by id.
func (s *Store) GetFlight(id string) (*types.Flight, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.flights[id]
	if !ok {
		return nil, false
	}
	flightCopy := *f
	return &flightCopy, true
}

// GetPassenger retrieves a passenger by booking locator.
func (s *Store) GetPassenger(locator string) (*types.Passenger, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.passengers[locator]
	if !ok {
		return nil, false
	}
	paxCopy := *p
	return &paxCopy, true
}

// Flights returns all flights sorted by scheduled departure.
func (s *Store) Flights() []types.Flight {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Flight, 0, len(s.flights))
	for _, f := range s.flights {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDep.Before(out[j].ScheduledDep) })
	return out
}

// Passengers returns all passengers, optionally filtered by flight.
func (s *Store) Passengers(flightID string) []types.Passenger {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Passenger, 0, len(s.passengers))
	for _, p := range s.passengers {
		if flightID == "" || p.FlightID == flightID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Locator < out[j].Locator })
	return out
}

// Logs returns the audit log, most recent first.
func (s *Store) Logs() []types.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// Vouchers returns all issued vouchers.
func (s *Store) Vouchers() []types.Voucher {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Voucher, 0, len(s.vouchers))
	for _, v := range s.vouchers {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Complaints returns all complaints.
func (s *Store) Complaints() []types.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Complaint, 0, len(s.complaints))
	for _, c := range s.complaints {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Emails returns all queued outbound emails.
func (s *Store) Emails() []types.Email {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Email, 0, len(s.emails))
	for _, e := range s.emails {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot deep-copies every collection for the replicator and the cache.
func (s *Store) Snapshot() types.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() types.Snapshot {
	snap := types.Snapshot{
		Flights:    make([]types.Flight, 0, len(s.flights)),
		Passengers: make([]types.Passenger, 0, len(s.passengers)),
		Logs:       make([]types.LogEntry, len(s.logs)),
		Vouchers:   make([]types.Voucher, 0, len(s.vouchers)),
		Complaints: make([]types.Complaint, 0, len(s.complaints)),
		Emails:     make([]types.Email, 0, len(s.emails)),
	}
	for _, f := range s.flights {
		snap.Flights = append(snap.Flights, *f)
	}
	for _, p := range s.passengers {
		snap.Passengers = append(snap.Passengers, *p)
	}
	copy(snap.Logs, s.logs)
	for _, v := range s.vouchers {
		snap.Vouchers = append(snap.Vouchers, *v)
	}
	for _, c := range s.complaints {
		snap.Complaints = append(snap.Complaints, *c)
	}
	for _, e := range s.emails {
		snap.Emails = append(snap.Emails, *e)
	}
	return snap
}

// Restore replaces every collection from a cached snapshot. Called once at
// startup to reload the last mirrored state; once replication comes up the
// remote overwrites it record by record. No push or mirror is triggered.
func (s *Store) Restore(snap types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights = make(map[string]*types.Flight, len(snap.Flights))
	for _, f := range snap.Flights {
		s.flights[f.ID] = &f
	}
	s.passengers = make(map[string]*types.Passenger, len(snap.Passengers))
	for _, p := range snap.Passengers {
		s.passengers[p.Locator] = &p
	}
	s.vouchers = make(map[string]*types.Voucher, len(snap.Vouchers))
	for _, v := range snap.Vouchers {
		s.vouchers[v.Code] = &v
	}
	s.complaints = make(map[string]*types.Complaint, len(snap.Complaints))
	for _, c := range snap.Complaints {
		s.complaints[c.ID] = &c
	}
	s.emails = make(map[string]*types.Email, len(snap.Emails))
	for _, e := range snap.Emails {
		s.emails[e.ID] = &e
	}
	s.logs = make([]types.LogEntry, len(snap.Logs))
	copy(s.logs, snap.Logs)
}

// ---------------------------------------------------------------------------
// Audit log
// ---------------------------------------------------------------------------

// AppendLog records an audit entry. Appending has no failure path.
func (s *Store) AppendLog(message, source string, level types.Severity) {
	s.mu.Lock()
	s.appendLogLocked(message, source, level)
	s.mu.Unlock()

	s.afterMutation("log", nil)
}

// LogQuiet appends an audit entry without triggering replication or the
// cache mirror. The replication layer uses it to report its own outcomes;
// a push-failure entry must not itself schedule another push.
func (s *Store) LogQuiet(message, source string, level types.Severity) {
	s.mu.Lock()
	s.appendLogLocked(message, source, level)
	s.mu.Unlock()

	s.broadcastOnly("log", nil)
}

func (s *Store) appendLogLocked(message, source string, level types.Severity) {
	entry := types.LogEntry{
		Time:    time.Now(),
		Message: message,
		Source:  source,
		Level:   level,
	}
	s.logs = append([]types.LogEntry{entry}, s.logs...)
	if len(s.logs) > MaxLogEntries {
		s.logs = s.logs[:MaxLogEntries]
	}
}

// afterMutation runs the fire-and-forget tail of a successful mutation:
// UI fan-out, local cache mirror, and (when the remote is ready) a push
// trigger. Callers must not hold the lock.
func (s *Store) afterMutation(event string, payload any) {
	if s.notifier != nil {
		s.notifier.Broadcast(event, payload)
	}
	s.scheduleMirror()
	if s.pusher != nil && s.pusher.Ready() {
		s.pusher.Trigger()
	}
}

// ---------------------------------------------------------------------------
// Remote apply (used by the replicator; no logging, no push trigger)
// ---------------------------------------------------------------------------

// ApplyFlight upserts a flight received from the remote store. The remote
// record is authoritative; the whole record is replaced.
func (s *Store) ApplyFlight(f types.Flight) {
	s.mu.Lock()
	s.flights[f.ID] = &f
	s.mu.Unlock()
	s.broadcastOnly("flight", f)
}

// RemoveFlight deletes a flight by id on remote instruction.
func (s *Store) RemoveFlight(id string) {
	s.mu.Lock()
	delete(s.flights, id)
	s.mu.Unlock()
	s.broadcastOnly("flight_removed", id)
}

// ApplyPassenger upserts a passenger received from the remote store.
func (s *Store) ApplyPassenger(p types.Passenger) {
	s.mu.Lock()
	s.passengers[p.Locator] = &p
	s.mu.Unlock()
	s.broadcastOnly("passenger", p)
}

// RemovePassenger deletes a passenger by locator on remote instruction.
func (s *Store) RemovePassenger(locator string) {
	s.mu.Lock()
	delete(s.passengers, locator)
	s.mu.Unlock()
	s.broadcastOnly("passenger_removed", locator)
}

// ApplyVoucher upserts a voucher received from the remote store.
func (s *Store) ApplyVoucher(v types.Voucher) {
	s.mu.Lock()
	s.vouchers[v.Code] = &v
	s.mu.Unlock()
	s.broadcastOnly("voucher", v)
}

// RemoveVoucher deletes a voucher by code on remote instruction.
func (s *Store) RemoveVoucher(code string) {
	s.mu.Lock()
	delete(s.vouchers, code)
	s.mu.Unlock()
	s.broadcastOnly("voucher_removed", code)
}

// ApplyComplaint upserts a complaint received from the remote store.
func (s *Store) ApplyComplaint(c types.Complaint) {
	s.mu.Lock()
	s.complaints[c.ID] = &c
	s.mu.Unlock()
	s.broadcastOnly("complaint", c)
}

// RemoveComplaint deletes a complaint by id on remote instruction.
func (s *Store) RemoveComplaint(id string) {
	s.mu.Lock()
	delete(s.complaints, id)
	s.mu.Unlock()
	s.broadcastOnly("complaint_removed", id)
}

// ApplyEmail upserts an email record received from the remote store.
func (s *Store) ApplyEmail(e types.Email) {
	s.mu.Lock()
	s.emails[e.ID] = &e
	s.mu.Unlock()
	s.broadcastOnly("email", e)
}

// RemoveEmail deletes an email by id on remote instruction.
func (s *Store) RemoveEmail(id string) {
	s.mu.Lock()
	delete(s.emails, id)
	s.mu.Unlock()
	s.broadcastOnly("email_removed", id)
}

func (s *Store) broadcastOnly(event string, payload any) {
	if s.notifier != nil {
		s.notifier.Broadcast(event, payload)
	}
}
