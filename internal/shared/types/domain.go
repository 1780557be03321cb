package types

import "time"

// FlightStatus enumerates the operational states of a flight.
type FlightStatus string

const (
	FlightScheduled FlightStatus = "scheduled"
	FlightBoarding  FlightStatus = "boarding"
	FlightFinalCall FlightStatus = "final_call"
	FlightDeparted  FlightStatus = "departed"
	FlightDelayed   FlightStatus = "delayed"
	FlightCancelled FlightStatus = "cancelled"
)

// SecurityStatus tracks a passenger's clearance state.
type SecurityStatus string

const (
	SecurityPending SecurityStatus = "pending"
	SecurityCleared SecurityStatus = "cleared"
	SecurityFlagged SecurityStatus = "flagged"
)

// Severity classifies audit log entries.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Flight is one departure tracked by the suite.
type Flight struct {
	ID           string       `json:"id"`
	Number       string       `json:"number"`
	Airline      string       `json:"airline"`
	Origin       string       `json:"origin"`
	Destination  string       `json:"destination"`
	Gate         string       `json:"gate,omitempty"`
	Stand        string       `json:"stand,omitempty"`
	ScheduledDep time.Time    `json:"scheduled_dep"`
	EstimatedDep *time.Time   `json:"estimated_dep,omitempty"`
	Status       FlightStatus `json:"status"`
}

// Passenger is one booking, keyed by its 6-character locator.
type Passenger struct {
	Locator   string         `json:"locator"`
	FlightID  string         `json:"flight_id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Seat      string         `json:"seat,omitempty"`
	Bags      int            `json:"bags"`
	CheckedIn bool           `json:"checked_in"`
	Boarded   bool           `json:"boarded"`
	Security  SecurityStatus `json:"security"`
	Remarks   string         `json:"remarks,omitempty"`
}

// LogEntry is one line of the bounded audit log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Source  string    `json:"source"` // Originating subsystem tag ("checkin", "boarding", ...)
	Level   Severity  `json:"level"`
}

// Voucher is a compensation voucher issued to a passenger.
type Voucher struct {
	Code     string    `json:"code"`
	Locator  string    `json:"locator"`
	Kind     string    `json:"kind"` // "meal", "hotel", "transport", "cash"
	Amount   float64   `json:"amount"`
	IssuedAt time.Time `json:"issued_at"`
}

// Complaint is a passenger complaint filed at any desk.
type Complaint struct {
	ID      string    `json:"id"`
	Locator string    `json:"locator"`
	Text    string    `json:"text"`
	Status  string    `json:"status"` // "open" or "resolved"
	FiledAt time.Time `json:"filed_at"`
}

// Email is one queued outbound notification.
type Email struct {
	ID       string    `json:"id"`
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
	Sent     bool      `json:"sent"`
}

// Snapshot is a deep copy of every domain collection, taken under the
// store lock and safe to hand to the replicator or the local cache.
type Snapshot struct {
	Flights    []Flight    `json:"flights"`
	Passengers []Passenger `json:"passengers"`
	Logs       []LogEntry  `json:"logs"`
	Vouchers   []Voucher   `json:"vouchers"`
	Complaints []Complaint `json:"complaints"`
	Emails     []Email     `json:"emails"`
}

// ChangeKind enumerates inbound change notification types.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change is one inbound change notification from the remote store.
// Row carries the new record (nil for deletes beyond the key), OldRow
// the previous one where the channel provides it.
type Change struct {
	Collection string         `json:"collection"`
	Kind       ChangeKind     `json:"kind"`
	Row        map[string]any `json:"row,omitempty"`
	OldRow     map[string]any `json:"old_row,omitempty"`
}
