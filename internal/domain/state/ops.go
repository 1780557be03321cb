package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

// Cabin layout used for seat auto-assignment.
const (
	cabinRows      = 30
	seatLetters    = "ABCDEF"
	statusOpen     = "open"
	statusResolved = "resolved"
)

// ScheduleFlight adds a new flight. Returns false if the id is taken.
func (s *Store) ScheduleFlight(f types.Flight) bool {
	s.mu.Lock()
	if f.ID == "" {
		s.mu.Unlock()
		return false
	}
	if _, exists := s.flights[f.ID]; exists {
		s.mu.Unlock()
		return false
	}
	if f.Status == "" {
		f.Status = types.FlightScheduled
	}
	s.flights[f.ID] = &f
	s.appendLogLocked(fmt.Sprintf("Flight %s to %s scheduled", f.Number, f.Destination), "occ", types.SeveritySuccess)
	s.mu.Unlock()

	s.afterMutation("flight", f)
	return true
}

// CreateBooking creates a passenger record. Returns false if the locator is
// already taken or the flight is unknown.
func (s *Store) CreateBooking(locator, flightID, firstName, lastName string, bags int) bool {
	locator = strings.ToUpper(locator)

	s.mu.Lock()
	if _, taken := s.passengers[locator]; taken {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.flights[flightID]; !ok {
		s.mu.Unlock()
		return false
	}

	p := &types.Passenger{
		Locator:   locator,
		FlightID:  flightID,
		FirstName: firstName,
		LastName:  lastName,
		Bags:      bags,
		Security:  types.SecurityPending,
	}
	s.passengers[locator] = p
	s.appendLogLocked(fmt.Sprintf("Booking %s created for %s %s", locator, firstName, lastName), "booking", types.SeveritySuccess)
	paxCopy := *p
	s.mu.Unlock()

	s.afterMutation("passenger", paxCopy)
	return true
}

// CheckIn checks a passenger in. A seat is auto-assigned when none is held.
// Returns false if the locator is unknown or already checked in.
func (s *Store) CheckIn(locator string, bags *int) bool {
	locator = strings.ToUpper(locator)

	s.mu.Lock()
	p, ok := s.passengers[locator]
	if !ok || p.CheckedIn {
		s.mu.Unlock()
		return false
	}

	p.CheckedIn = true
	if bags != nil {
		p.Bags = *bags
	}
	if p.Seat == "" {
		p.Seat = s.nextFreeSeatLocked(p.FlightID)
	}
	s.appendLogLocked(fmt.Sprintf("Passenger %s checked in, seat %s", locator, p.Seat), "checkin", types.SeveritySuccess)
	paxCopy := *p
	s.mu.Unlock()

	s.afterMutation("passenger", paxCopy)
	return true
}

// AssignSeat gives a passenger an explicit seat. Returns false if the
// locator is unknown or the seat is already occupied on that flight.
func (s *Store) AssignSeat(locator, seat string) bool {
	locator = strings.ToUpper(locator)
	seat = strings.ToUpper(seat)

	s.mu.Lock()
	p, ok := s.passengers[locator]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if s.seatTakenLocked(p.FlightID, seat, locator) {
		s.mu.Unlock()
		return false
	}

	p.Seat = seat
	s.appendLogLocked(fmt.Sprintf("Seat %s assigned to %s", seat, locator), "checkin", types.SeveritySuccess)
	paxCopy := *p
	s.mu.Unlock()

	s.afterMutation("passenger", paxCopy)
	return true
}

// Board boards a checked-in passenger. Returns false if the locator is
// unknown, the passenger is not checked in, already boarded, or flagged
// by security.
func (s *Store) Board(locator string) bool {
	locator = strings.ToUpper(locator)

	s.mu.Lock()
	p, ok := s.passengers[locator]
	if !ok || !p.CheckedIn || p.Boarded || p.Security == types.SecurityFlagged {
		s.mu.Unlock()
		return false
	}

	p.Boarded = true
	s.appendLogLocked(fmt.Sprintf("Passenger %s boarded", locator), "boarding", types.SeveritySuccess)
	paxCopy := *p
	s.mu.Unlock()

	s.afterMutation("passenger", paxCopy)
	return true
}

// UpdateFlightStatus transitions a flight's operational status.
func (s *Store) UpdateFlightStatus(flightID string, status types.FlightStatus) bool {
	s.mu.Lock()
	f, ok := s.flights[flightID]
	if !ok {
		s.mu.Unlock()
		return false
	}

	f.Status = status
	level := types.SeveritySuccess
	if status == types.FlightDelayed || status == types.FlightCancelled {
		level = types.SeverityWarning
	}
	s.appendLogLocked(fmt.Sprintf("Flight %s status changed to %s", f.Number, status), "occ", level)
	flightCopy := *f
	s.mu.Unlock()

	s.afterMutation("flight", flightCopy)
	return true
}

// SetGate reassigns a flight's departure gate.
func (s *Store) SetGate(flightID, gate string) bool {
	s.mu.Lock()
	f, ok := s.flights[flightID]
	if !ok {
		s.mu.Unlock()
		return false
	}

	f.Gate = gate
	s.appendLogLocked(fmt.Sprintf("Flight %s moved to gate %s", f.Number, gate), "occ", types.SeveritySuccess)
	flightCopy := *f
	s.mu.Unlock()

	s.afterMutation("flight", flightCopy)
	return true
}

// SetSecurity updates a passenger's clearance state.
func (s *Store) SetSecurity(locator string, status types.SecurityStatus) bool {
	locator = strings.ToUpper(locator)

	s.mu.Lock()
	p, ok := s.passengers[locator]
	if !ok {
		s.mu.Unlock()
		return false
	}

	p.Security = status
	level := types.SeveritySuccess
	if status == types.SecurityFlagged {
		level = types.SeverityWarning
	}
	s.appendLogLocked(fmt.Sprintf("Passenger %s security: %s", locator, status), "security", level)
	paxCopy := *p
	s.mu.Unlock()

	s.afterMutation("passenger", paxCopy)
	return true
}

// IssueVoucher issues a compensation voucher. Returns false if the
// passenger is unknown.
func (s *Store) IssueVoucher(locator, kind string, amount float64) (string, bool) {
	locator = strings.ToUpper(locator)

	s.mu.Lock()
	if _, ok := s.passengers[locator]; !ok {
		s.mu.Unlock()
		return "", false
	}

	v := &types.Voucher{
		Code:     "V-" + strings.ToUpper(uuid.New().String()[:8]),
		Locator:  locator,
		Kind:     kind,
		Amount:   amount,
		IssuedAt: time.Now(),
	}
	s.vouchers[v.Code] = v
	s.appendLogLocked(fmt.Sprintf("Voucher %s (%s) issued to %s", v.Code, kind, locator), "vouchers", types.SeveritySuccess)
	voucherCopy := *v
	s.mu.Unlock()

	s.afterMutation("voucher", voucherCopy)
	return voucherCopy.Code, true
}

// FileComplaint records a passenger complaint. Free text is sanitized
// before storage. Returns false if the passenger is unknown.
func (s *Store) FileComplaint(locator, text string) (string, bool) {
	locator = strings.ToUpper(locator)
	text = s.sanitizer.Sanitize(text)

	s.mu.Lock()
	if _, ok := s.passengers[locator]; !ok {
		s.mu.Unlock()
		return "", false
	}

	c := &types.Complaint{
		ID:      uuid.New().String(),
		Locator: locator,
		Text:    text,
		Status:  statusOpen,
		FiledAt: time.Now(),
	}
	s.complaints[c.ID] = c
	s.appendLogLocked(fmt.Sprintf("Complaint filed by %s", locator), "complaints", types.SeverityInfo)
	complaintCopy := *c
	s.mu.Unlock()

	s.afterMutation("complaint", complaintCopy)
	return complaintCopy.ID, true
}

// ResolveComplaint marks a complaint resolved.
func (s *Store) ResolveComplaint(id string) bool {
	s.mu.Lock()
	c, ok := s.complaints[id]
	if !ok {
		s.mu.Unlock()
		return false
	}

	c.Status = statusResolved
	s.appendLogLocked(fmt.Sprintf("Complaint %s resolved", id), "complaints", types.SeveritySuccess)
	complaintCopy := *c
	s.mu.Unlock()

	s.afterMutation("complaint", complaintCopy)
	return true
}

// QueueEmail queues an outbound notification. The body is sanitized.
func (s *Store) QueueEmail(to, subject, body string) string {
	body = s.sanitizer.Sanitize(body)

	s.mu.Lock()
	e := &types.Email{
		ID:       uuid.New().String(),
		To:       to,
		Subject:  subject,
		Body:     body,
		QueuedAt: time.Now(),
	}
	s.emails[e.ID] = e
	s.appendLogLocked(fmt.Sprintf("Email to %s queued: %s", to, subject), "email", types.SeverityInfo)
	emailCopy := *e
	s.mu.Unlock()

	s.afterMutation("email", emailCopy)
	return emailCopy.ID
}

// MarkEmailSent flags a queued email as delivered.
func (s *Store) MarkEmailSent(id string) bool {
	s.mu.Lock()
	e, ok := s.emails[id]
	if !ok {
		s.mu.Unlock()
		return false
	}

	e.Sent = true
	s.appendLogLocked(fmt.Sprintf("Email to %s sent: %s", e.To, e.Subject), "email", types.SeveritySuccess)
	emailCopy := *e
	s.mu.Unlock()

	s.afterMutation("email", emailCopy)
	return true
}

// seatTakenLocked reports whether a seat is held by another passenger on
// the same flight. Must hold the lock.
func (s *Store) seatTakenLocked(flightID, seat, exceptLocator string) bool {
	for _, other := range s.passengers {
		if other.FlightID == flightID && other.Seat == seat && other.Locator != exceptLocator {
			return true
		}
	}
	return false
}

// nextFreeSeatLocked picks the first unoccupied seat, row-major over the
// cabin. Must hold the lock. Returns "" when the cabin is full.
func (s *Store) nextFreeSeatLocked(flightID string) string {
	taken := make(map[string]bool)
	for _, p := range s.passengers {
		if p.FlightID == flightID && p.Seat != "" {
			taken[p.Seat] = true
		}
	}
	for row := 1; row <= cabinRows; row++ {
		for _, letter := range seatLetters {
			seat := fmt.Sprintf("%d%c", row, letter)
			if !taken[seat] {
				return seat
			}
		}
	}
	return ""
}
