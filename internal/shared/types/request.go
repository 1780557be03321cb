package types

import "time"

// FlightRequest schedules a new departure.
type FlightRequest struct {
	ID           string    `json:"id" binding:"required"`
	Number       string    `json:"number" binding:"required"`
	Airline      string    `json:"airline" binding:"required"`
	Origin       string    `json:"origin" binding:"required"`
	Destination  string    `json:"destination" binding:"required"`
	Gate         string    `json:"gate"`
	ScheduledDep time.Time `json:"scheduled_dep" binding:"required"`
}

// LaunchRequest asks the shell to open a new window for an installed app.
type LaunchRequest struct {
	AppID string `json:"app_id" binding:"required"`
}

// BoundsRequest moves and/or resizes a window. Omitted fields are untouched.
type BoundsRequest struct {
	X      *int `json:"x,omitempty"`
	Y      *int `json:"y,omitempty"`
	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`
}

// BookingRequest creates a new booking record.
type BookingRequest struct {
	Locator   string `json:"locator" binding:"required,len=6"`
	FlightID  string `json:"flight_id" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Bags      int    `json:"bags"`
}

// CheckInRequest checks a passenger in, optionally updating bag count.
type CheckInRequest struct {
	Locator string `json:"locator" binding:"required,len=6"`
	Bags    *int   `json:"bags,omitempty"`
}

// SeatRequest assigns an explicit seat.
type SeatRequest struct {
	Locator string `json:"locator" binding:"required,len=6"`
	Seat    string `json:"seat" binding:"required"`
}

// BoardRequest boards a checked-in passenger.
type BoardRequest struct {
	Locator string `json:"locator" binding:"required,len=6"`
}

// FlightStatusRequest transitions a flight's operational status.
type FlightStatusRequest struct {
	FlightID string       `json:"flight_id" binding:"required"`
	Status   FlightStatus `json:"status" binding:"required"`
}

// GateRequest reassigns a flight's gate.
type GateRequest struct {
	FlightID string `json:"flight_id" binding:"required"`
	Gate     string `json:"gate" binding:"required"`
}

// SecurityRequest updates a passenger's clearance state.
type SecurityRequest struct {
	Locator string         `json:"locator" binding:"required,len=6"`
	Status  SecurityStatus `json:"status" binding:"required"`
}

// VoucherRequest issues a voucher to a passenger.
type VoucherRequest struct {
	Locator string  `json:"locator" binding:"required,len=6"`
	Kind    string  `json:"kind" binding:"required"`
	Amount  float64 `json:"amount"`
}

// ComplaintRequest files a passenger complaint.
type ComplaintRequest struct {
	Locator string `json:"locator" binding:"required,len=6"`
	Text    string `json:"text" binding:"required"`
}

// EmailRequest queues an outbound notification email.
type EmailRequest struct {
	To      string `json:"to" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// SessionRequest names a workspace snapshot.
type SessionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// LoginRequest authenticates a staff agent.
type LoginRequest struct {
	Agent string `json:"agent" binding:"required"`
	PIN   string `json:"pin" binding:"required"`
}
