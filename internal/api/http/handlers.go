// Package http contains the gin handlers for the shell, domain and
// operations surface.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skyharbor-io/opsdeck/internal/domain/auth"
	"github.com/skyharbor-io/opsdeck/internal/domain/session"
	"github.com/skyharbor-io/opsdeck/internal/domain/shell"
	"github.com/skyharbor-io/opsdeck/internal/domain/state"
	"github.com/skyharbor-io/opsdeck/internal/shared/types"
)

// SyncStatus reports whether the replication layer reached the remote store.
type SyncStatus interface {
	Ready() bool
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	shell    *shell.Manager
	store    *state.Store
	sessions *session.Manager
	auth     *auth.Service
	sync     SyncStatus
}

// NewHandlers creates a new handler set.
func NewHandlers(
	shellManager *shell.Manager,
	store *state.Store,
	sessions *session.Manager,
	authService *auth.Service,
	sync SyncStatus,
) *Handlers {
	return &Handlers{
		shell:    shellManager,
		store:    store,
		sessions: sessions,
		auth:     authService,
		sync:     sync,
	}
}

// Root handles the liveness probe.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "opsdeck",
	})
}

// Health handles the detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"shell":  h.shell.Stats(),
		"replication": gin.H{
			"ready": h.sync.Ready(),
		},
	})
}

// --- Shell ---

// Launch opens a new window.
func (h *Handlers) Launch(c *gin.Context) {
	var req types.LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	window := h.shell.Launch(req.AppID)
	if window == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown app", "app_id": req.AppID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"window":  window,
	})
}

// ListWindows returns every open window in stacking order plus the active id.
func (h *Handlers) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"windows":   h.shell.List(),
		"active_id": h.shell.ActiveID(),
		"stats":     h.shell.Stats(),
	})
}

// FocusWindow brings a window to the front.
func (h *Handlers) FocusWindow(c *gin.Context) {
	id := c.Param("id")
	h.shell.Focus(id)
	c.JSON(http.StatusOK, gin.H{"success": true, "window_id": id})
}

// MinimizeWindow toggles a window's minimized state.
func (h *Handlers) MinimizeWindow(c *gin.Context) {
	id := c.Param("id")
	h.shell.Minimize(id)
	c.JSON(http.StatusOK, gin.H{"success": true, "window_id": id})
}

// MaximizeWindow toggles a window's maximized state.
func (h *Handlers) MaximizeWindow(c *gin.Context) {
	id := c.Param("id")
	h.shell.Maximize(id)
	c.JSON(http.StatusOK, gin.H{"success": true, "window_id": id})
}

// SetBounds moves and/or resizes a window. Absent fields keep their value.
func (h *Handlers) SetBounds(c *gin.Context) {
	id := c.Param("id")

	var req types.BoundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.X != nil || req.Y != nil {
		window, ok := h.shell.Get(id)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"success": true, "window_id": id})
			return
		}
		x, y := window.X, window.Y
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}
		h.shell.Move(id, x, y)
	}
	if req.Width != nil || req.Height != nil {
		window, ok := h.shell.Get(id)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"success": true, "window_id": id})
			return
		}
		w, hh := window.Width, window.Height
		if req.Width != nil {
			w = *req.Width
		}
		if req.Height != nil {
			hh = *req.Height
		}
		h.shell.Resize(id, w, hh)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "window_id": id})
}

// CloseWindow closes a window.
func (h *Handlers) CloseWindow(c *gin.Context) {
	id := c.Param("id")
	h.shell.Close(id)
	c.JSON(http.StatusOK, gin.H{"success": true, "window_id": id})
}

// ListApps lists the installed app catalogue.
func (h *Handlers) ListApps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"apps": h.shell.Apps()})
}

// --- Domain reads ---

// ListFlights returns all tracked departures.
func (h *Handlers) ListFlights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"flights": h.store.Flights()})
}

// ListPassengers returns passengers, optionally filtered by flight.
func (h *Handlers) ListPassengers(c *gin.Context) {
	flightID := c.Query("flight_id")
	c.JSON(http.StatusOK, gin.H{"passengers": h.store.Passengers(flightID)})
}

// ListLogs returns the audit log, newest first.
func (h *Handlers) ListLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": h.store.Logs()})
}

// ListVouchers returns all issued vouchers.
func (h *Handlers) ListVouchers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"vouchers": h.store.Vouchers()})
}

// ListComplaints returns all filed complaints.
func (h *Handlers) ListComplaints(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"complaints": h.store.Complaints()})
}

// ListEmails returns the outbound email queue.
func (h *Handlers) ListEmails(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"emails": h.store.Emails()})
}

// --- Operations ---

// ScheduleFlight registers a new departure.
func (h *Handlers) ScheduleFlight(c *gin.Context) {
	var req types.FlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.ScheduleFlight(types.Flight{
		ID:           req.ID,
		Number:       req.Number,
		Airline:      req.Airline,
		Origin:       req.Origin,
		Destination:  req.Destination,
		Gate:         req.Gate,
		ScheduledDep: req.ScheduledDep,
		Status:       types.FlightScheduled,
	})
	c.JSON(http.StatusOK, gin.H{"success": ok, "flight_id": req.ID})
}

// CreateBooking creates a booking under a locator.
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req types.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.CreateBooking(req.Locator, req.FlightID, req.FirstName, req.LastName, req.Bags)
	c.JSON(http.StatusOK, gin.H{"success": ok, "locator": req.Locator})
}

// CheckIn checks a passenger in.
func (h *Handlers) CheckIn(c *gin.Context) {
	var req types.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.CheckIn(req.Locator, req.Bags)
	c.JSON(http.StatusOK, gin.H{"success": ok, "locator": req.Locator})
}

// AssignSeat gives a passenger an explicit seat.
func (h *Handlers) AssignSeat(c *gin.Context) {
	var req types.SeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.AssignSeat(req.Locator, req.Seat)
	c.JSON(http.StatusOK, gin.H{"success": ok, "locator": req.Locator, "seat": req.Seat})
}

// Board boards a checked-in passenger.
func (h *Handlers) Board(c *gin.Context) {
	var req types.BoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.Board(req.Locator)
	c.JSON(http.StatusOK, gin.H{"success": ok, "locator": req.Locator})
}

// UpdateFlightStatus transitions a flight's status.
func (h *Handlers) UpdateFlightStatus(c *gin.Context) {
	var req types.FlightStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.UpdateFlightStatus(req.FlightID, req.Status)
	c.JSON(http.StatusOK, gin.H{"success": ok, "flight_id": req.FlightID})
}

// SetGate reassigns a flight's gate.
func (h *Handlers) SetGate(c *gin.Context) {
	var req types.GateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.SetGate(req.FlightID, req.Gate)
	c.JSON(http.StatusOK, gin.H{"success": ok, "flight_id": req.FlightID})
}

// SetSecurity updates a passenger's clearance state.
func (h *Handlers) SetSecurity(c *gin.Context) {
	var req types.SecurityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok := h.store.SetSecurity(req.Locator, req.Status)
	c.JSON(http.StatusOK, gin.H{"success": ok, "locator": req.Locator})
}

// IssueVoucher issues a compensation voucher.
func (h *Handlers) IssueVoucher(c *gin.Context) {
	var req types.VoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code, ok := h.store.IssueVoucher(req.Locator, req.Kind, req.Amount)
	c.JSON(http.StatusOK, gin.H{"success": ok, "code": code})
}

// FileComplaint files a passenger complaint.
func (h *Handlers) FileComplaint(c *gin.Context) {
	var req types.ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, ok := h.store.FileComplaint(req.Locator, req.Text)
	c.JSON(http.StatusOK, gin.H{"success": ok, "complaint_id": id})
}

// ResolveComplaint closes a complaint.
func (h *Handlers) ResolveComplaint(c *gin.Context) {
	id := c.Param("id")
	ok := h.store.ResolveComplaint(id)
	c.JSON(http.StatusOK, gin.H{"success": ok, "complaint_id": id})
}

// QueueEmail queues an outbound notification.
func (h *Handlers) QueueEmail(c *gin.Context) {
	var req types.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := h.store.QueueEmail(req.To, req.Subject, req.Body)
	c.JSON(http.StatusOK, gin.H{"success": true, "email_id": id})
}

// MarkEmailSent marks a queued email as delivered.
func (h *Handlers) MarkEmailSent(c *gin.Context) {
	id := c.Param("id")
	ok := h.store.MarkEmailSent(id)
	c.JSON(http.StatusOK, gin.H{"success": ok, "email_id": id})
}

// --- Sessions ---

// SaveSession captures the current workspace.
func (h *Handlers) SaveSession(c *gin.Context) {
	var req types.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.sessions.Save(req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "session": saved})
}

// ListSessions lists all saved sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession returns one saved session.
func (h *Handlers) GetSession(c *gin.Context) {
	id := c.Param("id")

	found, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if found == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, found)
}

// RestoreSession replaces the workspace with a saved one.
func (h *Handlers) RestoreSession(c *gin.Context) {
	id := c.Param("id")

	ok, err := h.sessions.Restore(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": id})
}

// DeleteSession removes a saved session.
func (h *Handlers) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": id})
}

// --- Auth ---

// Login authenticates an agent and issues a token.
func (h *Handlers) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, ok := h.auth.Login(req.Agent, req.PIN)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// Logout revokes the caller's token.
func (h *Handlers) Logout(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.auth.Logout(req.Token)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
