package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"smartvote/internal/delivery/http/helpers"
	"smartvote/internal/delivery/http/middleware"
	"smartvote/internal/domain"
	"smartvote/internal/fanout"
)

const defaultHeartbeat = 25 * time.Second

// RosterSubscriber opens a live roster stream for one event.
type RosterSubscriber interface {
	Subscribe(ctx context.Context, eventID string) (*fanout.Subscription, error)
}

// AddGuestRequest is the request body for POST /events/{eventID}/guests.
type AddGuestRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator. Length is checked by the engine.
func (a AddGuestRequest) Validate() []string {
	if strings.TrimSpace(a.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// RosterResponse is a classified snapshot plus the ids of the caller's own records.
type RosterResponse struct {
	*domain.ClassifiedSnapshot
	MyRecords []string `json:"my_records"`
}

// RecordSuccessResponse is the success envelope for a created registration record (201).
type RecordSuccessResponse struct {
	Data  *domain.RegistrationRecord `json:"data"`
	Error *helpers.APIError          `json:"error"`
}

// RosterSuccessResponse is the success envelope for GET /events/{eventID}/roster (200).
type RosterSuccessResponse struct {
	Data  RosterResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type RegistrationController struct {
	Logger     *slog.Logger
	Service    domain.RegistrationService
	Subscriber RosterSubscriber
	// Heartbeat is the interval of SSE keep-alive comments.
	Heartbeat time.Duration
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService, sub RosterSubscriber) *RegistrationController {
	return &RegistrationController{
		Logger:     logger,
		Service:    svc,
		Subscriber: sub,
		Heartbeat:  defaultHeartbeat,
	}
}

// Join godoc
// @Summary Register attendance
// @Description Appends a MEMBER record for the caller. Never fails on capacity; overflow is waitlisted.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} controllers.RecordSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: window_closed or already_registered"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Join(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	user, ok := c.user(w, r)
	if !ok {
		return
	}
	rec, err := c.Service.Join(r.Context(), eventID, user)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, rec)
}

// AddGuest godoc
// @Summary Bring a guest
// @Description Appends a GUEST record owned by the caller. Guests are not deduplicated.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param guest body AddGuestRequest true "Guest display name (max 64 characters)"
// @Success 201 {object} controllers.RecordSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: window_closed"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/guests [post]
func (c *RegistrationController) AddGuest(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	user, ok := c.user(w, r)
	if !ok {
		return
	}
	var req AddGuestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	rec, err := c.Service.AddGuest(r.Context(), eventID, user, req.Name)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, rec)
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Removes one of the caller's records, member or guest. The next waitlisted entry is promoted implicitly.
// @Tags registrations
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param recordID path string true "Record ID (UUID)"
// @Success 204 "cancelled"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found or event_not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: window_closed"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/registrations/{recordID} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	recordID, ok := recordIDParam(w, r)
	if !ok {
		return
	}
	user, ok := c.user(w, r)
	if !ok {
		return
	}
	if err := c.Service.Cancel(r.Context(), eventID, user, recordID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roster godoc
// @Summary Current roster
// @Description Confirmed and waitlisted members and guests. With a bearer token, my_records lists the caller's record ids.
// @Tags registrations
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RosterSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/roster [get]
func (c *RegistrationController) Roster(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	snap, err := c.Service.Roster(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rosterFor(r, snap))
}

// Stream godoc
// @Summary Live roster stream
// @Description Server-Sent Events. Each "roster" event carries a RosterResponse; the event id is the ledger version. The current roster is sent first.
// @Tags registrations
// @Produce text/event-stream
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.RosterResponse
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID}/roster/stream [get]
func (c *RegistrationController) Stream(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	sub, err := c.Subscriber.Subscribe(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	defer sub.Close()

	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		c.Logger.WarnContext(r.Context(), "stream not flushable", "event_id", eventID, "err", err)
		return
	}

	heartbeat := c.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				return
			}
			if err := writeRosterEvent(w, rosterFor(r, &snap)); err != nil {
				c.Logger.DebugContext(r.Context(), "stream write failed", "event_id", eventID, "err", err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeRosterEvent(w http.ResponseWriter, roster RosterResponse) error {
	payload, err := json.Marshal(roster)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: roster\ndata: %s\n\n", roster.Version, payload)
	return err
}

func rosterFor(r *http.Request, snap *domain.ClassifiedSnapshot) RosterResponse {
	mine := []string{}
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		mine = snap.OwnedBy(user.ID)
	}
	return RosterResponse{ClassifiedSnapshot: snap, MyRecords: mine}
}

func (c *RegistrationController) user(w http.ResponseWriter, r *http.Request) (domain.AuthenticatedUser, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return domain.AuthenticatedUser{}, false
	}
	return user, true
}
