package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"smartvote/internal/delivery/http/helpers"
	"smartvote/internal/domain"
)

// CreateEventRequest is the request body for POST /admin/events.
type CreateEventRequest struct {
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	DisplayDate    string    `json:"display_date"`
	DisplayTime    string    `json:"display_time"`
	Fee            int64     `json:"fee"`
	MemberCapacity int       `json:"member_capacity"`
	GuestCapacity  int       `json:"guest_capacity"`
	VoteOpensAt    time.Time `json:"vote_opens_at"`
	VoteClosesAt   time.Time `json:"vote_closes_at"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Location) == "" {
		errs = append(errs, "title or location is required")
	}
	if c.MemberCapacity < 0 {
		errs = append(errs, "member_capacity must not be negative")
	}
	if c.GuestCapacity < 0 {
		errs = append(errs, "guest_capacity must not be negative")
	}
	if c.Fee < 0 {
		errs = append(errs, "fee must not be negative")
	}
	if c.VoteOpensAt.IsZero() {
		errs = append(errs, "vote_opens_at is required")
	}
	if c.VoteClosesAt.IsZero() {
		errs = append(errs, "vote_closes_at is required")
	}
	if !c.VoteOpensAt.IsZero() && !c.VoteClosesAt.IsZero() && !c.VoteOpensAt.Before(c.VoteClosesAt) {
		errs = append(errs, "vote_opens_at must be before vote_closes_at")
	}
	return errs
}

// EventSuccessResponse is the success envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListEventsResponse is the data of GET /events.
type ListEventsResponse struct {
	Events     []*domain.Event        `json:"events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListEventsSuccessResponse is the success envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  ListEventsResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEvent godoc
// @Summary Create an event
// @Description Administrative. Creates an event with its capacities and voting window. Events cannot be edited afterwards.
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param event body CreateEventRequest true "Event descriptor"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /admin/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), domain.CreateEventInput{
		Title:          req.Title,
		Location:       req.Location,
		DisplayDate:    req.DisplayDate,
		DisplayTime:    req.DisplayTime,
		Fee:            req.Fee,
		MemberCapacity: uint(req.MemberCapacity),
		GuestCapacity:  uint(req.GuestCapacity),
		VoteOpensAt:    req.VoteOpensAt,
		VoteClosesAt:   req.VoteClosesAt,
	})
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	c.Logger.InfoContext(r.Context(), "event created", "event_id", event.ID)
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List events
// @Description Events ordered by voting opening time, newest first.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListEvents(r.Context(), params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: event_not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := eventIDParam(w, r)
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
