package domain

import (
	"context"
	"time"
)

// Event is the descriptor of a scheduled club event. It is immutable once created.
// swagger:model Event
type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Location       string    `json:"location"`
	DisplayDate    string    `json:"display_date"`
	DisplayTime    string    `json:"display_time"`
	Fee            int64     `json:"fee"`
	MemberCapacity uint      `json:"member_capacity"`
	GuestCapacity  uint      `json:"guest_capacity"`
	VoteOpensAt    time.Time `json:"vote_opens_at"`
	VoteClosesAt   time.Time `json:"vote_closes_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// AcceptsJoins reports whether now falls inside [VoteOpensAt, VoteClosesAt).
func (e *Event) AcceptsJoins(now time.Time) bool {
	return !now.Before(e.VoteOpensAt) && now.Before(e.VoteClosesAt)
}

// AcceptsCancels reports whether now is before VoteClosesAt.
func (e *Event) AcceptsCancels(now time.Time) bool {
	return now.Before(e.VoteClosesAt)
}

// EventRepository defines the interface for event descriptor storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns events ordered by VoteOpensAt descending, with the total count.
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
}

// CreateEventInput carries the administrative fields of a new event.
type CreateEventInput struct {
	Title          string
	Location       string
	DisplayDate    string
	DisplayTime    string
	Fee            int64
	MemberCapacity uint
	GuestCapacity  uint
	VoteOpensAt    time.Time
	VoteClosesAt   time.Time
}

// EventService defines the administrative and read operations on events.
type EventService interface {
	CreateEvent(ctx context.Context, in CreateEventInput) (*Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
}
