package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartvote/internal/domain"
)

const maxPageSize = 100

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event := &domain.Event{
		Title:          strings.TrimSpace(in.Title),
		Location:       strings.TrimSpace(in.Location),
		DisplayDate:    strings.TrimSpace(in.DisplayDate),
		DisplayTime:    strings.TrimSpace(in.DisplayTime),
		Fee:            in.Fee,
		MemberCapacity: in.MemberCapacity,
		GuestCapacity:  in.GuestCapacity,
		VoteOpensAt:    in.VoteOpensAt.UTC(),
		VoteClosesAt:   in.VoteClosesAt.UTC(),
	}
	if event.Title == "" && event.Location == "" {
		return nil, fmt.Errorf("%w: title or location is required", domain.ErrInvalidInput)
	}
	if event.Fee < 0 {
		return nil, fmt.Errorf("%w: fee must not be negative", domain.ErrInvalidInput)
	}
	if event.VoteOpensAt.IsZero() || event.VoteClosesAt.IsZero() {
		return nil, fmt.Errorf("%w: voting window is required", domain.ErrInvalidInput)
	}
	if !event.VoteOpensAt.Before(event.VoteClosesAt) {
		return nil, fmt.Errorf("%w: voting must open before it closes", domain.ErrInvalidInput)
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, storeFailure("create event", ctx, err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeFailure("get event", ctx, err)
	}
	return event, nil
}

// ListEvents returns one page of events, newest voting window first.
func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, 0, storeFailure("list events", ctx, err)
	}
	return events, total, nil
}
