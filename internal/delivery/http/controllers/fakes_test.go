package controllers

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"smartvote/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	eventUUID  = "5f0c3a52-8d0e-4a9b-9a56-0b7f3c4d2e11"
	recordUUID = "9b2d6e1f-3c4a-4f5b-8e7d-1a2b3c4d5e6f"
)

// fakeRegistrationService implements domain.RegistrationService for handler tests.
type fakeRegistrationService struct {
	mu  sync.Mutex
	err error

	roster *domain.ClassifiedSnapshot

	lastEventID   string
	lastUser      domain.AuthenticatedUser
	lastGuestName string
	lastRecordID  string
}

func (f *fakeRegistrationService) record(eventID string, user domain.AuthenticatedUser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastEventID = eventID
	f.lastUser = user
}

func (f *fakeRegistrationService) Join(ctx context.Context, eventID string, user domain.AuthenticatedUser) (*domain.RegistrationRecord, error) {
	f.record(eventID, user)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RegistrationRecord{ID: recordUUID, EventID: eventID, Type: domain.RegistrantMember, OwnerUserID: user.ID, DisplayName: user.DisplayName}, nil
}

func (f *fakeRegistrationService) AddGuest(ctx context.Context, eventID string, inviter domain.AuthenticatedUser, guestName string) (*domain.RegistrationRecord, error) {
	f.record(eventID, inviter)
	f.lastGuestName = guestName
	if f.err != nil {
		return nil, f.err
	}
	return &domain.RegistrationRecord{ID: recordUUID, EventID: eventID, Type: domain.RegistrantGuest, OwnerUserID: inviter.ID, DisplayName: guestName}, nil
}

func (f *fakeRegistrationService) Cancel(ctx context.Context, eventID string, requester domain.AuthenticatedUser, recordID string) error {
	f.record(eventID, requester)
	f.lastRecordID = recordID
	return f.err
}

func (f *fakeRegistrationService) Roster(ctx context.Context, eventID string) (*domain.ClassifiedSnapshot, error) {
	f.record(eventID, domain.AuthenticatedUser{})
	if f.err != nil {
		return nil, f.err
	}
	return f.roster, nil
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err        error
	events     []*domain.Event
	total      int
	lastInput  domain.CreateEventInput
	lastParams domain.PaginationParams
}

func (f *fakeEventService) CreateEvent(ctx context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{
		ID:             eventUUID,
		Title:          in.Title,
		Location:       in.Location,
		MemberCapacity: in.MemberCapacity,
		GuestCapacity:  in.GuestCapacity,
		VoteOpensAt:    in.VoteOpensAt,
		VoteClosesAt:   in.VoteClosesAt,
	}, nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeEventService) ListEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.events, f.total, nil
}

// versionedSource is a fanout.SnapshotSource whose version is bumped by tests.
type versionedSource struct {
	mu       sync.Mutex
	version  uint64
	snapshot domain.ClassifiedSnapshot
	err      error
}

func (s *versionedSource) Roster(ctx context.Context, eventID string) (*domain.ClassifiedSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	snap := s.snapshot
	snap.EventID = eventID
	snap.Version = s.version
	return &snap, nil
}

func (s *versionedSource) bump(mutate func(*domain.ClassifiedSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	if mutate != nil {
		mutate(&s.snapshot)
	}
}
