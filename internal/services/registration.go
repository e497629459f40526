package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"smartvote/internal/clock"
	"smartvote/internal/domain"
)

const (
	// MaxGuestNameLength is the longest guest display name accepted, in characters.
	MaxGuestNameLength = 64
	defaultMemberName  = "Member"
)

type registrationService struct {
	events         domain.EventRepository
	ledger         domain.RegistrationLedger
	roster         *RosterService
	notifier       domain.ChangeNotifier
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewRegistrationService returns the registration engine. notifier is told about
// every committed mutation and may be nil.
func NewRegistrationService(
	events domain.EventRepository,
	ledger domain.RegistrationLedger,
	roster *RosterService,
	notifier domain.ChangeNotifier,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RegistrationService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &registrationService{
		events:         events,
		ledger:         ledger,
		roster:         roster,
		notifier:       notifier,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *registrationService) Join(ctx context.Context, eventID string, user domain.AuthenticatedUser) (*domain.RegistrationRecord, error) {
	if user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	name := strings.TrimSpace(user.DisplayName)
	if name == "" {
		name = defaultMemberName
	}
	rec := &domain.RegistrationRecord{
		EventID:     eventID,
		Type:        domain.RegistrantMember,
		OwnerUserID: user.ID,
		DisplayName: name,
	}
	if err := s.appendInWindow(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *registrationService) AddGuest(ctx context.Context, eventID string, inviter domain.AuthenticatedUser, guestName string) (*domain.RegistrationRecord, error) {
	if inviter.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	name := strings.TrimSpace(guestName)
	if name == "" {
		return nil, fmt.Errorf("%w: guest name is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxGuestNameLength {
		return nil, fmt.Errorf("%w: guest name exceeds %d characters", domain.ErrInvalidInput, MaxGuestNameLength)
	}
	rec := &domain.RegistrationRecord{
		EventID:     eventID,
		Type:        domain.RegistrantGuest,
		OwnerUserID: inviter.ID,
		DisplayName: name,
	}
	if err := s.appendInWindow(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *registrationService) appendInWindow(ctx context.Context, rec *domain.RegistrationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.events.GetByID(ctx, rec.EventID)
	if err != nil {
		return s.fail("get event", ctx, rec.EventID, err)
	}
	if !event.AcceptsJoins(s.clock.Now()) {
		return domain.ErrWindowClosed
	}
	if err := s.ledger.Append(ctx, rec); err != nil {
		return s.fail("append registration", ctx, rec.EventID, err)
	}

	s.logger.Info("registration appended",
		"event_id", rec.EventID,
		"record_id", rec.ID,
		"type", rec.Type,
		"owner_user_id", rec.OwnerUserID,
	)
	s.notify(rec.EventID)
	return nil
}

func (s *registrationService) Cancel(ctx context.Context, eventID string, requester domain.AuthenticatedUser, recordID string) error {
	if requester.ID == "" {
		return domain.ErrUnauthorized
	}
	if recordID == "" {
		return domain.ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return s.fail("get event", ctx, eventID, err)
	}
	if !event.AcceptsCancels(s.clock.Now()) {
		return domain.ErrWindowClosed
	}
	if err := s.ledger.Remove(ctx, eventID, recordID, requester.ID); err != nil {
		return s.fail("remove registration", ctx, eventID, err)
	}

	s.logger.Info("registration cancelled",
		"event_id", eventID,
		"record_id", recordID,
		"requester_user_id", requester.ID,
	)
	s.notify(eventID)
	return nil
}

func (s *registrationService) Roster(ctx context.Context, eventID string) (*domain.ClassifiedSnapshot, error) {
	snap, err := s.roster.Roster(ctx, eventID)
	if err != nil && errors.Is(err, domain.ErrUnavailable) {
		s.logger.Error("roster load failed", "event_id", eventID, "err", err)
	}
	return snap, err
}

// fail normalizes a store error and logs the ones that are not business outcomes.
func (s *registrationService) fail(op string, ctx context.Context, eventID string, err error) error {
	err = storeFailure(op, ctx, err)
	if !isBusinessError(err) {
		s.logger.Error("registration store failure", "op", op, "event_id", eventID, "err", err)
	}
	return err
}

func (s *registrationService) notify(eventID string) {
	if s.notifier != nil {
		s.notifier.Notify(eventID)
	}
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		domain.ErrAlreadyRegistered,
		domain.ErrForbidden,
		domain.ErrNotFound,
		domain.ErrEventNotFound,
		domain.ErrWindowClosed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
