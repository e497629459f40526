package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartvote/internal/domain"
	"smartvote/internal/roster"
)

// RosterService builds classified snapshots from the event descriptor and the ledger.
type RosterService struct {
	events         domain.EventRepository
	ledger         domain.RegistrationLedger
	contextTimeout time.Duration
}

func NewRosterService(events domain.EventRepository, ledger domain.RegistrationLedger, timeout time.Duration) *RosterService {
	return &RosterService{events: events, ledger: ledger, contextTimeout: timeout}
}

// Roster returns the current classified snapshot of eventID.
func (s *RosterService) Roster(ctx context.Context, eventID string) (*domain.ClassifiedSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, storeFailure("get event", ctx, err)
	}
	snap, err := s.ledger.Snapshot(ctx, eventID)
	if err != nil {
		return nil, storeFailure("ledger snapshot", ctx, err)
	}
	classified := roster.Classify(*snap, *event)
	return &classified, nil
}

// storeFailure wraps err with op and folds an expired store deadline into ErrUnavailable.
func storeFailure(op string, ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
