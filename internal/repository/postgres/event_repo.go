package postgres

import (
	"context"
	"database/sql"
	"errors"

	"smartvote/internal/domain"
)

const eventColumns = `id, title, location, display_date, display_time, fee,
		member_capacity, guest_capacity, vote_opens_at, vote_closes_at, created_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, location, display_date, display_time, fee,
			member_capacity, guest_capacity, vote_opens_at, vote_closes_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, e.Location, e.DisplayDate, e.DisplayTime, e.Fee,
		e.MemberCapacity, e.GuestCapacity, e.VoteOpensAt, e.VoteClosesAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return storeError("create event", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, storeError("get event", err)
	}
	return e, nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, storeError("count events", err)
	}

	query := `SELECT ` + eventColumns + `
		FROM events
		ORDER BY vote_opens_at DESC, id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, storeError("list events", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, storeError("scan event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeError("list events", err)
	}
	return events, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.Title, &e.Location, &e.DisplayDate, &e.DisplayTime, &e.Fee,
		&e.MemberCapacity, &e.GuestCapacity, &e.VoteOpensAt, &e.VoteClosesAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}
