package postgres

import (
	"context"
	"database/sql"
	"errors"

	"smartvote/internal/domain"
)

// LedgerChannel is the LISTEN/NOTIFY channel that carries the id of every
// event whose ledger changed. Notifications are sent inside the mutating
// transaction, so listeners only hear about committed changes.
const LedgerChannel = "registration_ledger"

type registrationLedgerRepository struct {
	DB *sql.DB
}

// NewRegistrationLedgerRepository returns a ledger backed by the registrations table.
//
// Every mutation first bumps events.ledger_version with UPDATE ... RETURNING,
// which row-locks the event until commit. Mutations of one event therefore
// commit one at a time, and the created_at assigned inside the lock is
// strictly increasing in commit order. MEMBER uniqueness is enforced by the
// registrations_one_member_per_user partial unique index, so the existence
// check and the insert are the same statement.
func NewRegistrationLedgerRepository(db *sql.DB) domain.RegistrationLedger {
	return &registrationLedgerRepository{
		DB: db,
	}
}

func (r *registrationLedgerRepository) Append(ctx context.Context, rec *domain.RegistrationRecord) error {
	query := `
		INSERT INTO registrations (event_id, registrant_type, owner_user_id, display_name, created_at)
		SELECT $1::uuid, $2::text, $3::text, $4::text,
			GREATEST(clock_timestamp(), MAX(created_at) + INTERVAL '1 microsecond')
		FROM registrations
		WHERE event_id = $1::uuid
		RETURNING id, created_at
	`
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := bumpLedgerVersion(ctx, tx, rec.EventID); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, query, rec.EventID, string(rec.Type), rec.OwnerUserID, rec.DisplayName).
			Scan(&rec.ID, &rec.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyRegistered
			}
			return err
		}
		return notifyLedgerChanged(ctx, tx, rec.EventID)
	})
	if err != nil {
		return storeError("append registration", err)
	}
	return nil
}

func (r *registrationLedgerRepository) Remove(ctx context.Context, eventID, recordID, requesterUserID string) error {
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if _, err := bumpLedgerVersion(ctx, tx, eventID); err != nil {
			return err
		}

		var owner string
		err := tx.QueryRowContext(ctx, `
			SELECT owner_user_id
			FROM registrations
			WHERE id = $1 AND event_id = $2
			FOR UPDATE
		`, recordID, eventID).Scan(&owner)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
				return domain.ErrNotFound
			}
			return err
		}
		if owner != requesterUserID {
			return domain.ErrForbidden
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, recordID); err != nil {
			return err
		}
		return notifyLedgerChanged(ctx, tx, eventID)
	})
	if err != nil {
		return storeError("remove registration", err)
	}
	return nil
}

func (r *registrationLedgerRepository) Snapshot(ctx context.Context, eventID string) (*domain.LedgerSnapshot, error) {
	// One statement, so the version and the records come from the same MVCC snapshot.
	query := `
		SELECT e.ledger_version, r.id, r.registrant_type, r.owner_user_id, r.display_name, r.created_at
		FROM events e
		LEFT JOIN registrations r ON r.event_id = e.id
		WHERE e.id = $1
		ORDER BY r.created_at, r.owner_user_id, r.id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		if isInvalidText(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, storeError("snapshot ledger", err)
	}
	defer rows.Close()

	snap := &domain.LedgerSnapshot{EventID: eventID, Records: []domain.RegistrationRecord{}}
	found := false
	for rows.Next() {
		found = true
		var (
			id, regType, owner, name sql.NullString
			createdAt                sql.NullTime
		)
		if err := rows.Scan(&snap.Version, &id, &regType, &owner, &name, &createdAt); err != nil {
			return nil, storeError("scan registration", err)
		}
		if !id.Valid {
			continue
		}
		snap.Records = append(snap.Records, domain.RegistrationRecord{
			ID:          id.String,
			EventID:     eventID,
			Type:        domain.RegistrantType(regType.String),
			OwnerUserID: owner.String,
			DisplayName: name.String,
			CreatedAt:   createdAt.Time,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("snapshot ledger", err)
	}
	if !found {
		return nil, domain.ErrEventNotFound
	}
	return snap, nil
}

func bumpLedgerVersion(ctx context.Context, tx *sql.Tx, eventID string) (uint64, error) {
	var version uint64
	err := tx.QueryRowContext(ctx, `
		UPDATE events
		SET ledger_version = ledger_version + 1
		WHERE id = $1
		RETURNING ledger_version
	`, eventID).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return 0, domain.ErrEventNotFound
		}
		return 0, err
	}
	return version, nil
}

func notifyLedgerChanged(ctx context.Context, tx *sql.Tx, eventID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, LedgerChannel, eventID)
	return err
}
