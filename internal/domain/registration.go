package domain

import (
	"context"
	"time"
)

// RegistrantType distinguishes members from the guests they bring.
type RegistrantType string

const (
	RegistrantMember RegistrantType = "MEMBER"
	RegistrantGuest  RegistrantType = "GUEST"
)

// Valid reports whether t is a known registrant type.
func (t RegistrantType) Valid() bool {
	return t == RegistrantMember || t == RegistrantGuest
}

// RegistrationRecord is one entry in an event's ledger. It is never edited;
// a change of mind is a cancel followed by a new join.
// swagger:model RegistrationRecord
type RegistrationRecord struct {
	ID      string         `json:"id"`
	EventID string         `json:"event_id"`
	Type    RegistrantType `json:"type"`
	// OwnerUserID is the user who created the record. For a guest it is the inviter.
	OwnerUserID string `json:"owner_user_id"`
	DisplayName string `json:"display_name"`
	// CreatedAt is assigned by the ledger when the append commits.
	CreatedAt time.Time `json:"created_at"`
}

// LedgerSnapshot is the full set of records of one event at a ledger version.
type LedgerSnapshot struct {
	EventID string
	// Version increases with every committed append or removal.
	Version uint64
	Records []RegistrationRecord
}

// RegistrationLedger is the conditional write and snapshot interface of the
// per-event ledger. Implementations must make the MEMBER existence check and the
// append one indivisible unit.
type RegistrationLedger interface {
	// Append stores rec, assigning ID and CreatedAt. Returns ErrAlreadyRegistered
	// for a second MEMBER record of the same owner and ErrEventNotFound for an
	// unknown event.
	Append(ctx context.Context, rec *RegistrationRecord) error
	// Remove deletes the record if requesterUserID owns it. Returns ErrNotFound
	// when the record is absent and ErrForbidden when it belongs to someone else.
	Remove(ctx context.Context, eventID, recordID, requesterUserID string) error
	Snapshot(ctx context.Context, eventID string) (*LedgerSnapshot, error)
}

// RegistrationStatus is the read-side classification of a record.
type RegistrationStatus string

const (
	StatusConfirmed  RegistrationStatus = "CONFIRMED"
	StatusWaitlisted RegistrationStatus = "WAITLISTED"
)

// RankedRecord is a record with its 1-based rank inside its classified sequence.
// swagger:model RankedRecord
type RankedRecord struct {
	RegistrationRecord
	Rank   int                `json:"rank"`
	Status RegistrationStatus `json:"status"`
}

// ClassifiedSnapshot is a ledger snapshot partitioned into confirmed and
// waitlisted sequences for members and guests.
// swagger:model ClassifiedSnapshot
type ClassifiedSnapshot struct {
	EventID           string         `json:"event_id"`
	Version           uint64         `json:"version"`
	MemberCapacity    uint           `json:"member_capacity"`
	GuestCapacity     uint           `json:"guest_capacity"`
	ConfirmedMembers  []RankedRecord `json:"confirmed_members"`
	WaitlistedMembers []RankedRecord `json:"waitlisted_members"`
	ConfirmedGuests   []RankedRecord `json:"confirmed_guests"`
	WaitlistedGuests  []RankedRecord `json:"waitlisted_guests"`
}

// OwnedBy returns the ids of the records owned by userID, in classification order.
func (s *ClassifiedSnapshot) OwnedBy(userID string) []string {
	ids := []string{}
	for _, seq := range [][]RankedRecord{s.ConfirmedMembers, s.WaitlistedMembers, s.ConfirmedGuests, s.WaitlistedGuests} {
		for _, r := range seq {
			if r.OwnerUserID == userID {
				ids = append(ids, r.ID)
			}
		}
	}
	return ids
}

// ChangeNotifier is told about every ledger change the engine commits.
type ChangeNotifier interface {
	Notify(eventID string)
}

// RegistrationService is the registration engine exposed to the presentation layer.
type RegistrationService interface {
	Join(ctx context.Context, eventID string, user AuthenticatedUser) (*RegistrationRecord, error)
	AddGuest(ctx context.Context, eventID string, inviter AuthenticatedUser, guestName string) (*RegistrationRecord, error)
	Cancel(ctx context.Context, eventID string, requester AuthenticatedUser, recordID string) error
	Roster(ctx context.Context, eventID string) (*ClassifiedSnapshot, error)
}
