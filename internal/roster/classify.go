// Package roster derives the confirmed and waitlisted sequences of an event
// from a ledger snapshot. Everything here is pure: the same snapshot and
// capacities always produce the same classification.
package roster

import (
	"slices"
	"strings"

	"smartvote/internal/domain"
)

// Classify partitions the snapshot by registrant type, orders each partition
// by (CreatedAt, OwnerUserID, ID) and marks the first capacity entries of each
// partition CONFIRMED and the rest WAITLISTED. The input is not modified.
func Classify(snap domain.LedgerSnapshot, event domain.Event) domain.ClassifiedSnapshot {
	var members, guests []domain.RegistrationRecord
	for _, rec := range snap.Records {
		switch rec.Type {
		case domain.RegistrantMember:
			members = append(members, rec)
		case domain.RegistrantGuest:
			guests = append(guests, rec)
		}
	}
	Sort(members)
	Sort(guests)

	out := domain.ClassifiedSnapshot{
		EventID:        snap.EventID,
		Version:        snap.Version,
		MemberCapacity: event.MemberCapacity,
		GuestCapacity:  event.GuestCapacity,
	}
	out.ConfirmedMembers, out.WaitlistedMembers = split(members, event.MemberCapacity)
	out.ConfirmedGuests, out.WaitlistedGuests = split(guests, event.GuestCapacity)
	return out
}

// Sort orders records in place by the ledger total order.
func Sort(records []domain.RegistrationRecord) {
	slices.SortFunc(records, Compare)
}

// Compare is the ledger total order: creation time, then owner, then record id.
func Compare(a, b domain.RegistrationRecord) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	if c := strings.Compare(a.OwnerUserID, b.OwnerUserID); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func split(sorted []domain.RegistrationRecord, capacity uint) (confirmed, waitlisted []domain.RankedRecord) {
	confirmed = []domain.RankedRecord{}
	waitlisted = []domain.RankedRecord{}
	for i, rec := range sorted {
		if uint(i) < capacity {
			confirmed = append(confirmed, domain.RankedRecord{
				RegistrationRecord: rec,
				Rank:               len(confirmed) + 1,
				Status:             domain.StatusConfirmed,
			})
			continue
		}
		waitlisted = append(waitlisted, domain.RankedRecord{
			RegistrationRecord: rec,
			Rank:               len(waitlisted) + 1,
			Status:             domain.StatusWaitlisted,
		})
	}
	return confirmed, waitlisted
}
