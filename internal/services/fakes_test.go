package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"smartvote/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Event
	nextID int
	err    error // if set, every call returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	e.CreatedAt = time.Date(2026, 1, 1, 0, 0, f.nextID, 0, time.UTC)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeEventRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	all := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].VoteOpensAt.After(all[j].VoteOpensAt) })
	start := params.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.Limit()
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

// fakeLedger keeps records per event and applies the MEMBER uniqueness check
// and the append under one lock, like the store's transaction does.
type fakeLedger struct {
	mu       sync.Mutex
	events   *fakeEventRepo
	records  map[string][]domain.RegistrationRecord
	versions map[string]uint64
	seq      int
	base     time.Time

	// hook, when set, runs before every mutation and snapshot; a non-nil
	// error is returned as is.
	hook func(ctx context.Context) error
}

func newFakeLedger(events *fakeEventRepo) *fakeLedger {
	return &fakeLedger{
		events:   events,
		records:  make(map[string][]domain.RegistrationRecord),
		versions: make(map[string]uint64),
		base:     time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
	}
}

func (l *fakeLedger) known(eventID string) bool {
	l.events.mu.Lock()
	defer l.events.mu.Unlock()
	_, ok := l.events.byID[eventID]
	return ok
}

func (l *fakeLedger) Append(ctx context.Context, rec *domain.RegistrationRecord) error {
	if l.hook != nil {
		if err := l.hook(ctx); err != nil {
			return err
		}
	}
	if !l.known(rec.EventID) {
		return domain.ErrEventNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.Type == domain.RegistrantMember {
		for _, r := range l.records[rec.EventID] {
			if r.Type == domain.RegistrantMember && r.OwnerUserID == rec.OwnerUserID {
				return domain.ErrAlreadyRegistered
			}
		}
	}
	l.seq++
	rec.ID = fmt.Sprintf("rec-%03d", l.seq)
	rec.CreatedAt = l.base.Add(time.Duration(l.seq) * time.Millisecond)
	l.records[rec.EventID] = append(l.records[rec.EventID], *rec)
	l.versions[rec.EventID]++
	return nil
}

func (l *fakeLedger) Remove(ctx context.Context, eventID, recordID, requesterUserID string) error {
	if l.hook != nil {
		if err := l.hook(ctx); err != nil {
			return err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	recs := l.records[eventID]
	for i, r := range recs {
		if r.ID != recordID {
			continue
		}
		if r.OwnerUserID != requesterUserID {
			return domain.ErrForbidden
		}
		l.records[eventID] = append(recs[:i:i], recs[i+1:]...)
		l.versions[eventID]++
		return nil
	}
	return domain.ErrNotFound
}

func (l *fakeLedger) Snapshot(ctx context.Context, eventID string) (*domain.LedgerSnapshot, error) {
	if l.hook != nil {
		if err := l.hook(ctx); err != nil {
			return nil, err
		}
	}
	if !l.known(eventID) {
		return nil, domain.ErrEventNotFound
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	recs := make([]domain.RegistrationRecord, len(l.records[eventID]))
	copy(recs, l.records[eventID])
	return &domain.LedgerSnapshot{EventID: eventID, Version: l.versions[eventID], Records: recs}, nil
}

func (l *fakeLedger) count(eventID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records[eventID])
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Notify(eventID string) {
	n.mu.Lock()
	n.events = append(n.events, eventID)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
