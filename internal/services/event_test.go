package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartvote/internal/domain"
)

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	valid := domain.CreateEventInput{
		Title:          " Friday run ",
		Location:       "River gym",
		DisplayDate:    "Apr 12",
		DisplayTime:    "19:00",
		Fee:            500,
		MemberCapacity: 12,
		GuestCapacity:  4,
		VoteOpensAt:    opensAt,
		VoteClosesAt:   closesAt,
	}

	tests := []struct {
		name    string
		mutate  func(in *domain.CreateEventInput)
		repoErr error
		wantErr error
	}{
		{name: "success", mutate: func(in *domain.CreateEventInput) {}},
		{name: "location only", mutate: func(in *domain.CreateEventInput) { in.Title = "" }},
		{name: "zero capacities", mutate: func(in *domain.CreateEventInput) { in.MemberCapacity, in.GuestCapacity = 0, 0 }},
		{
			name:    "title and location missing",
			mutate:  func(in *domain.CreateEventInput) { in.Title, in.Location = " ", "" },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative fee",
			mutate:  func(in *domain.CreateEventInput) { in.Fee = -1 },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing window",
			mutate:  func(in *domain.CreateEventInput) { in.VoteOpensAt = time.Time{} },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "closes before opening",
			mutate:  func(in *domain.CreateEventInput) { in.VoteClosesAt = in.VoteOpensAt },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "repo error",
			mutate:  func(in *domain.CreateEventInput) {},
			repoErr: errors.New("db error"),
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeEventRepo()
			repo.err = tt.repoErr
			svc := NewEventService(repo, 5*time.Second)

			in := valid
			tt.mutate(&in)
			ev, err := svc.CreateEvent(ctx, in)
			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, domain.ErrInvalidInput) {
					assert.ErrorIs(t, err, domain.ErrInvalidInput)
				}
				assert.Empty(t, repo.byID)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, ev.ID)
			assert.Equal(t, in.MemberCapacity, ev.MemberCapacity)
			assert.Equal(t, in.VoteOpensAt, ev.VoteOpensAt)
			_, ok := repo.byID[ev.ID]
			assert.True(t, ok)
		})
	}
}

func TestEventService_CreateEventTrimsFields(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), time.Second)
	ev, err := svc.CreateEvent(context.Background(), domain.CreateEventInput{
		Title:        "  Friday run ",
		Location:     " gym ",
		VoteOpensAt:  opensAt,
		VoteClosesAt: closesAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "Friday run", ev.Title)
	assert.Equal(t, "gym", ev.Location)
}

func TestEventService_GetEvent(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewEventService(repo, time.Second)
	ctx := context.Background()

	created, err := svc.CreateEvent(ctx, domain.CreateEventInput{Title: "Run", VoteOpensAt: opensAt, VoteClosesAt: closesAt})
	require.NoError(t, err)

	got, err := svc.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Run", got.Title)

	_, err = svc.GetEvent(ctx, "ev-missing")
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventService_ListEvents(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewEventService(repo, time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		open := opensAt.Add(time.Duration(i) * 24 * time.Hour)
		_, err := svc.CreateEvent(ctx, domain.CreateEventInput{
			Title:        []string{"first", "second", "third"}[i],
			VoteOpensAt:  open,
			VoteClosesAt: open.Add(time.Hour),
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		params domain.PaginationParams
		want   []string
	}{
		{"defaults", domain.PaginationParams{}, []string{"third", "second", "first"}},
		{"first page", domain.PaginationParams{Page: 1, PageSize: 2}, []string{"third", "second"}},
		{"second page", domain.PaginationParams{Page: 2, PageSize: 2}, []string{"first"}},
		{"past the end", domain.PaginationParams{Page: 5, PageSize: 2}, []string{}},
		{"oversized page", domain.PaginationParams{Page: 1, PageSize: 1000}, []string{"third", "second", "first"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := svc.ListEvents(ctx, tt.params)
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			got := []string{}
			for _, e := range events {
				got = append(got, e.Title)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventService_ListEventsStoreError(t *testing.T) {
	repo := newFakeEventRepo()
	repo.err = domain.ErrUnavailable
	svc := NewEventService(repo, time.Second)

	_, _, err := svc.ListEvents(context.Background(), domain.PaginationParams{})
	require.ErrorIs(t, err, domain.ErrUnavailable)
}
