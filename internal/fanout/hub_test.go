package fanout

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartvote/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeSource struct {
	mu      sync.Mutex
	version uint64
	calls   int
	err     error
}

func (f *fakeSource) Roster(ctx context.Context, eventID string) (*domain.ClassifiedSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ClassifiedSnapshot{EventID: eventID, Version: f.version}, nil
}

func (f *fakeSource) bump() {
	f.mu.Lock()
	f.version++
	f.mu.Unlock()
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func receive(t *testing.T, sub *Subscription) domain.ClassifiedSnapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return domain.ClassifiedSnapshot{}
}

func TestHub_SubscribeDeliversCurrentSnapshot(t *testing.T) {
	src := &fakeSource{version: 3}
	hub := NewHub(src, testLogger)
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "ev-1")
	require.NoError(t, err)

	snap := receive(t, sub)
	assert.Equal(t, "ev-1", snap.EventID)
	assert.Equal(t, uint64(3), snap.Version)
	assert.Equal(t, 1, hub.Subscribers("ev-1"))
}

func TestHub_NotifyBroadcastsToEverySubscriber(t *testing.T) {
	src := &fakeSource{version: 1}
	hub := NewHub(src, testLogger)
	defer hub.Close()

	a, err := hub.Subscribe(context.Background(), "ev-1")
	require.NoError(t, err)
	b, err := hub.Subscribe(context.Background(), "ev-1")
	require.NoError(t, err)
	other, err := hub.Subscribe(context.Background(), "ev-2")
	require.NoError(t, err)
	receive(t, a)
	receive(t, b)
	receive(t, other)

	src.bump()
	hub.Notify("ev-1")

	assert.Equal(t, uint64(2), receive(t, a).Version)
	assert.Equal(t, uint64(2), receive(t, b).Version)
	select {
	case snap := <-other.C():
		t.Fatalf("ev-2 subscriber got unexpected snapshot %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_NotifyWithoutSubscribersDoesNotLoad(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src, testLogger)
	defer hub.Close()

	hub.Notify("ev-1")
	hub.NotifyAll()
	assert.Equal(t, 0, src.callCount())
}

func TestSubscription_NeverRegresses(t *testing.T) {
	hub := NewHub(&fakeSource{}, testLogger)
	defer hub.Close()
	sub := &Subscription{hub: hub, eventID: "ev-1", ch: make(chan domain.ClassifiedSnapshot, 1), done: make(chan struct{})}

	require.True(t, sub.offer(domain.ClassifiedSnapshot{Version: 0}))
	assert.Equal(t, uint64(0), (<-sub.C()).Version)

	require.True(t, sub.offer(domain.ClassifiedSnapshot{Version: 5}))
	assert.False(t, sub.offer(domain.ClassifiedSnapshot{Version: 4}))
	assert.False(t, sub.offer(domain.ClassifiedSnapshot{Version: 5}))
	assert.Equal(t, uint64(5), (<-sub.C()).Version)
}

func TestSubscription_SlowReaderGetsLatest(t *testing.T) {
	hub := NewHub(&fakeSource{}, testLogger)
	defer hub.Close()
	sub := &Subscription{hub: hub, eventID: "ev-1", ch: make(chan domain.ClassifiedSnapshot, 1), done: make(chan struct{})}

	for v := uint64(1); v <= 3; v++ {
		require.True(t, sub.offer(domain.ClassifiedSnapshot{Version: v}))
	}
	assert.Equal(t, uint64(3), (<-sub.C()).Version)
	select {
	case snap := <-sub.C():
		t.Fatalf("unexpected extra snapshot %+v", snap)
	default:
	}
}

func TestHub_ContextCancelEndsSubscription(t *testing.T) {
	hub := NewHub(&fakeSource{}, testLogger)
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := hub.Subscribe(ctx, "ev-1")
	require.NoError(t, err)
	receive(t, sub)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers("ev-1"))

	sub.Close()
}

func TestHub_SubscribeErrorLeavesNoSubscriber(t *testing.T) {
	hub := NewHub(&fakeSource{err: domain.ErrEventNotFound}, testLogger)
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "ev-missing")
	require.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.Nil(t, sub)
	assert.Equal(t, 0, hub.Subscribers("ev-missing"))
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(&fakeSource{}, testLogger)

	sub, err := hub.Subscribe(context.Background(), "ev-1")
	require.NoError(t, err)
	receive(t, sub)

	hub.Close()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed by hub")
	}

	_, err = hub.Subscribe(context.Background(), "ev-1")
	require.ErrorIs(t, err, ErrHubClosed)
}

func TestHub_ConcurrentNotifiesEndOnLatest(t *testing.T) {
	src := &fakeSource{}
	hub := NewHub(src, testLogger)
	defer hub.Close()

	sub, err := hub.Subscribe(context.Background(), "ev-1")
	require.NoError(t, err)
	receive(t, sub)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src.bump()
			hub.Notify("ev-1")
		}()
	}
	wg.Wait()

	var last uint64
	deadline := time.After(2 * time.Second)
	for last < 50 {
		select {
		case snap := <-sub.C():
			require.Greater(t, snap.Version, last)
			last = snap.Version
		case <-deadline:
			t.Fatalf("stopped at version %d", last)
		}
	}
}
