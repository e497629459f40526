// Package fanout pushes classified ledger snapshots to subscribers of an event.
//
// A change signal carries only an event id; the hub reloads the full snapshot
// and offers it to every subscriber of that event. Subscribers see snapshots
// in strictly increasing ledger version. A subscriber that falls behind has
// its pending snapshot replaced by the newer one.
package fanout

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"smartvote/internal/domain"
)

const defaultRefreshTimeout = 5 * time.Second

// ErrHubClosed is returned by Subscribe after Close.
var ErrHubClosed = errors.New("fanout hub closed")

// SnapshotSource loads the current classified snapshot of an event.
type SnapshotSource interface {
	Roster(ctx context.Context, eventID string) (*domain.ClassifiedSnapshot, error)
}

type topic struct {
	subs       map[*Subscription]struct{}
	refreshing bool
	dirty      bool
}

// Hub is the per-process subscription registry.
type Hub struct {
	source         SnapshotSource
	logger         *slog.Logger
	refreshTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	topics map[string]*topic
	closed bool
}

type Option func(*Hub)

// WithRefreshTimeout bounds each snapshot reload.
func WithRefreshTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.refreshTimeout = d
		}
	}
}

func NewHub(source SnapshotSource, logger *slog.Logger, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		source:         source,
		logger:         logger,
		refreshTimeout: defaultRefreshTimeout,
		ctx:            ctx,
		cancel:         cancel,
		topics:         make(map[string]*topic),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber for eventID and delivers the current
// snapshot. The subscription ends when ctx is done or Close is called.
func (h *Hub) Subscribe(ctx context.Context, eventID string) (*Subscription, error) {
	sub := &Subscription{
		hub:     h,
		eventID: eventID,
		ch:      make(chan domain.ClassifiedSnapshot, 1),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	t, ok := h.topics[eventID]
	if !ok {
		t = &topic{subs: make(map[*Subscription]struct{})}
		h.topics[eventID] = t
	}
	t.subs[sub] = struct{}{}
	h.mu.Unlock()

	// Registered before loading, so a change committed in between is not lost.
	snap, err := h.load(ctx, eventID)
	if err != nil {
		sub.Close()
		return nil, err
	}
	sub.offer(*snap)

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

// Notify schedules a reload and broadcast for eventID. It never blocks.
// Signals arriving while a reload is running are folded into one more reload.
func (h *Hub) Notify(eventID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	t, ok := h.topics[eventID]
	if !ok || len(t.subs) == 0 {
		return
	}
	if t.refreshing {
		t.dirty = true
		return
	}
	t.refreshing = true
	h.wg.Add(1)
	go h.refreshLoop(eventID, t)
}

// NotifyAll schedules a reload for every event that has subscribers.
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.topics))
	for id := range h.topics {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.Notify(id)
	}
}

// Close ends every subscription and waits for in-flight reloads.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var subs []*Subscription
	for _, t := range h.topics {
		for s := range t.subs {
			subs = append(subs, s)
		}
	}
	h.mu.Unlock()

	h.cancel()
	for _, s := range subs {
		s.Close()
	}
	h.wg.Wait()
}

// Subscribers returns the number of active subscribers of eventID.
func (h *Hub) Subscribers(eventID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.topics[eventID]; ok {
		return len(t.subs)
	}
	return 0
}

func (h *Hub) refreshLoop(eventID string, t *topic) {
	defer h.wg.Done()
	for {
		snap, err := h.load(h.ctx, eventID)
		if err != nil {
			if h.ctx.Err() == nil {
				h.logger.Warn("roster reload failed", "event_id", eventID, "err", err)
			}
		} else {
			h.broadcast(eventID, *snap)
		}

		h.mu.Lock()
		if t.dirty && !h.closed {
			t.dirty = false
			h.mu.Unlock()
			continue
		}
		t.refreshing = false
		t.dirty = false
		if len(t.subs) == 0 && h.topics[eventID] == t {
			delete(h.topics, eventID)
		}
		h.mu.Unlock()
		return
	}
}

func (h *Hub) load(ctx context.Context, eventID string) (*domain.ClassifiedSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, h.refreshTimeout)
	defer cancel()
	return h.source.Roster(ctx, eventID)
}

func (h *Hub) broadcast(eventID string, snap domain.ClassifiedSnapshot) {
	h.mu.Lock()
	t, ok := h.topics[eventID]
	if !ok {
		h.mu.Unlock()
		return
	}
	subs := make([]*Subscription, 0, len(t.subs))
	for s := range t.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	delivered := 0
	for _, s := range subs {
		if s.offer(snap) {
			delivered++
		}
	}
	h.logger.Debug("roster broadcast", "event_id", eventID, "version", snap.Version, "delivered", delivered)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.topics[s.eventID]
	if !ok {
		return
	}
	delete(t.subs, s)
	if len(t.subs) == 0 && !t.refreshing {
		delete(h.topics, s.eventID)
	}
}
