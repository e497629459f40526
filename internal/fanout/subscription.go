package fanout

import (
	"sync"

	"smartvote/internal/domain"
)

// Subscription is a cancellable stream of snapshots for one event.
type Subscription struct {
	hub     *Hub
	eventID string
	ch      chan domain.ClassifiedSnapshot
	done    chan struct{}
	once    sync.Once

	mu        sync.Mutex
	closed    bool
	delivered bool
	last      uint64
}

// C returns the snapshot stream. It is closed when the subscription ends.
func (s *Subscription) C() <-chan domain.ClassifiedSnapshot {
	return s.ch
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) EventID() string {
	return s.eventID
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.hub.remove(s)
		close(s.done)
	})
}

// offer queues snap unless it is not newer than what was already queued.
// A queued snapshot the reader has not taken yet is replaced.
func (s *Subscription) offer(snap domain.ClassifiedSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.delivered && snap.Version <= s.last {
		return false
	}
	select {
	case <-s.ch:
	default:
	}
	// Only offer sends, under s.mu, and the buffer was just drained.
	s.ch <- snap
	s.last = snap.Version
	s.delivered = true
	return true
}
