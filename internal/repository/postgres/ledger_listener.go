package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	listenerMinReconnect = 1 * time.Second
	listenerMaxReconnect = 30 * time.Second
	listenerPingInterval = 90 * time.Second
)

// ChangeSink receives ledger change signals.
type ChangeSink interface {
	Notify(eventID string)
	// NotifyAll is called when notifications may have been missed, e.g. after
	// the listener connection was re-established.
	NotifyAll()
}

// LedgerListener forwards LedgerChannel notifications committed by any
// process to a ChangeSink.
type LedgerListener struct {
	dsn    string
	sink   ChangeSink
	logger *slog.Logger
}

func NewLedgerListener(dsn string, sink ChangeSink, logger *slog.Logger) *LedgerListener {
	return &LedgerListener{dsn: dsn, sink: sink, logger: logger}
}

// Run listens until ctx is cancelled.
func (l *LedgerListener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, listenerMinReconnect, listenerMaxReconnect, l.logEvent)
	defer listener.Close()

	if err := listener.Listen(LedgerChannel); err != nil {
		return fmt.Errorf("listen %s: %w", LedgerChannel, err)
	}
	l.logger.Info("ledger listener started", "channel", LedgerChannel)

	return l.consume(ctx, listener.Notify, listenerPingInterval, listener.Ping)
}

func (l *LedgerListener) consume(ctx context.Context, notifications <-chan *pq.Notification, pingEvery time.Duration, ping func() error) error {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-notifications:
			if !ok {
				return fmt.Errorf("ledger listener closed")
			}
			if n == nil {
				// pq delivers nil after a reconnect.
				l.sink.NotifyAll()
				continue
			}
			if n.Extra == "" {
				continue
			}
			l.sink.Notify(n.Extra)
		case <-ticker.C:
			if err := ping(); err != nil {
				l.logger.Warn("ledger listener ping failed", "err", err)
			}
		}
	}
}

func (l *LedgerListener) logEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		l.logger.Debug("ledger listener connected")
	case pq.ListenerEventDisconnected:
		l.logger.Warn("ledger listener disconnected", "err", err)
	case pq.ListenerEventReconnected:
		l.logger.Info("ledger listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Warn("ledger listener connection attempt failed", "err", err)
	}
}
