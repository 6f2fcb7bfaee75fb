package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
)

const (
	pingInterval = 90 * time.Second
	fetchTimeout = 5 * time.Second
)

// RawLeadFetcher reads back a row announced by id.
type RawLeadFetcher interface {
	GetByID(ctx context.Context, id int64) (entity.RawLead, error)
}

// PGListener is a change-feed source backed by LISTEN on the channel the
// "lead" insert trigger notifies. The payload is the new row's id, which is
// read back through rows; a JSON row payload is decoded directly.
type PGListener struct {
	dsn          string
	channel      string
	rows         RawLeadFetcher
	minReconnect time.Duration
	maxReconnect time.Duration
	logger       *zap.Logger
}

func NewPGListener(dsn, channel string, rows RawLeadFetcher, minReconnect, maxReconnect time.Duration, logger *zap.Logger) *PGListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGListener{
		dsn:          dsn,
		channel:      channel,
		rows:         rows,
		minReconnect: minReconnect,
		maxReconnect: maxReconnect,
		logger:       logger,
	}
}

func (l *PGListener) Run(ctx context.Context, publish func(entity.RawLead)) error {
	listener := pq.NewListener(l.dsn, l.minReconnect, l.maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			l.logger.Warn("change feed connection problem", zap.Error(err))
		case pq.ListenerEventReconnected:
			l.logger.Info("change feed reconnected")
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("listening for raw lead inserts", zap.String("channel", l.channel))

	return l.consume(ctx, listener.Notify, listener.Ping, publish)
}

func (l *PGListener) consume(ctx context.Context, notify <-chan *pq.Notification, ping func() error, publish func(entity.RawLead)) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case n, ok := <-notify:
			if !ok {
				return fmt.Errorf("notification channel closed")
			}
			// nil after a reconnect; inserts during the gap are not replayed
			if n == nil {
				continue
			}

			lead, err := l.decode(ctx, n.Extra)
			if err != nil {
				l.logger.Warn("lead notification dropped", zap.String("payload", n.Extra), zap.Error(err))
				continue
			}

			middleware.RecordFeedEvent("postgres")
			publish(lead)

		case <-ticker.C:
			if err := ping(); err != nil {
				l.logger.Warn("change feed ping failed", zap.Error(err))
			}
		}
	}
}

func (l *PGListener) decode(ctx context.Context, payload string) (entity.RawLead, error) {
	payload = strings.TrimSpace(payload)

	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		var lead entity.RawLead
		if err := json.Unmarshal([]byte(payload), &lead); err != nil {
			return entity.RawLead{}, fmt.Errorf("malformed payload: %w", err)
		}
		return lead, nil
	}

	if l.rows == nil {
		return entity.RawLead{}, fmt.Errorf("no row reader for id %d", id)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	lead, err := l.rows.GetByID(ctx, id)
	if err != nil {
		middleware.RecordIntegrationError("postgres")
		return entity.RawLead{}, fmt.Errorf("read lead %d: %w", id, err)
	}
	return lead, nil
}
