package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SessionExpirer delivers expiry notifications for sessions past their deadline.
type SessionExpirer interface {
	ExpireSessions(ctx context.Context, now time.Time) int
}

type SessionExpirationWorker struct {
	expirer      SessionExpirer
	tickInterval time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewSessionExpirationWorker(expirer SessionExpirer, tickInterval time.Duration, logger *zap.Logger) *SessionExpirationWorker {
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionExpirationWorker{
		expirer:      expirer,
		tickInterval: tickInterval,
		now:          time.Now,
		logger:       logger,
	}
}

func (w *SessionExpirationWorker) Start(ctx context.Context) {
	w.logger.Info("session expiration worker started", zap.Duration("interval", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("session expiration worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionExpirationWorker) sweep(ctx context.Context) {
	if expired := w.expirer.ExpireSessions(ctx, w.now()); expired > 0 {
		w.logger.Info("sessions expired", zap.Int("count", expired))
	}
}
