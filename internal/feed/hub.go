package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

// Source delivers raw-lead insert events until ctx is done.
type Source interface {
	Run(ctx context.Context, publish func(entity.RawLead)) error
}

// Subscriber is the part of Hub a Store depends on. A subscription channel
// closed before Done means the subscriber fell behind and must resync.
type Subscriber interface {
	Subscribe() (<-chan entity.RawLead, func())
	Done() <-chan struct{}
}

// Hub holds the single process-wide insert subscription and fans every event
// out to the stores of the live workspaces.
type Hub struct {
	mu         sync.RWMutex
	subs       map[uint64]chan entity.RawLead
	next       uint64
	stopped    bool
	done       chan struct{}
	bufferSize int
	logger     *zap.Logger
}

func NewHub(bufferSize int, logger *zap.Logger) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:       make(map[uint64]chan entity.RawLead),
		done:       make(chan struct{}),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Run blocks on the source until ctx is cancelled or the source fails.
func (h *Hub) Run(ctx context.Context, source Source) error {
	h.logger.Info("change feed started")
	err := source.Run(ctx, h.Publish)
	h.closeAll()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Publish never blocks. A subscriber whose buffer is full is dropped: its
// channel is closed so it can resubscribe and re-read the table.
func (h *Hub) Publish(lead entity.RawLead) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- lead:
		default:
			h.logger.Warn("feed subscriber lagging, dropped for resync",
				zap.Uint64("subscriber", id),
				zap.Int64("lead_id", lead.ID),
			)
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Subscribe after the hub stopped returns an already closed channel.
func (h *Hub) Subscribe() (<-chan entity.RawLead, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		ch := make(chan entity.RawLead)
		close(ch)
		return ch, func() {}
	}

	id := h.next
	h.next++
	ch := make(chan entity.RawLead, h.bufferSize)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}

	return ch, cancel
}

// Done is closed once the source has ended and no more events will come.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	close(h.done)
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
