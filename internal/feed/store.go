package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

const (
	EventSnapshot = "snapshot"
	EventInsert   = "insert"

	watcherBuffer = 32
)

// Event is what a live view receives. A snapshot event carries the whole
// sequence; an insert event carries the single lead put in front of it.
type Event struct {
	Type    string           `json:"type"`
	Leads   []entity.RawLead `json:"leads"`
	Loading bool             `json:"loading"`
}

type snapshotResult struct {
	leads []entity.RawLead
	err   error
}

// Store is the ordered RawLead sequence of one workspace, newest first.
// It subscribes to the hub before reading the table, buffers early inserts
// and merges them by ID so a row never appears twice.
type Store struct {
	repo     entity.RawLeadRepositoryInterface
	hub      Subscriber
	onStatus func(string)
	logger   *zap.Logger

	mu       sync.RWMutex
	leads    []entity.RawLead
	seen     map[int64]struct{}
	loading  bool
	started  bool
	watchers map[uint64]chan Event
	nextID   uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStore builds an inactive store. onStatus receives user-visible failures.
func NewStore(repo entity.RawLeadRepositoryInterface, hub Subscriber, onStatus func(string), logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if onStatus == nil {
		onStatus = func(string) {}
	}
	return &Store{
		repo:     repo,
		hub:      hub,
		onStatus: onStatus,
		logger:   logger,
		seen:     make(map[int64]struct{}),
		loading:  true,
		watchers: make(map[uint64]chan Event),
		done:     make(chan struct{}),
	}
}

// Start opens the subscription, then issues the bulk read. It returns
// immediately; Snapshot reports loading until the read lands.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	events, unsubscribe := s.hub.Subscribe()
	go s.run(ctx, events, unsubscribe, s.fetch(ctx))
}

func (s *Store) fetch(ctx context.Context) chan snapshotResult {
	snapshots := make(chan snapshotResult, 1)
	go func() {
		leads, err := s.repo.ListNewestFirst(ctx)
		snapshots <- snapshotResult{leads: leads, err: err}
	}()
	return snapshots
}

func (s *Store) run(ctx context.Context, events <-chan entity.RawLead, unsubscribe func(), snapshots chan snapshotResult) {
	defer close(s.done)
	defer func() { unsubscribe() }()

	var pending []entity.RawLead
	loaded := false

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-snapshots:
			s.applySnapshot(res, pending)
			pending = nil
			loaded = true
			snapshots = nil

		case lead, ok := <-events:
			if !ok {
				if s.hubStopped() {
					return
				}
				// dropped by the hub for lagging: resubscribe first, then re-read
				s.logger.Warn("feed subscription lost, resyncing")
				events, unsubscribe = s.hub.Subscribe()
				if loaded {
					loaded = false
					snapshots = s.fetch(ctx)
				}
				continue
			}
			if !loaded {
				pending = append(pending, lead)
				continue
			}
			s.prepend(lead)
		}
	}
}

func (s *Store) hubStopped() bool {
	select {
	case <-s.hub.Done():
		return true
	default:
		return false
	}
}

// applySnapshot replaces the sequence. On a resync the previous rows are
// discarded and rebuilt from the fresh read.
func (s *Store) applySnapshot(res snapshotResult, pending []entity.RawLead) {
	s.mu.Lock()

	if res.err != nil {
		s.logger.Error("raw lead fetch failed", zap.Error(res.err))
	}

	s.seen = make(map[int64]struct{}, len(res.leads)+len(pending))
	s.leads = make([]entity.RawLead, 0, len(res.leads)+len(pending))
	for _, lead := range res.leads {
		if _, dup := s.seen[lead.ID]; dup {
			continue
		}
		s.seen[lead.ID] = struct{}{}
		s.leads = append(s.leads, lead)
	}

	// pending is in arrival order; prepending one by one leaves the newest in front
	for _, lead := range pending {
		if _, dup := s.seen[lead.ID]; dup {
			continue
		}
		s.seen[lead.ID] = struct{}{}
		s.leads = append([]entity.RawLead{lead}, s.leads...)
	}
	s.loading = false

	s.broadcastLocked(Event{Type: EventSnapshot, Leads: s.copyLocked()})
	s.mu.Unlock()

	if res.err != nil {
		s.onStatus("failed to fetch leads: " + res.err.Error())
	}
}

func (s *Store) prepend(lead entity.RawLead) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[lead.ID]; dup {
		return
	}
	s.seen[lead.ID] = struct{}{}
	s.leads = append([]entity.RawLead{lead}, s.leads...)

	s.broadcastLocked(Event{Type: EventInsert, Leads: []entity.RawLead{lead}})
}

// Snapshot returns a copy of the current sequence and whether the initial
// read is still outstanding.
func (s *Store) Snapshot() ([]entity.RawLead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(), s.loading
}

// Watch registers a live view. The first event on the channel is the current
// snapshot; the channel is closed when the store closes or the watcher falls
// behind.
func (s *Store) Watch() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, watcherBuffer)
	ch <- Event{Type: EventSnapshot, Leads: s.copyLocked(), Loading: s.loading}
	s.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.watchers[id]; ok {
				delete(s.watchers, id)
				close(c)
			}
		})
	}
}

// Close stops the subscription and waits for the merge loop to exit.
func (s *Store) Close() {
	s.mu.Lock()
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	if !started {
		return
	}
	cancel()
	<-s.done

	s.mu.Lock()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
	s.mu.Unlock()
}

func (s *Store) broadcastLocked(ev Event) {
	for id, ch := range s.watchers {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("feed watcher too slow, disconnecting", zap.Uint64("watcher", id))
			delete(s.watchers, id)
			close(ch)
		}
	}
}

func (s *Store) copyLocked() []entity.RawLead {
	out := make([]entity.RawLead, len(s.leads))
	copy(out, s.leads)
	return out
}
