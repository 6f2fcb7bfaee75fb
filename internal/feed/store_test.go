package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xavierca1/leadscout/internal/entity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gatedRepo blocks ListNewestFirst until release is closed.
type gatedRepo struct {
	leads   []entity.RawLead
	err     error
	release chan struct{}
}

func newGatedRepo(leads []entity.RawLead, err error) *gatedRepo {
	return &gatedRepo{leads: leads, err: err, release: make(chan struct{})}
}

func (r *gatedRepo) ListNewestFirst(ctx context.Context) ([]entity.RawLead, error) {
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.leads, r.err
}

func lead(id int64) entity.RawLead {
	return entity.RawLead{ID: id, CreatedAt: time.Unix(id*60, 0).UTC()}
}

func ids(leads []entity.RawLead) []int64 {
	out := make([]int64, 0, len(leads))
	for _, l := range leads {
		out = append(out, l.ID)
	}
	return out
}

func waitForIDs(t *testing.T, s *Store, want []int64) {
	t.Helper()
	assert.Eventually(t, func() bool {
		leads, loading := s.Snapshot()
		return !loading && assert.ObjectsAreEqual(want, ids(leads))
	}, time.Second, 5*time.Millisecond)
}

func TestStoreKeepsNewestFirstAcrossInserts(t *testing.T) {
	hub := NewHub(8, zaptest.NewLogger(t))
	repo := newGatedRepo([]entity.RawLead{lead(3), lead(2), lead(1)}, nil)
	close(repo.release)

	store := NewStore(repo, hub, nil, zaptest.NewLogger(t))
	store.Start(context.Background())
	defer store.Close()

	waitForIDs(t, store, []int64{3, 2, 1})

	for id := int64(4); id <= 10; id++ {
		hub.Publish(lead(id))
	}

	waitForIDs(t, store, []int64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1})
}

func TestStoreReportsLoadingUntilSnapshotLands(t *testing.T) {
	hub := NewHub(8, nil)
	repo := newGatedRepo([]entity.RawLead{lead(1)}, nil)

	store := NewStore(repo, hub, nil, nil)
	store.Start(context.Background())
	defer store.Close()

	leads, loading := store.Snapshot()
	assert.True(t, loading)
	assert.Empty(t, leads)

	close(repo.release)
	waitForIDs(t, store, []int64{1})
}

func TestStoreMergesInsertsRacingTheSnapshot(t *testing.T) {
	hub := NewHub(8, nil)
	// rows 3 and 4 are inserted after the subscription opened; row 3 also made it into the read
	repo := newGatedRepo([]entity.RawLead{lead(3), lead(2), lead(1)}, nil)

	store := NewStore(repo, hub, nil, nil)
	store.Start(context.Background())
	defer store.Close()

	hub.Publish(lead(3))
	hub.Publish(lead(4))
	// give the merge loop a moment to buffer both events
	time.Sleep(20 * time.Millisecond)
	close(repo.release)

	waitForIDs(t, store, []int64{4, 3, 2, 1})

	hub.Publish(lead(4))
	hub.Publish(lead(5))
	waitForIDs(t, store, []int64{5, 4, 3, 2, 1})
}

// tableRepo serves whatever rows are currently set.
type tableRepo struct {
	mu    sync.Mutex
	leads []entity.RawLead
	reads int
}

func (r *tableRepo) ListNewestFirst(context.Context) ([]entity.RawLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	return append([]entity.RawLead(nil), r.leads...), nil
}

func (r *tableRepo) set(leads ...entity.RawLead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = leads
}

func (r *tableRepo) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func TestStoreResyncsAfterFallingBehind(t *testing.T) {
	hub := NewHub(1, nil)
	repo := &tableRepo{}

	store := NewStore(repo, hub, nil, nil)
	store.Start(context.Background())
	defer store.Close()
	waitForIDs(t, store, []int64{})

	// hold the merge loop so the one-slot subscription overflows
	store.mu.Lock()
	hub.Publish(lead(1))
	hub.Publish(lead(2))
	hub.Publish(lead(3))
	repo.set(lead(3), lead(2), lead(1))
	store.mu.Unlock()

	waitForIDs(t, store, []int64{3, 2, 1})
	assert.Equal(t, 2, repo.readCount())
	assert.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(lead(4))
	waitForIDs(t, store, []int64{4, 3, 2, 1})
}

func TestStoreStopsWhenHubStops(t *testing.T) {
	hub := NewHub(4, nil)
	repo := &tableRepo{}
	repo.set(lead(1))

	store := NewStore(repo, hub, nil, nil)
	store.Start(context.Background())
	defer store.Close()
	waitForIDs(t, store, []int64{1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, hub.Run(ctx, scriptedSource{}))

	assert.Eventually(t, func() bool {
		select {
		case <-store.done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, repo.readCount(), "hub shutdown is not a resync")
}

func TestStoreSnapshotFailureSetsStatus(t *testing.T) {
	hub := NewHub(8, nil)
	repo := newGatedRepo(nil, errors.New("JWT expired"))
	close(repo.release)

	var mu sync.Mutex
	var status string
	store := NewStore(repo, hub, func(s string) {
		mu.Lock()
		defer mu.Unlock()
		status = s
	}, nil)
	store.Start(context.Background())
	defer store.Close()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return status == "failed to fetch leads: JWT expired"
	}, time.Second, 5*time.Millisecond)

	leads, loading := store.Snapshot()
	assert.False(t, loading)
	assert.Empty(t, leads)
}

func TestStoreWatchStreamsSnapshotThenInserts(t *testing.T) {
	hub := NewHub(8, nil)
	repo := newGatedRepo([]entity.RawLead{lead(1)}, nil)

	store := NewStore(repo, hub, nil, nil)
	store.Start(context.Background())

	events, stop := store.Watch()
	defer stop()

	first := <-events
	assert.Equal(t, EventSnapshot, first.Type)
	assert.True(t, first.Loading)

	close(repo.release)
	loaded := <-events
	assert.Equal(t, EventSnapshot, loaded.Type)
	assert.Equal(t, []int64{1}, ids(loaded.Leads))

	hub.Publish(lead(2))
	inserted := <-events
	assert.Equal(t, EventInsert, inserted.Type)
	assert.Equal(t, []int64{2}, ids(inserted.Leads))

	store.Close()
	_, open := <-events
	assert.False(t, open)
}

func TestStoreCloseUnsubscribesFromHub(t *testing.T) {
	hub := NewHub(8, nil)
	repo := newGatedRepo(nil, nil)

	store := NewStore(repo, hub, nil, nil)
	store.Start(context.Background())
	require.Equal(t, 1, hub.Subscribers())

	store.Close()
	store.Close()

	assert.Equal(t, 0, hub.Subscribers())
}
