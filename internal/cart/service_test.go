package cart

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
	"github.com/angelmondragon/marketplace-core/pkg/logger"
	"github.com/angelmondragon/marketplace-core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func newTestService(t *testing.T, repo Repository, async bool) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repository:    repo,
		Async:         async,
		FlushInterval: 10 * time.Millisecond,
		Metrics:       metrics.NewCartMetrics(prometheus.NewRegistry()),
		Logger:        testLogger(),
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: testLogger()})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repository: NewMemoryRepository()})
	assert.Error(t, err)
}

func TestServiceSyncPersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, false)

	p1 := Product{ID: "p1", Price: dec(t, "10.00"), VendorID: "v1"}
	view, err := svc.AddItem(ctx, "owner-1", p1, 2, nil)
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(dec(t, "20.00")))
	lineID := view.Lines[0].ID

	_, err = svc.UpdateQuantity(ctx, "owner-1", lineID, 5)
	require.NoError(t, err)
	_, err = svc.RemoveItem(ctx, "owner-1", "missing")
	require.NoError(t, err)

	assert.Equal(t, 2, repo.saveCount(), "no-op removal must not write")

	stored, err := repo.inner.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Count())
}

func TestServiceLoadsPersistedCartLazily(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Save(ctx, "owner-1", sampleCart(t)))

	svc := newTestService(t, repo, false)
	view, err := svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, view.Count)
	assert.Len(t, view.VendorSubtotals, 2)
}

func TestServiceSyncFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, false)

	repo.setFail(errors.New("disk full"))
	view, err := svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "2.50")}, 2, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence), "unexpected error %v", err)
	assert.Equal(t, 2, view.Count)

	current, err := svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, current.Total.Equal(dec(t, "5.00")), "in-memory state must stay authoritative")

	repo.setFail(nil)
	_, err = svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "2.50")}, 1, nil)
	require.NoError(t, err)

	stored, err := repo.inner.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Count(), "next successful write carries the full snapshot")
}

func TestServiceSyncFailureIsRetriedByFlush(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, false)

	repo.setFail(errors.New("disk full"))
	_, err := svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "2.50")}, 2, nil)
	require.Error(t, err)
	assert.Equal(t, 1, svc.Pending(), "failed sync write is queued")

	assert.Error(t, svc.Flush(ctx))
	assert.Equal(t, 1, svc.Pending(), "still queued while the store is down")

	repo.setFail(nil)
	require.NoError(t, svc.Flush(ctx))
	assert.Equal(t, 0, svc.Pending())

	stored, err := repo.inner.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Count(), "retry persists without another mutation")
}

func TestServiceSyncRunRetriesFailedWrites(t *testing.T) {
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, false)

	repo.setFail(errors.New("disk full"))
	_, err := svc.AddItem(context.Background(), "owner-1", Product{ID: "p1", Price: dec(t, "1.00")}, 3, nil)
	require.Error(t, err)
	repo.setFail(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return svc.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	stored, err := repo.inner.Load(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Count())
}

func TestServiceEvictsIdleCleanEntries(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, true)
	svc.idleTTL = time.Minute
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	_, err := svc.AddItem(ctx, "clean", Product{ID: "p1", Price: dec(t, "1.00")}, 2, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Flush(ctx))
	_, err = svc.AddItem(ctx, "dirty", Product{ID: "p1", Price: dec(t, "1.00")}, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.Cached())

	assert.Zero(t, svc.evictIdle(ctx, clock.Add(30*time.Second)), "recently used entries stay")

	assert.Equal(t, 1, svc.evictIdle(ctx, clock.Add(2*time.Minute)))
	assert.Nil(t, svc.lookup("clean"))
	assert.NotNil(t, svc.lookup("dirty"), "unsaved changes are never dropped")

	view, err := svc.Get(ctx, "clean")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count, "evicted cart reloads from the repository")

	require.NoError(t, svc.Flush(ctx))
	assert.Equal(t, 2, svc.evictIdle(ctx, clock.Add(time.Hour)))
	assert.Zero(t, svc.Cached())
}

func TestServiceIdleEvictionCanBeDisabled(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository(), false)
	svc.idleTTL = -1

	_, err := svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "1.00")}, 1, nil)
	require.NoError(t, err)
	assert.Zero(t, svc.evictIdle(ctx, time.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, svc.Cached())
}

func TestServiceLoadFailureIsPersistenceError(t *testing.T) {
	repo := &recordingRepo{inner: NewMemoryRepository(), loadErr: errors.New("timeout")}
	svc := newTestService(t, repo, false)

	_, err := svc.Get(context.Background(), "owner-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
}

func TestServiceRejectsEmptyOwnerAndBadInput(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, false)

	_, err := svc.Get(ctx, " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "1")}, 0, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 0, repo.saveCount())
}

func TestServiceAppliesConcurrentCallsWithoutLoss(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, NewMemoryRepository(), false)
	p := Product{ID: "p1", Price: dec(t, "1.00")}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.AddItem(ctx, "owner-1", p, 1, nil)
		}()
	}
	wg.Wait()

	view, err := svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 50, view.Count)
}

func TestServiceAsyncFlushWritesLatestState(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, true)

	p := Product{ID: "p1", Price: dec(t, "4.00")}
	for i := 0; i < 5; i++ {
		_, err := svc.AddItem(ctx, "owner-1", p, 1, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, repo.saveCount(), "async mode defers writes")
	assert.Equal(t, 1, svc.Pending())

	require.NoError(t, svc.Flush(ctx))
	assert.Equal(t, 1, repo.saveCount(), "mutations coalesce into one write")
	assert.Equal(t, 0, svc.Pending())

	stored, err := repo.inner.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Count())

	require.NoError(t, svc.Flush(ctx))
	assert.Equal(t, 1, repo.saveCount(), "clean owners are not rewritten")
}

func TestServiceAsyncFailureRetriesOnNextFlush(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, true)

	_, err := svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "1.00")}, 1, nil)
	require.NoError(t, err, "async callers never see write failures")

	repo.setFail(errors.New("redis down"))
	assert.Error(t, svc.Flush(ctx))
	assert.Equal(t, 1, svc.Pending())

	repo.setFail(nil)
	_, err = svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "1.00")}, 2, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Flush(ctx))

	stored, err := repo.inner.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Count())
}

func TestServiceRunDrainsOnShutdown(t *testing.T) {
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, true)
	svc.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	_, err := svc.AddItem(context.Background(), "owner-1", Product{ID: "p1", Price: dec(t, "1.00")}, 3, nil)
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("flusher did not stop")
	}

	stored, err := repo.inner.Load(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Count())
}

func TestServiceResetFlushesAndEvicts(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, true)

	_, err := svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "1.00")}, 2, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, "owner-1"))
	assert.Nil(t, svc.lookup("owner-1"))

	stored, err := repo.inner.Load(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Count())

	require.NoError(t, svc.Flush(ctx), "evicted owners are skipped")
	view, err := svc.Get(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count, "reloaded from the repository")
}

func TestServiceMutateRunsUnderOwnerLock(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{inner: NewMemoryRepository()}
	svc := newTestService(t, repo, false)
	_, err := svc.AddItem(ctx, "owner-1", Product{ID: "p1", Price: dec(t, "1.00")}, 2, nil)
	require.NoError(t, err)

	boom := errors.New("declined")
	view, err := svc.Mutate(ctx, "owner-1", "checkout", func(c *Cart) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 1, repo.saveCount())

	view, err = svc.Mutate(ctx, "owner-1", "checkout", func(c *Cart) (bool, error) {
		c.Clear()
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, view.Count)
	assert.Equal(t, 2, repo.saveCount())
}

type recordingRepo struct {
	inner   *MemoryRepository
	mu      sync.Mutex
	saves   int
	failErr error
	loadErr error
}

func (r *recordingRepo) Load(ctx context.Context, owner string) (*Cart, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.inner.Load(ctx, owner)
}

func (r *recordingRepo) Save(ctx context.Context, owner string, c *Cart) error {
	r.mu.Lock()
	failErr := r.failErr
	r.mu.Unlock()
	if failErr != nil {
		return failErr
	}
	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	return r.inner.Save(ctx, owner, c)
}

func (r *recordingRepo) setFail(err error) {
	r.mu.Lock()
	r.failErr = err
	r.mu.Unlock()
}

func (r *recordingRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
