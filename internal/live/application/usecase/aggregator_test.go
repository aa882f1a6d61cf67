package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/live/domain"
	"fieldtrack/internal/shared/logger"
)

type stubReader struct {
	mu    sync.Mutex
	fixes []domain.Fix
	err   error
}

func (r *stubReader) LatestFixes(context.Context) ([]domain.Fix, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return append([]domain.Fix(nil), r.fixes...), nil
}

func (r *stubReader) set(fixes []domain.Fix) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = fixes
}

func fix(workerID string, lat, lon float64) domain.Fix {
	return domain.Fix{
		WorkerID:   workerID,
		WorkerName: "Worker " + workerID,
		Latitude:   lat,
		Longitude:  lon,
		LastSeenAt: time.Now().UTC(),
	}
}

func TestRefreshBuildsLiveSet(t *testing.T) {
	reader := &stubReader{fixes: []domain.Fix{
		fix("w2", 12.98, 77.60),
		fix("w1", 12.97, 77.59),
	}}
	agg := NewAggregator(reader, logger.NewLogger("test"))

	require.NoError(t, agg.Refresh(context.Background()))

	snapshot := agg.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "w1", snapshot[0].WorkerID, "snapshot ordered by worker id")
	assert.Equal(t, "w2", snapshot[1].WorkerID)
}

func TestRefreshIsIdempotentAndDropsDepartedWorkers(t *testing.T) {
	reader := &stubReader{fixes: []domain.Fix{fix("w1", 1, 1), fix("w2", 2, 2)}}
	agg := NewAggregator(reader, logger.NewLogger("test"))

	require.NoError(t, agg.Refresh(context.Background()))
	require.NoError(t, agg.Refresh(context.Background()))
	assert.Len(t, agg.Snapshot(), 2, "repeated refresh must not duplicate")

	// w2 checked out: next refresh drops it
	reader.set([]domain.Fix{fix("w1", 1, 1)})
	require.NoError(t, agg.Refresh(context.Background()))

	snapshot := agg.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "w1", snapshot[0].WorkerID)
}

func TestRefreshErrorKeepsPreviousSet(t *testing.T) {
	reader := &stubReader{fixes: []domain.Fix{fix("w1", 1, 1)}}
	agg := NewAggregator(reader, logger.NewLogger("test"))
	require.NoError(t, agg.Refresh(context.Background()))

	reader.mu.Lock()
	reader.err = errors.New("db down")
	reader.mu.Unlock()

	require.Error(t, agg.Refresh(context.Background()))
	assert.Len(t, agg.Snapshot(), 1, "failed refresh must not clear the set")
}

func TestFixesWithinBoundingBox(t *testing.T) {
	reader := &stubReader{fixes: []domain.Fix{
		fix("inside", 12.97, 77.59),
		fix("edge", 13.00, 78.00),
		fix("outside", 28.61, 77.21),
	}}
	agg := NewAggregator(reader, logger.NewLogger("test"))
	require.NoError(t, agg.Refresh(context.Background()))

	result, err := agg.FixesWithin(domain.BoundingBox{MinLat: 12.90, MinLon: 77.50, MaxLat: 13.00, MaxLon: 78.00})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "edge", result[0].WorkerID)
	assert.Equal(t, "inside", result[1].WorkerID)

	_, err = agg.FixesWithin(domain.BoundingBox{MinLat: 10, MinLon: 10, MaxLat: 5, MaxLon: 5})
	assert.Error(t, err, "inverted box must be rejected")
}

func TestSubscribersReceiveSnapshots(t *testing.T) {
	reader := &stubReader{fixes: []domain.Fix{fix("w1", 1, 1)}}
	agg := NewAggregator(reader, logger.NewLogger("test"))

	id, ch := agg.Subscribe()
	defer agg.Unsubscribe(id)

	require.NoError(t, agg.Refresh(context.Background()))

	select {
	case snapshot := <-ch:
		require.Len(t, snapshot, 1)
		assert.Equal(t, "w1", snapshot[0].WorkerID)
	case <-time.After(time.Second):
		t.Fatal("subscriber not notified")
	}

	agg.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open, "unsubscribe must close the channel")
}
