package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/shared/logger"
)

type fakeSource struct {
	mu      sync.Mutex
	sample  Sample
	err     error
	blocked bool

	feed chan Sample
}

func newFakeSource() *fakeSource {
	return &fakeSource{feed: make(chan Sample)}
}

func (f *fakeSource) set(s Sample, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample, f.err = s, err
}

func (f *fakeSource) Current(ctx context.Context, _ time.Duration) (Sample, error) {
	f.mu.Lock()
	blocked, sample, err := f.blocked, f.sample, f.err
	f.mu.Unlock()
	if blocked {
		<-ctx.Done()
		return Sample{}, ctx.Err()
	}
	return sample, err
}

func (f *fakeSource) Watch(ctx context.Context) (<-chan Sample, error) {
	out := make(chan Sample)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-f.feed:
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type staticResolver struct {
	addr string
	err  error
}

func (r staticResolver) Resolve(context.Context, float64, float64) (string, error) {
	return r.addr, r.err
}

// gateResolver blocks inside Resolve until released, so tests can stop the
// tracker while a sample is mid-resolution.
type gateResolver struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateResolver) Resolve(context.Context, float64, float64) (string, error) {
	g.entered <- struct{}{}
	<-g.release
	return "Somewhere", nil
}

func newTestTracker(src PositionSource, res AddressResolver, opts Options) *Tracker {
	return NewTracker("worker-1", src, NewAccuracyFilter(50), res, opts, logger.NewLogger("test"))
}

func TestFreshFixResolvesAddress(t *testing.T) {
	src := newFakeSource()
	src.set(Sample{Latitude: 12.97, Longitude: 77.59, AccuracyMeters: 12, CapturedAt: time.Now()}, nil)
	tr := newTestTracker(src, staticResolver{addr: "1 Main St"}, Options{})

	fix, err := tr.FreshFix(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12.97, fix.Latitude)
	assert.Equal(t, "1 Main St", fix.Address)
	assert.NoError(t, tr.LastError())

	current := tr.CurrentFix()
	require.NotNil(t, current)
	assert.Equal(t, fix.Address, current.Address)
}

func TestFreshFixLowAccuracyKeepsPreviousFix(t *testing.T) {
	src := newFakeSource()
	src.set(Sample{Latitude: 12.97, Longitude: 77.59, AccuracyMeters: 50, CapturedAt: time.Now()}, nil)
	tr := newTestTracker(src, staticResolver{addr: "1 Main St"}, Options{})

	_, err := tr.FreshFix(context.Background())
	require.NoError(t, err, "exactly the threshold must pass")

	src.set(Sample{Latitude: 12.98, Longitude: 77.60, AccuracyMeters: 51, CapturedAt: time.Now()}, nil)
	_, err = tr.FreshFix(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLowAccuracy)
	assert.Contains(t, err.Error(), "Accuracy is low (51m)")

	fix := tr.CurrentFix()
	require.NotNil(t, fix)
	assert.Equal(t, 12.97, fix.Latitude, "rejected sample must not replace the fix")
	assert.ErrorIs(t, tr.LastError(), ErrLowAccuracy)
}

func TestFreshFixTimeout(t *testing.T) {
	src := newFakeSource()
	src.blocked = true
	tr := newTestTracker(src, staticResolver{addr: "x"}, Options{FreshFixTimeout: 30 * time.Millisecond})

	_, err := tr.FreshFix(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSensorUnavailable)
}

func TestFreshFixPermissionDeniedPassedThrough(t *testing.T) {
	src := newFakeSource()
	src.set(Sample{}, ErrSensorPermissionDenied)
	tr := newTestTracker(src, staticResolver{addr: "x"}, Options{})

	_, err := tr.FreshFix(context.Background())
	assert.ErrorIs(t, err, ErrSensorPermissionDenied)
	assert.NotErrorIs(t, err, ErrSensorUnavailable)
}

func TestFreshFixGeocodeFailureFallsBack(t *testing.T) {
	src := newFakeSource()
	src.set(Sample{Latitude: 1, Longitude: 2, AccuracyMeters: 10, CapturedAt: time.Now()}, nil)
	tr := newTestTracker(src, staticResolver{err: errors.New("boom")}, Options{})

	fix, err := tr.FreshFix(context.Background())
	require.NoError(t, err, "geocode failure must not fail the fix")
	assert.Equal(t, FallbackAddress, fix.Address)
}

func TestContinuousUpdatesFixAndSurvivesBadSamples(t *testing.T) {
	src := newFakeSource()
	tr := newTestTracker(src, staticResolver{addr: "Route 9"}, Options{})

	require.NoError(t, tr.StartContinuous(context.Background()))
	defer tr.StopContinuous()
	assert.True(t, tr.IsTracking())

	src.feed <- Sample{Latitude: 10, Longitude: 20, AccuracyMeters: 15, CapturedAt: time.Now()}
	require.Eventually(t, func() bool {
		fix := tr.CurrentFix()
		return fix != nil && fix.Latitude == 10
	}, time.Second, 5*time.Millisecond)

	src.feed <- Sample{Latitude: 11, Longitude: 21, AccuracyMeters: 90, CapturedAt: time.Now()}
	require.Eventually(t, func() bool {
		return errors.Is(tr.LastError(), ErrLowAccuracy)
	}, time.Second, 5*time.Millisecond)

	fix := tr.CurrentFix()
	require.NotNil(t, fix)
	assert.Equal(t, 10.0, fix.Latitude, "low accuracy sample must not overwrite the fix")
}

func TestContinuousDiscardsStaleSamples(t *testing.T) {
	src := newFakeSource()
	tr := newTestTracker(src, staticResolver{addr: "Route 9"}, Options{MaxSampleAge: 3 * time.Second})

	require.NoError(t, tr.StartContinuous(context.Background()))
	defer tr.StopContinuous()

	src.feed <- Sample{Latitude: 99, Longitude: 99, AccuracyMeters: 5, CapturedAt: time.Now().Add(-time.Minute)}
	src.feed <- Sample{Latitude: 10, Longitude: 20, AccuracyMeters: 5, CapturedAt: time.Now()}

	require.Eventually(t, func() bool {
		fix := tr.CurrentFix()
		return fix != nil && fix.Latitude == 10
	}, time.Second, 5*time.Millisecond)
}

func TestStopDiscardsInFlightSample(t *testing.T) {
	src := newFakeSource()
	gate := &gateResolver{entered: make(chan struct{}), release: make(chan struct{})}
	tr := newTestTracker(src, gate, Options{})

	require.NoError(t, tr.StartContinuous(context.Background()))

	src.feed <- Sample{Latitude: 10, Longitude: 20, AccuracyMeters: 15, CapturedAt: time.Now()}
	<-gate.entered

	tr.StopContinuous()
	close(gate.release)

	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, tr.CurrentFix(), "sample completing after stop must be discarded")
	assert.False(t, tr.IsTracking())
}

func TestStartContinuousIsIdempotent(t *testing.T) {
	src := newFakeSource()
	tr := newTestTracker(src, staticResolver{addr: "x"}, Options{})

	require.NoError(t, tr.StartContinuous(context.Background()))
	require.NoError(t, tr.StartContinuous(context.Background()))
	assert.True(t, tr.IsTracking())

	tr.StopContinuous()
	tr.StopContinuous()
	assert.False(t, tr.IsTracking())
}
