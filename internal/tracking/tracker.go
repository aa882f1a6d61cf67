package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fieldtrack/internal/shared/logger"
)

// Options tune one tracker instance.
type Options struct {
	// FreshFixTimeout bounds how long FreshFix may wait for an acceptable
	// zero-age reading.
	FreshFixTimeout time.Duration

	// MaxSampleAge discards continuous samples that were captured too long
	// before they reached us (stale in transit). FreshFix never reuses a
	// cached reading regardless of this value.
	MaxSampleAge time.Duration
}

func (o Options) withDefaults() Options {
	if o.FreshFixTimeout <= 0 {
		o.FreshFixTimeout = 10 * time.Second
	}
	if o.MaxSampleAge <= 0 {
		o.MaxSampleAge = 3 * time.Second
	}
	return o
}

// Tracker maintains the best known location for one worker. Samples flow
// from the PositionSource through the AccuracyFilter; accepted samples are
// reverse geocoded and become the current fix. Rejected samples only update
// the last error, never the fix.
type Tracker struct {
	workerID string
	source   PositionSource
	filter   AccuracyFilter
	resolver AddressResolver
	opts     Options
	log      *logger.Logger

	mu      sync.Mutex
	fix     *ResolvedLocation
	lastErr error
	cancel  context.CancelFunc

	// gen increments on every stop so that in-flight samples resolved after
	// StopContinuous are discarded instead of applied.
	gen uint64
}

func NewTracker(workerID string, source PositionSource, filter AccuracyFilter, resolver AddressResolver, opts Options, log *logger.Logger) *Tracker {
	return &Tracker{
		workerID: workerID,
		source:   source,
		filter:   filter,
		resolver: resolver,
		opts:     opts.withDefaults(),
		log:      log,
	}
}

// StartContinuous begins the continuous sampling loop. Idempotent: calling
// while already running is a no-op.
func (t *Tracker) StartContinuous(ctx context.Context) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	ch, err := t.source.Watch(runCtx)
	if err != nil {
		cancel()
		werr := fmt.Errorf("%w: %v", ErrSensorUnavailable, err)
		t.lastErr = werr
		t.mu.Unlock()
		return werr
	}

	t.cancel = cancel
	gen := t.gen
	t.mu.Unlock()

	t.log.Info(logger.Entry{
		Action:   "tracking_started",
		Message:  "continuous location tracking started",
		WorkerID: t.workerID,
	})

	go t.loop(runCtx, ch, gen)
	return nil
}

// StopContinuous halts sampling. Safe to call at any time, including
// mid-sample; a sample that completes after the stop is discarded. The last
// resolved fix remains readable.
func (t *Tracker) StopContinuous() {
	t.mu.Lock()
	if t.cancel == nil {
		t.mu.Unlock()
		return
	}
	t.cancel()
	t.cancel = nil
	t.gen++
	t.mu.Unlock()

	t.log.Info(logger.Entry{
		Action:   "tracking_stopped",
		Message:  "continuous location tracking stopped",
		WorkerID: t.workerID,
	})
}

// IsTracking reports whether the continuous loop is running.
func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// CurrentFix returns a copy of the latest accepted, resolved location, or
// nil if none has been produced yet.
func (t *Tracker) CurrentFix() *ResolvedLocation {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fix == nil {
		return nil
	}
	fix := *t.fix
	return &fix
}

// LastError returns the most recent sampling error, or nil. An error never
// hides the last successfully resolved fix.
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// FreshFix forces one immediate zero-age reading, applies the accuracy
// filter and resolves the address. It fails with ErrLowAccuracy or
// ErrSensorUnavailable if no acceptable fix arrives within the bounded wait.
func (t *Tracker) FreshFix(ctx context.Context) (*ResolvedLocation, error) {
	waitCtx, cancel := context.WithTimeout(ctx, t.opts.FreshFixTimeout)
	defer cancel()

	sample, err := t.source.Current(waitCtx, 0)
	if err != nil {
		werr := err
		if !errors.Is(err, ErrSensorUnavailable) && !errors.Is(err, ErrSensorPermissionDenied) {
			werr = fmt.Errorf("%w: %v", ErrSensorUnavailable, err)
		}
		t.setError(werr)
		return nil, werr
	}

	if !t.filter.Accept(sample) {
		lowErr := &LowAccuracyError{AccuracyMeters: sample.AccuracyMeters}
		t.setError(lowErr)
		return nil, lowErr
	}

	fix := t.resolve(ctx, sample)

	t.mu.Lock()
	t.fix = &fix
	t.lastErr = nil
	t.mu.Unlock()

	result := fix
	return &result, nil
}

func (t *Tracker) loop(ctx context.Context, ch <-chan Sample, gen uint64) {
	for sample := range ch {
		select {
		case <-ctx.Done():
			return
		default:
		}
		t.apply(ctx, sample, gen)
	}
}

func (t *Tracker) apply(ctx context.Context, sample Sample, gen uint64) {
	if t.opts.MaxSampleAge > 0 && !sample.CapturedAt.IsZero() &&
		time.Since(sample.CapturedAt) > t.opts.MaxSampleAge {
		return
	}

	if !t.filter.Accept(sample) {
		lowErr := &LowAccuracyError{AccuracyMeters: sample.AccuracyMeters}
		t.mu.Lock()
		if t.gen == gen {
			// keep the previous accepted fix; only record the condition
			t.lastErr = lowErr
		}
		t.mu.Unlock()

		t.log.Debug(logger.Entry{
			Action:   "sample_rejected",
			Message:  lowErr.Error(),
			WorkerID: t.workerID,
			Additional: map[string]any{
				"accuracy_m":  sample.AccuracyMeters,
				"threshold_m": t.filter.ThresholdMeters,
			},
		})
		return
	}

	fix := t.resolve(ctx, sample)

	t.mu.Lock()
	if t.gen != gen {
		// stopped while the sample was in flight
		t.mu.Unlock()
		return
	}
	t.fix = &fix
	t.lastErr = nil
	t.mu.Unlock()

	t.log.Debug(logger.Entry{
		Action:   "fix_updated",
		Message:  fix.Address,
		WorkerID: t.workerID,
		Additional: map[string]any{
			"latitude":   fix.Latitude,
			"longitude":  fix.Longitude,
			"accuracy_m": fix.AccuracyMeters,
		},
	})
}

// resolve geocodes the sample, degrading to FallbackAddress on failure.
// Address resolution is advisory and never blocks the attendance pipeline.
func (t *Tracker) resolve(ctx context.Context, sample Sample) ResolvedLocation {
	address, err := t.resolver.Resolve(ctx, sample.Latitude, sample.Longitude)
	if err != nil {
		t.log.Warn(logger.Entry{
			Action:   "geocode_failed",
			Message:  err.Error(),
			WorkerID: t.workerID,
		})
		address = FallbackAddress
	}

	return ResolvedLocation{
		Latitude:       sample.Latitude,
		Longitude:      sample.Longitude,
		AccuracyMeters: sample.AccuracyMeters,
		Address:        address,
		ResolvedAt:     time.Now().UTC(),
	}
}

func (t *Tracker) setError(err error) {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
}
