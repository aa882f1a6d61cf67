// Package simsensor provides a simulated positioning sensor for local
// development and load generation. It performs a random walk around a start
// coordinate and occasionally emits a low-accuracy reading so the accuracy
// filter path gets exercised.
package simsensor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fieldtrack/internal/tracking"
)

const (
	// ~10m per step at the equator.
	stepDegrees = 0.0001

	goodAccuracyMin = 5.0
	goodAccuracyMax = 35.0
	badAccuracyMin  = 60.0
	badAccuracyMax  = 140.0
)

// Sensor implements tracking.PositionSource with a random walk.
type Sensor struct {
	interval time.Duration
	// lowAccuracyRate is the fraction of samples emitted above the usual
	// accuracy band, in [0, 1].
	lowAccuracyRate float64

	mu  sync.Mutex
	lat float64
	lon float64
	rng *rand.Rand
}

func New(startLat, startLon float64, interval time.Duration, lowAccuracyRate float64, seed int64) *Sensor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Sensor{
		interval:        interval,
		lowAccuracyRate: lowAccuracyRate,
		lat:             startLat,
		lon:             startLon,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

func (s *Sensor) next() tracking.Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lat += (s.rng.Float64()*2 - 1) * stepDegrees
	s.lon += (s.rng.Float64()*2 - 1) * stepDegrees

	accuracy := goodAccuracyMin + s.rng.Float64()*(goodAccuracyMax-goodAccuracyMin)
	if s.rng.Float64() < s.lowAccuracyRate {
		accuracy = badAccuracyMin + s.rng.Float64()*(badAccuracyMax-badAccuracyMin)
	}

	return tracking.Sample{
		Latitude:       s.lat,
		Longitude:      s.lon,
		AccuracyMeters: accuracy,
		CapturedAt:     time.Now().UTC(),
	}
}

// Current produces a fresh simulated reading immediately.
func (s *Sensor) Current(ctx context.Context, _ time.Duration) (tracking.Sample, error) {
	select {
	case <-ctx.Done():
		return tracking.Sample{}, ctx.Err()
	default:
	}
	return s.next(), nil
}

// Watch emits a sample every interval until ctx is cancelled.
func (s *Sensor) Watch(ctx context.Context) (<-chan tracking.Sample, error) {
	ch := make(chan tracking.Sample)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- s.next():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
