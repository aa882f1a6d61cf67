package tracking

import (
	"context"
	"time"
)

// Sample is one raw reading from a positioning sensor. Samples are transient
// and never persisted as-is.
type Sample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	CapturedAt     time.Time
}

// ResolvedLocation is an accuracy-accepted sample with its reverse-geocoded
// address. Owned by the Tracker that produced it.
type ResolvedLocation struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
	Address        string
	ResolvedAt     time.Time
}

// PositionSource abstracts the device positioning sensor.
type PositionSource interface {
	// Current returns one sample no older than maxAge. A zero maxAge forces
	// a fresh reading. Blocks until a sample arrives or ctx is done.
	Current(ctx context.Context, maxAge time.Duration) (Sample, error)

	// Watch streams samples at the sensor's own cadence until ctx is
	// cancelled. The returned channel is closed when the stream ends.
	Watch(ctx context.Context) (<-chan Sample, error)
}

// AddressResolver turns a coordinate into a human-readable place name.
// Failures are advisory; callers substitute FallbackAddress and move on.
type AddressResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (string, error)
}
