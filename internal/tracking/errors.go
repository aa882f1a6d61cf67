package tracking

import (
	"errors"
	"fmt"
)

var (
	// ErrSensorUnavailable means the sensor could not produce a sample
	// within the bounded wait. Recoverable; blocks only the requested
	// operation.
	ErrSensorUnavailable = errors.New("position sensor unavailable")

	// ErrSensorPermissionDenied means the device refused access to the
	// sensor. Fatal to tracking until the user grants permission.
	ErrSensorPermissionDenied = errors.New("position sensor permission denied")

	// ErrLowAccuracy is the sentinel matched by errors.Is for rejected
	// readings; the concrete error is always a *LowAccuracyError.
	ErrLowAccuracy = errors.New("low accuracy")
)

// FallbackAddress is substituted whenever reverse geocoding fails.
const FallbackAddress = "Could not retrieve address"

// LowAccuracyError carries the user-facing guidance for a reading that was
// too imprecise for attendance proof.
type LowAccuracyError struct {
	AccuracyMeters float64
}

func (e *LowAccuracyError) Error() string {
	return fmt.Sprintf(
		"Accuracy is low (%.0fm). For a better signal, try moving to an open area with a clear view of the sky.",
		e.AccuracyMeters,
	)
}

func (e *LowAccuracyError) Is(target error) bool {
	return target == ErrLowAccuracy
}
