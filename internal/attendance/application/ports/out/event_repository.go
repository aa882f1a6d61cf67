package out

import (
	"context"

	"fieldtrack/internal/attendance/domain"
)

// EventRepository persists the per-worker attendance event log.
type EventRepository interface {
	// Append stores a new event row.
	Append(ctx context.Context, event *domain.AttendanceEvent) error

	// LatestByWorker returns the most recent event for the worker, or
	// (nil, nil) when the log is empty.
	LatestByWorker(ctx context.Context, workerID string) (*domain.AttendanceEvent, error)

	// UpdateLocation rewrites the location fields of an existing event row.
	// Used by the periodic sync against the open checkin.
	UpdateLocation(ctx context.Context, eventID string, lat, lon, accuracy float64, address string) error

	// ListByWorker returns the worker's events newest first, up to limit.
	ListByWorker(ctx context.Context, workerID string, limit int) ([]domain.AttendanceEvent, error)
}
