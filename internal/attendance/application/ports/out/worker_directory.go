package out

import (
	"context"

	"fieldtrack/internal/attendance/domain"
)

// WorkerDirectory resolves worker identities.
type WorkerDirectory interface {
	// FindByID returns the worker or domain.ErrWorkerNotFound.
	FindByID(ctx context.Context, workerID string) (*domain.Worker, error)
}
