package out

import (
	"context"

	"fieldtrack/internal/attendance/domain"
)

// FollowUpRepository persists visit follow-up reminders.
type FollowUpRepository interface {
	Create(ctx context.Context, followUp *domain.FollowUp) error

	// ListByWorker returns the worker's follow-ups newest first, up to limit.
	ListByWorker(ctx context.Context, workerID string, limit int) ([]domain.FollowUp, error)
}
