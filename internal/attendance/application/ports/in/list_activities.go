package in

import (
	"context"

	"fieldtrack/internal/attendance/domain"
)

// ListActivitiesInput — the worker's recent attendance history.
type ListActivitiesInput struct {
	WorkerID string `json:"worker_id"`
	Limit    int    `json:"limit"`
}

type ListActivitiesOutput struct {
	Events []domain.AttendanceEvent `json:"events"`
}

type ListActivitiesUseCase interface {
	Execute(ctx context.Context, input ListActivitiesInput) (*ListActivitiesOutput, error)
}
