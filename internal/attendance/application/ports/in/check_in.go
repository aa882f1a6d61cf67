package in

import (
	"context"
	"time"
)

// CheckInInput — start a work session for the worker.
type CheckInInput struct {
	WorkerID string `json:"worker_id"`
}

// CheckInOutput — the recorded checkin event.
type CheckInOutput struct {
	EventID    string    `json:"event_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Address    string    `json:"address"`
	OccurredAt time.Time `json:"occurred_at"`
}

type CheckInUseCase interface {
	Execute(ctx context.Context, input CheckInInput) (*CheckInOutput, error)
}
