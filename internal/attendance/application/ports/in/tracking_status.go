package in

import (
	"context"
	"time"
)

// TrackingStatusInput — inspect a worker's current session and fix.
type TrackingStatusInput struct {
	WorkerID string `json:"worker_id"`
}

// TrackingStatusOutput — derived phase plus the latest tracked fix, if any.
type TrackingStatusOutput struct {
	Phase         string     `json:"phase"`
	Tracking      bool       `json:"tracking"`
	OpenCheckInID *string    `json:"open_checkin_id"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	Address       *string    `json:"address"`
	FixAt         *time.Time `json:"fix_at"`
	LastError     string     `json:"last_error,omitempty"`
}

type TrackingStatusUseCase interface {
	Execute(ctx context.Context, input TrackingStatusInput) (*TrackingStatusOutput, error)
}
