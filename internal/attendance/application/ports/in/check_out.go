package in

import (
	"context"
	"time"
)

// CheckOutInput — end the worker's open session.
type CheckOutInput struct {
	WorkerID string `json:"worker_id"`
}

// CheckOutOutput — the recorded checkout event. Location fields are nil when
// no usable fix was available at checkout time.
type CheckOutOutput struct {
	EventID    string    `json:"event_id"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	Address    *string   `json:"address"`
	OccurredAt time.Time `json:"occurred_at"`
}

type CheckOutUseCase interface {
	Execute(ctx context.Context, input CheckOutInput) (*CheckOutOutput, error)
}
