package in

import (
	"context"
	"time"
)

// LogVisitInput — record a client visit during an open session. An empty
// LocationOverride means "use the current tracked fix".
type LogVisitInput struct {
	WorkerID         string    `json:"worker_id"`
	ClientName       string    `json:"client_name"`
	Purpose          string    `json:"purpose"`
	FollowUpDate     time.Time `json:"followup_date"`
	LocationOverride string    `json:"location_override"`
}

// LogVisitOutput — the recorded visit and its follow-up reminder.
type LogVisitOutput struct {
	EventID    string    `json:"event_id"`
	FollowUpID string    `json:"followup_id"`
	Location   string    `json:"location"`
	OccurredAt time.Time `json:"occurred_at"`
}

type LogVisitUseCase interface {
	Execute(ctx context.Context, input LogVisitInput) (*LogVisitOutput, error)
}
