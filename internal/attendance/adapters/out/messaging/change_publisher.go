package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fieldtrack/internal/shared/mq"
)

// EventChangedMessage is the fan-out payload for attendance changes.
type EventChangedMessage struct {
	WorkerID string    `json:"worker_id"`
	EventID  string    `json:"event_id"`
	Kind     string    `json:"kind"`
	At       time.Time `json:"at"`
}

// ChangePublisher implements out.ChangePublisher over the attendance
// fan-out exchange.
type ChangePublisher struct {
	mq *mq.RabbitMQ
}

func NewChangePublisher(broker *mq.RabbitMQ) *ChangePublisher {
	return &ChangePublisher{mq: broker}
}

func (p *ChangePublisher) PublishEventChanged(ctx context.Context, workerID, eventID, kind string) error {
	body, err := json.Marshal(EventChangedMessage{
		WorkerID: workerID,
		EventID:  eventID,
		Kind:     kind,
		At:       time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal event changed message: %w", err)
	}
	return p.mq.Publish(ctx, mq.AttendanceExchange, "", body)
}
