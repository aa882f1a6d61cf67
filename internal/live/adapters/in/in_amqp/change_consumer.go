// Package in_amqp refreshes the live set whenever the attendance service
// announces a change on the fan-out exchange.
package in_amqp

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"fieldtrack/internal/live/application/usecase"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/mq"
	"fieldtrack/internal/shared/utils"
)

// ChangeConsumer triggers aggregator refreshes from attendance change
// notifications. The payload itself is irrelevant: every refresh is a full
// recompute, so the message only acts as a wake-up.
type ChangeConsumer struct {
	broker     *mq.RabbitMQ
	aggregator *usecase.Aggregator
	log        *logger.Logger
}

func NewChangeConsumer(broker *mq.RabbitMQ, aggregator *usecase.Aggregator, log *logger.Logger) *ChangeConsumer {
	return &ChangeConsumer{broker: broker, aggregator: aggregator, log: log}
}

// Start declares a private queue bound to the attendance exchange and
// consumes until ctx is cancelled.
func (c *ChangeConsumer) Start(ctx context.Context) error {
	// instance-suffixed so parallel live services each get every message
	queueName := fmt.Sprintf("live_service.changes.%s", utils.NewUUID())
	queue, err := mq.DeclareFanoutQueue(c.broker, queueName)
	if err != nil {
		return fmt.Errorf("declare change queue: %w", err)
	}

	return c.broker.Consume(ctx, queue, "live-service", func(msg amqp.Delivery) {
		if err := c.aggregator.Refresh(ctx); err != nil {
			c.log.Warn(logger.Entry{
				Action:  "live_refresh_failed",
				Message: err.Error(),
			})
			_ = msg.Nack(false, false)
			return
		}
		_ = msg.Ack(false)
	})
}
