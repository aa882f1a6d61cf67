package mq

import (
	"fmt"
)

const (
	// AttendanceExchange fans every attendance-event row change out to all
	// interested consumers (live service, audit tooling).
	AttendanceExchange = "attendance_fanout"
)

// SetupTopology declares exchanges. Idempotent; safe to run from every service.
func SetupTopology(mq *RabbitMQ) error {
	ch := mq.Channel()
	if ch == nil {
		return fmt.Errorf("rabbitmq channel not available")
	}

	if err := ch.ExchangeDeclare(
		AttendanceExchange,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		return fmt.Errorf("declare %s: %w", AttendanceExchange, err)
	}

	return nil
}

// DeclareFanoutQueue binds a service-private auto-delete queue to the
// attendance fan-out exchange and returns its name.
func DeclareFanoutQueue(mq *RabbitMQ, name string) (string, error) {
	ch := mq.Channel()
	if ch == nil {
		return "", fmt.Errorf("rabbitmq channel not available")
	}

	queue, err := ch.QueueDeclare(
		name,
		false, // durable
		true,  // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("declare queue %s: %w", name, err)
	}

	if err := ch.QueueBind(queue.Name, "", AttendanceExchange, false, nil); err != nil {
		return "", fmt.Errorf("bind queue %s: %w", queue.Name, err)
	}

	return queue.Name, nil
}
