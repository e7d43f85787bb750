package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// QueueConfig описывает очередь и ключ маршрутизации для одного потребителя.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetCheckoutQueues возвращает очереди ядра оформления покупки.
// Очередь payment.pending читает воркер сбора оплаты: он получает
// {account_uid, subscription_id} успешной попытки и позже подтверждает связку.
func GetCheckoutQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "payment.pending", RoutingKey: "provisioned"},
	}
}

// SetupQueues объявляет exchange, очереди и привязки для оформления покупки.
func SetupQueues(ch *amqp.Channel, exchange string, queues []QueueConfig) error {
	const op = "rabbitmq.SetupQueues"

	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, exchange, false, nil); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}
