// Package rabbitmq содержит подключение к RabbitMQ и публикацию
// уведомлений о покупках лидов и начислениях кредитов. Уведомления
// потребляет внешний сервис рассылки.
package rabbitmq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Exchange имя exchange для уведомлений маркетплейса.
const Exchange = "marketplace-notifications"

// QueueConfig конфигурация одной очереди и её ключа маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Queues очереди уведомлений по умолчанию.
var Queues = []QueueConfig{
	{QueueName: "lead-purchased", RoutingKey: "lead.purchased"},
	{QueueName: "credits-granted", RoutingKey: "credits.granted"},
}

// Connect подключается к RabbitMQ с ретраями.
func Connect(connection string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"

	var conn *amqp.Connection
	var err error
	for range retries {
		conn, err = amqp.Dial(connection)
		if err == nil {
			return conn, nil
		}
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// SetupChannel открывает канал, объявляет exchange и привязывает очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}

	if err := ch.ExchangeDeclare(Exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s: %w", op, q.QueueName, err)
		}
	}
	return ch, nil
}

// Publisher публикует сообщения в exchange уведомлений.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создаёт Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish сериализует сообщение в JSON и публикует его с ключом routingKey.
func (p *Publisher) Publish(routingKey string, message any) error {
	const op = "rabbitmq.Publish"

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
