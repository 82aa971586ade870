package event

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DioGolang/GoStock/pkg/events"
	tracing "github.com/DioGolang/GoStock/pkg/otel"
)

const DefaultExchange = "amq.direct"

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends outbox payloads to RabbitMQ, routing by topic.
type Publisher struct {
	channel  amqpPublisher
	exchange string
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(ch amqpPublisher, exchange string) *Publisher {
	return &Publisher{channel: ch, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte, headers map[string]string) error {
	table := make(amqp.Table, len(headers)+2)
	for k, v := range headers {
		table[k] = v
	}
	tracing.InjectInto(ctx, table)

	return p.channel.PublishWithContext(
		ctx,
		p.exchange,
		topic,
		false,
		false,
		amqp.Publishing{
			Headers:      table,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    headers["x-event-id"],
			Timestamp:    time.Now(),
			Body:         payload,
		})
}
