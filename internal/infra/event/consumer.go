package event

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
	tracing "github.com/DioGolang/GoStock/pkg/otel"
)

type Consumer struct {
	Conn     *amqp.Connection
	Exchange string
	Handler  MessageHandler
	Name     string
	Logger   logger.Logger
	Metrics  metrics.Metrics
}

func NewConsumer(
	conn *amqp.Connection,
	exchange string,
	name string,
	handler MessageHandler,
	l logger.Logger,
	m metrics.Metrics,
) *Consumer {
	return &Consumer{
		Conn:     conn,
		Exchange: exchange,
		Handler:  handler,
		Name:     name,
		Logger:   l,
		Metrics:  m,
	}
}

// Start consumes queueName, bound to routingKeys, until ctx is done or the
// broker closes the channel.
func (c *Consumer) Start(ctx context.Context, queueName string, routingKeys ...string) error {
	ch, err := c.Conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := c.setupTopology(ch, queueName, routingKeys); err != nil {
		return fmt.Errorf("error when configuring topology: %w", err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		queueName,
		c.Name,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	c.Logger.Info(ctx, "Waiting for messages", logger.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}
			c.handleDelivery(ctx, queueName, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, queueName string, d amqp.Delivery) {
	ctx = tracing.ExtractFrom(ctx, d.Headers)

	tracer := otel.GetTracerProvider().Tracer("worker-tracer")
	ctx, span := tracer.Start(ctx, "ConsumeOrderEvent", trace.WithAttributes(
		attribute.String("queue.name", queueName),
		attribute.String("messaging.message_id", d.MessageId),
		attribute.String("messaging.routing_key", d.RoutingKey),
	))
	defer span.End()

	err := c.Handler(ctx, d.Body, d.Headers)
	switch {
	case err == nil:
		c.ack(ctx, d)
		c.Metrics.IncConsumerMessages(c.Name, "ack")
	case errors.Is(err, ErrPoisonMessage):
		c.Logger.Error(ctx, "Dropping undeliverable message",
			logger.String("message_id", d.MessageId),
			logger.WithError(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.nack(ctx, d, false)
		c.Metrics.IncConsumerMessages(c.Name, "dropped")
	default:
		c.Logger.Warn(ctx, "Handler failed, requeueing",
			logger.String("message_id", d.MessageId),
			logger.WithError(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.nack(ctx, d, true)
		c.Metrics.IncConsumerMessages(c.Name, "requeued")
	}
}

func (c *Consumer) ack(ctx context.Context, d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		c.Logger.Error(ctx, "Failed to ack message", logger.WithError(err))
	}
}

func (c *Consumer) nack(ctx context.Context, d amqp.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.Logger.Error(ctx, "Failed to nack message", logger.WithError(err))
	}
}

func (c *Consumer) setupTopology(ch *amqp.Channel, queueName string, routingKeys []string) error {
	_, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}
	for _, key := range routingKeys {
		if err := ch.QueueBind(queueName, key, c.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", queueName, key, err)
		}
	}
	return nil
}
