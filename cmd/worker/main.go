package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/DioGolang/GoStock/configs"
	"github.com/DioGolang/GoStock/internal/infra/event"
	"github.com/DioGolang/GoStock/internal/infra/storage"
	"github.com/DioGolang/GoStock/pkg/events"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
	"github.com/DioGolang/GoStock/pkg/otel"
)

const (
	serviceName = "gostock-worker"
	queueName   = "gostock.order-status"
	handlerName = "order_status_projector"
	metricsAddr = ":9100"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	config, err := configs.LoadConfig(".")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.NewLogger(serviceName, config.LogProduction)

	if config.OTELCollector != "" {
		shutdown, err := otel.InitProvider(ctx, otel.ProviderConfig{
			ServiceName:   serviceName,
			Version:       "dev",
			Environment:   "worker",
			CollectorAddr: config.OTELCollector,
		})
		if err != nil {
			return err
		}
		defer shutdown()
	} else {
		otel.InstallPropagator()
	}

	reg := prometheus.NewRegistry()
	metrics.RegisterRuntimeCollectors(reg)
	m := metrics.NewPrometheusMetrics(reg, serviceName)

	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr()})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	redisAdapter := storage.NewRedisAdapter(rdb)

	conn, err := amqp.Dial(config.AMQPURL)
	if err != nil {
		return fmt.Errorf("rabbitmq: %w", err)
	}
	defer conn.Close()

	// outermost first: dedupe, then retry, then breaker around the projection
	projector := event.NewStatusProjector(redisAdapter, log)
	handler := event.WrapIdempotency(log, m, redisAdapter, handlerName, 24*time.Hour,
		event.WrapExponentialBackoff(log, m, handlerName, 3, 200*time.Millisecond,
			event.WrapResilientConsumer(m, handlerName, 5*time.Second,
				event.NewCircuitBreaker(handlerName, 30*time.Second),
				projector.Handle,
			),
		),
	)

	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "Metrics server stopped", logger.WithError(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "Worker started", logger.String("queue", queueName))
	consumer := event.NewConsumer(conn, event.DefaultExchange, serviceName, handler, log, m)
	return consumer.Start(ctx, queueName, events.TopicOrderConfirmed, events.TopicOrderCancelled)
}
