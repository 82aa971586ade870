package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/DioGolang/GoStock/configs"
	"github.com/DioGolang/GoStock/internal/application/usecase/order"
	"github.com/DioGolang/GoStock/internal/application/usecase/product"
	"github.com/DioGolang/GoStock/internal/application/usecase/transaction"
	"github.com/DioGolang/GoStock/internal/infra/database"
	"github.com/DioGolang/GoStock/internal/infra/event"
	"github.com/DioGolang/GoStock/internal/infra/web"
	"github.com/DioGolang/GoStock/internal/infra/web/handler"
	"github.com/DioGolang/GoStock/internal/infra/web/middleware"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
	"github.com/DioGolang/GoStock/pkg/otel"
)

const serviceName = "gostock-api"

var version = "dev"

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
			Version:       version,
			Environment:   environment(config.LogProduction),
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

	store, db, err := openStore(ctx, config)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	log.Info(ctx, "Store ready", logger.String("backend", store.Name()))

	factory := database.NewUnitOfWorkFactory(store, log, m)
	retry := transaction.DefaultRetryPolicy()
	retry.Attempts = config.OrderRetryAttempts
	retry.BaseWait = config.OrderRetryBaseWait

	createProduct := product.NewCreateProductUseCase(factory, log)
	if config.SeedDemoData {
		if err := seedDemoData(ctx, createProduct); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	healthOpts := []handler.HealthOption{
		handler.WithDatabase(store.Name(), db),
		handler.WithRabbitMQ(config.AMQPURL),
	}
	rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr()})
	defer rdb.Close()
	healthOpts = append(healthOpts, handler.WithRedis(rdb))
	health, err := handler.NewHealthHandler(serviceName, version, healthOpts...)
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: config.RateLimitRPS,
		Burst:             config.RateLimitBurst,
		CleanupInterval:   time.Minute,
		ClientTimeout:     3 * time.Minute,
	})

	router := web.NewRouter(web.RouterConfig{
		ServiceName:    serviceName,
		RequestTimeout: 10 * time.Second,
		Orders: handler.NewOrderHandler(
			order.WithCreateMetrics(order.NewCreateOrderUseCase(factory, log, m, retry), m),
			order.WithCancelMetrics(order.NewCancelOrderUseCase(factory, log, m, retry), m),
			order.NewGetOrderUseCase(factory, log),
			log,
		),
		Products: handler.NewProductHandler(
			createProduct,
			product.NewGetProductUseCase(factory, log),
			product.NewListProductsUseCase(factory, log),
			product.NewRestockProductUseCase(factory, log, m, retry),
			log,
		),
		Health:      health,
		Gatherer:    reg,
		RateLimiter: limiter,
		Logger:      log,
		Metrics:     m,
	})

	amqpConn, err := amqp.Dial(config.AMQPURL)
	if err != nil {
		// orders are still accepted; the outbox keeps them until a relay runs
		log.Warn(ctx, "RabbitMQ unreachable, outbox relay disabled", logger.WithError(err))
	} else {
		defer amqpConn.Close()
		ch, err := amqpConn.Channel()
		if err != nil {
			return err
		}
		defer ch.Close()

		relayCfg := event.DefaultRelayConfig()
		relayCfg.BatchSize = config.OutboxBatchSize
		relayCfg.Workers = config.OutboxWorkers
		relay := event.NewOutboxRelay(factory, event.NewPublisher(ch, event.DefaultExchange), log, m, relayCfg)
		go relay.Run(ctx)
		go relay.RunRescuer(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + config.WebServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "Server running", logger.String("port", config.WebServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(ctx, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, config *configs.Conf) (database.Store, *sql.DB, error) {
	var (
		dialect database.Dialect
		dsn     string
	)
	switch config.StoreBackend {
	case "postgres":
		dialect, dsn = database.DialectPostgres, config.PostgresDSN()
	case "sqlite":
		dialect, dsn = database.DialectSQLite, database.SQLiteDSN(config.SQLitePath)
	default:
		return database.NewMemoryStore(), nil, nil
	}

	db, err := database.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db, dialect); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return database.NewSQLStore(db, dialect), db, nil
}

func environment(prod bool) string {
	if prod {
		return "production"
	}
	return "development"
}
