package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthRabbit "github.com/hellofresh/health-go/v5/checks/rabbitmq"
	"github.com/redis/go-redis/v9"
)

const defaultCheckTimeout = 3 * time.Second

type HealthOption func(*[]health.Config)

// WithCheck registers an arbitrary named check. A failing check marks the
// whole service unavailable.
func WithCheck(name string, check health.CheckFunc) HealthOption {
	return func(checks *[]health.Config) {
		*checks = append(*checks, health.Config{
			Name:    name,
			Timeout: defaultCheckTimeout,
			Check:   check,
		})
	}
}

// WithDatabase pings the SQL store. A nil db (in-memory store) adds nothing.
func WithDatabase(name string, db *sql.DB) HealthOption {
	if db == nil {
		return func(*[]health.Config) {}
	}
	return WithCheck(name, db.PingContext)
}

func WithRedis(rdb *redis.Client) HealthOption {
	if rdb == nil {
		return func(*[]health.Config) {}
	}
	return WithCheck("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}

// WithRabbitMQ is reported but does not fail the service: orders keep flowing
// into the outbox while the broker is away.
func WithRabbitMQ(dsn string) HealthOption {
	return func(checks *[]health.Config) {
		if dsn == "" {
			return
		}
		*checks = append(*checks, health.Config{
			Name:      "rabbitmq",
			Timeout:   defaultCheckTimeout,
			SkipOnErr: true,
			Check:     healthRabbit.New(healthRabbit.Config{DSN: dsn}),
		})
	}
}

func NewHealthHandler(serviceName, version string, opts ...HealthOption) (http.Handler, error) {
	var checks []health.Config
	for _, opt := range opts {
		opt(&checks)
	}

	h, err := health.New(
		health.WithComponent(health.Component{Name: serviceName, Version: version}),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, err
	}
	return h.Handler(), nil
}
