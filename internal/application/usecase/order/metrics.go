package order

import (
	"context"
	"time"

	"github.com/DioGolang/GoStock/pkg/metrics"
)

const (
	createOrderName = "CreateOrder"
	cancelOrderName = "CancelOrder"
)

func observe(m metrics.Metrics, useCase string, start time.Time, err error) {
	m.RecordUseCaseExecution(useCase, err == nil, time.Since(start))
}

// CreateOrderMetricsDecorator times every CreateOrder call, retries included.
type CreateOrderMetricsDecorator struct {
	Next    CreateUseCase
	Metrics metrics.Metrics
}

func WithCreateMetrics(next CreateUseCase, m metrics.Metrics) *CreateOrderMetricsDecorator {
	return &CreateOrderMetricsDecorator{Next: next, Metrics: m}
}

func (d *CreateOrderMetricsDecorator) Execute(ctx context.Context, input CreateInput) (out CreateOutput, err error) {
	defer func(start time.Time) { observe(d.Metrics, createOrderName, start, err) }(time.Now())
	return d.Next.Execute(ctx, input)
}

type CancelOrderMetricsDecorator struct {
	Next    CancelUseCase
	Metrics metrics.Metrics
}

func WithCancelMetrics(next CancelUseCase, m metrics.Metrics) *CancelOrderMetricsDecorator {
	return &CancelOrderMetricsDecorator{Next: next, Metrics: m}
}

func (d *CancelOrderMetricsDecorator) Execute(ctx context.Context, input CancelInput) (err error) {
	defer func(start time.Time) { observe(d.Metrics, cancelOrderName, start, err) }(time.Now())
	return d.Next.Execute(ctx, input)
}
