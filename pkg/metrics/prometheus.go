package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Prometheus struct {
	orderCreated     *prometheus.CounterVec
	orderCancelled   *prometheus.CounterVec
	useCaseTotal     *prometheus.CounterVec
	useCaseDuration  *prometheus.HistogramVec
	transactions     *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	outboxEvents     *prometheus.CounterVec
	consumerMessages *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer, serviceName string) *Prometheus {
	labels := prometheus.Labels{"service": serviceName}
	latencyBuckets := []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

	m := &Prometheus{
		orderCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gostock_order_created_total",
			Help:        "Total order placements by outcome.",
			ConstLabels: labels,
		}, []string{"status"}),
		orderCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gostock_order_cancelled_total",
			Help:        "Total order cancellations by outcome.",
			ConstLabels: labels,
		}, []string{"status"}),
		useCaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_usecase_total",
			Help:        "Total number of Use Case executions.",
			ConstLabels: labels,
		}, []string{"use_case", "status"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_usecase_duration_seconds",
			Help:        "Use Case execution latency.",
			Buckets:     latencyBuckets,
			ConstLabels: labels,
		}, []string{"use_case", "status"}),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_uow_transactions_total",
			Help:        "Unit of work transactions by backend and outcome.",
			ConstLabels: labels,
		}, []string{"backend", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_uow_conflicts_total",
			Help:        "Concurrent modification conflicts that forced a retry.",
			ConstLabels: labels,
		}, []string{"use_case"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_http_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     latencyBuckets,
			ConstLabels: labels,
		}, []string{"method", "path", "status_code"}),
		outboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_outbox_events_processed_total",
			Help:        "Total outbox events processed.",
			ConstLabels: labels,
		}, []string{"status"}),
		consumerMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_consumer_messages_total",
			Help:        "Messages handled by the event worker.",
			ConstLabels: labels,
		}, []string{"handler", "outcome"}),
	}

	reg.MustRegister(
		m.orderCreated,
		m.orderCancelled,
		m.useCaseTotal,
		m.useCaseDuration,
		m.transactions,
		m.conflicts,
		m.httpDuration,
		m.outboxEvents,
		m.consumerMessages,
	)
	return m
}

// RegisterRuntimeCollectors adds the Go and process collectors. Kept apart
// from NewPrometheusMetrics so tests can use a bare registry.
func RegisterRuntimeCollectors(reg prometheus.Registerer) {
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func (p *Prometheus) RecordOrderCreated(status string) {
	p.orderCreated.WithLabelValues(status).Inc()
}

func (p *Prometheus) RecordOrderCancelled(status string) {
	p.orderCancelled.WithLabelValues(status).Inc()
}

func (p *Prometheus) RecordUseCaseExecution(useCase string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	p.useCaseTotal.WithLabelValues(useCase, status).Inc()
	p.useCaseDuration.WithLabelValues(useCase, status).Observe(duration.Seconds())
}

func (p *Prometheus) RecordTransaction(backend, outcome string) {
	p.transactions.WithLabelValues(backend, outcome).Inc()
}

func (p *Prometheus) IncConcurrencyConflict(useCase string) {
	p.conflicts.WithLabelValues(useCase).Inc()
}

func (p *Prometheus) ObserveHTTPRequestDuration(method, path, code string, duration float64) {
	p.httpDuration.WithLabelValues(method, path, code).Observe(duration)
}

func (p *Prometheus) IncOutboxEventsProcessed(status string) {
	p.outboxEvents.WithLabelValues(status).Inc()
}

func (p *Prometheus) IncConsumerMessages(handler, outcome string) {
	p.consumerMessages.WithLabelValues(handler, outcome).Inc()
}
