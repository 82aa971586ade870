package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheus_RecordsCounters(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry(), "test")

	m.RecordOrderCreated("success")
	m.RecordOrderCreated("success")
	m.RecordOrderCancelled("failure")
	m.RecordTransaction("memory", "committed")
	m.IncConcurrencyConflict("CreateOrder")
	m.IncOutboxEventsProcessed("published")
	m.IncConsumerMessages("status-projector", "ack")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.orderCreated.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderCancelled.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("memory", "committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts.WithLabelValues("CreateOrder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxEvents.WithLabelValues("published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.consumerMessages.WithLabelValues("status-projector", "ack")))
}

func TestPrometheus_UseCaseStatusLabel(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry(), "test")

	m.RecordUseCaseExecution("CreateOrder", true, 10*time.Millisecond)
	m.RecordUseCaseExecution("CreateOrder", false, 20*time.Millisecond)
	m.RecordUseCaseExecution("CreateOrder", false, 30*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.useCaseTotal.WithLabelValues("CreateOrder", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.useCaseTotal.WithLabelValues("CreateOrder", "failure")))
}
