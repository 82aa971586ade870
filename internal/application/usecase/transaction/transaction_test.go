package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/pkg/logger"
	"github.com/DioGolang/GoStock/pkg/metrics"
)

var fastPolicy = RetryPolicy{Attempts: 3, BaseWait: time.Millisecond, MaxWait: 2 * time.Millisecond}

func TestRunWithRetry_RetriesOnlyConflicts(t *testing.T) {
	conflict := fmt.Errorf("products 1: %w", outbound.ErrConcurrencyConflict)
	permanent := errors.New("disk on fire")

	tests := []struct {
		name      string
		results   []error
		wantErr   error
		wantCalls int
	}{
		{"succeeds first time", []error{nil}, nil, 1},
		{"succeeds after conflicts", []error{conflict, conflict, nil}, nil, 3},
		{"permanent error is not retried", []error{permanent}, permanent, 1},
		{"gives up after max attempts", []error{conflict, conflict, conflict}, outbound.ErrConcurrencyConflict, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RunWithRetry(context.Background(), logger.NewNop(), metrics.NewNop(), "Test", fastPolicy,
				func(context.Context) error {
					err := tt.results[calls]
					calls++
					return err
				})

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestRunWithRetry_CountsConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheusMetrics(reg, "test")

	_ = RunWithRetry(context.Background(), logger.NewNop(), m, "CreateOrder", fastPolicy,
		func(context.Context) error { return outbound.ErrConcurrencyConflict })

	expected := `
# HELP app_uow_conflicts_total Concurrent modification conflicts that forced a retry.
# TYPE app_uow_conflicts_total counter
app_uow_conflicts_total{service="test",use_case="CreateOrder"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "app_uow_conflicts_total"))
}

func TestRunWithRetry_StopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{Attempts: 5, BaseWait: time.Hour}

	calls := 0
	err := RunWithRetry(ctx, logger.NewNop(), metrics.NewNop(), "Test", policy, func(context.Context) error {
		calls++
		cancel()
		return outbound.ErrConcurrencyConflict
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_WaitIsCapped(t *testing.T) {
	p := RetryPolicy{Attempts: 10, BaseWait: 10 * time.Millisecond, MaxWait: 50 * time.Millisecond}

	assert.Equal(t, 10*time.Millisecond, p.wait(0))
	assert.Equal(t, 40*time.Millisecond, p.wait(2))
	assert.Equal(t, 50*time.Millisecond, p.wait(6))
}
