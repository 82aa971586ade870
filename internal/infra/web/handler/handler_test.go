package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/order"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/logger"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"order validation", order.ErrNoItems, http.StatusUnprocessableEntity},
		{"entity validation", entity.ErrPriceMustBePos, http.StatusUnprocessableEntity},
		{"product missing", fmt.Errorf("%w: id 3", order.ErrProductNotFound), http.StatusNotFound},
		{"insufficient stock", &entity.InsufficientStockError{Available: 1, Requested: 2}, http.StatusConflict},
		{"already cancelled", entity.ErrInvalidStateTransition, http.StatusConflict},
		{"retries exhausted", fmt.Errorf("commit: %w", outbound.ErrConcurrencyConflict), http.StatusConflict},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable},
		{"anything else", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil)

	writeError(rec, req, logger.FromZap(zap.New(core)), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Internal Server Error", body.Error)
	assert.Equal(t, 1, logs.Len())
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name string
		opts []HealthOption
		want int
	}{
		{"no checks", nil, http.StatusOK},
		{"nil database is skipped", []HealthOption{WithDatabase("postgres", nil), WithRedis(nil)}, http.StatusOK},
		{"passing check", []HealthOption{WithCheck("store", func(context.Context) error { return nil })}, http.StatusOK},
		{"failing check", []HealthOption{WithCheck("store", func(context.Context) error { return errors.New("down") })}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHealthHandler("gostock-test", "test", tt.opts...)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
