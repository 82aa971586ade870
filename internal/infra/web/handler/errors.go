package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DioGolang/GoStock/internal/application/port/outbound"
	"github.com/DioGolang/GoStock/internal/application/usecase/order"
	"github.com/DioGolang/GoStock/internal/domain/entity"
	"github.com/DioGolang/GoStock/pkg/logger"
)

type errorResponse struct {
	Error     string `json:"error"`
	ProductID int64  `json:"product_id,omitempty"`
	Product   string `json:"product,omitempty"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

var validationErrors = []error{
	order.ErrInvalidInput,
	entity.ErrIDIsRequired,
	entity.ErrNameIsRequired,
	entity.ErrPriceMustBePos,
	entity.ErrStockMustBePos,
	entity.ErrQuantityMustBePos,
	entity.ErrCustomerIsRequired,
	entity.ErrOrderHasNoItems,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case isValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, outbound.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInsufficientStock),
		errors.Is(err, entity.ErrInvalidStateTransition),
		errors.Is(err, outbound.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	var stockErr *entity.InsufficientStockError
	if errors.As(err, &stockErr) {
		body.ProductID = stockErr.ProductID
		body.Product = stockErr.ProductName
		body.Available = &stockErr.Available
		body.Requested = &stockErr.Requested
	}

	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", logger.WithError(err), logger.String("path", r.URL.Path))
		body.Error = http.StatusText(status)
	}

	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return false
	}
	return true
}
