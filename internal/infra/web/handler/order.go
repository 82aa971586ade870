package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DioGolang/GoStock/internal/application/usecase/order"
	"github.com/DioGolang/GoStock/pkg/logger"
)

type Order struct {
	CreateOrderUseCase order.CreateUseCase
	CancelOrderUseCase order.CancelUseCase
	GetOrderUseCase    order.GetUseCase
	Logger             logger.Logger
}

func NewOrderHandler(create order.CreateUseCase, cancel order.CancelUseCase, get order.GetUseCase, log logger.Logger) *Order {
	return &Order{
		CreateOrderUseCase: create,
		CancelOrderUseCase: cancel,
		GetOrderUseCase:    get,
		Logger:             log,
	}
}

// Routes mounts the order endpoints on r.
func (h *Order) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/cancel", h.Cancel)
}

func (h *Order) Create(w http.ResponseWriter, r *http.Request) {
	var dto order.CreateInput
	if !decodeJSON(w, r, &dto) {
		return
	}

	output, err := h.CreateOrderUseCase.Execute(r.Context(), dto)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/orders/"+strconv.FormatInt(output.ID, 10))
	writeJSON(w, http.StatusCreated, output)
}

func (h *Order) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	output, err := h.GetOrderUseCase.Execute(r.Context(), order.GetInput{OrderID: id})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *Order) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.CancelOrderUseCase.Execute(r.Context(), order.CancelInput{OrderID: id}); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
