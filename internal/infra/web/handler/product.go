package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DioGolang/GoStock/internal/application/usecase/product"
	"github.com/DioGolang/GoStock/pkg/logger"
)

type Product struct {
	CreateProductUseCase  product.CreateUseCase
	GetProductUseCase     product.GetUseCase
	ListProductsUseCase   product.ListUseCase
	RestockProductUseCase product.RestockUseCase
	Logger                logger.Logger
}

func NewProductHandler(
	create product.CreateUseCase,
	get product.GetUseCase,
	list product.ListUseCase,
	restock product.RestockUseCase,
	log logger.Logger,
) *Product {
	return &Product{
		CreateProductUseCase:  create,
		GetProductUseCase:     get,
		ListProductsUseCase:   list,
		RestockProductUseCase: restock,
		Logger:                log,
	}
}

func (h *Product) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/restock", h.Restock)
}

func (h *Product) Create(w http.ResponseWriter, r *http.Request) {
	var dto product.CreateInput
	if !decodeJSON(w, r, &dto) {
		return
	}

	output, err := h.CreateProductUseCase.Execute(r.Context(), dto)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}

	w.Header().Set("Location", "/api/v1/products/"+strconv.FormatInt(output.ID, 10))
	writeJSON(w, http.StatusCreated, output)
}

func (h *Product) List(w http.ResponseWriter, r *http.Request) {
	output, err := h.ListProductsUseCase.Execute(r.Context(), product.ListInput{
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *Product) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	output, err := h.GetProductUseCase.Execute(r.Context(), id)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Product) Restock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body restockRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	output, err := h.RestockProductUseCase.Execute(r.Context(), product.RestockInput{
		ProductID: id,
		Quantity:  body.Quantity,
	})
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}
