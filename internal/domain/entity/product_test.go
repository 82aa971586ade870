package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		productName string
		price       int64
		stock       int
		expectedErr error
	}{
		{"Should return error when name is empty", "", 100, 1, ErrNameIsRequired},
		{"Should return error when price is zero", "Mouse", 0, 1, ErrPriceMustBePos},
		{"Should return error when stock is negative", "Mouse", 100, -1, ErrStockMustBePos},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := NewProduct(tt.productName, tt.price, tt.stock, "peripherals")

			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, product)
		})
	}
}

func TestProduct_DecreaseStock(t *testing.T) {
	product := RestoreProduct(1, "Mouse", 100, 10, "peripherals")

	require.NoError(t, product.DecreaseStock(2))

	assert.Equal(t, 8, product.Stock())
}

func TestProduct_DecreaseStockBelowZero(t *testing.T) {
	product := RestoreProduct(1, "Mouse", 100, 3, "peripherals")

	err := product.DecreaseStock(10)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, "Mouse", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 10, stockErr.Requested)
	assert.Equal(t, 3, product.Stock(), "stock must be untouched on failure")
}

func TestProduct_StockRejectsNonPositiveQuantity(t *testing.T) {
	product := RestoreProduct(1, "Mouse", 100, 3, "peripherals")

	assert.ErrorIs(t, product.DecreaseStock(0), ErrQuantityMustBePos)
	assert.ErrorIs(t, product.IncreaseStock(-1), ErrQuantityMustBePos)
	assert.Equal(t, 3, product.Stock())
}

func TestProduct_IncreaseStock(t *testing.T) {
	product := RestoreProduct(1, "Mouse", 100, 3, "peripherals")

	require.NoError(t, product.IncreaseStock(7))

	assert.Equal(t, 10, product.Stock())
}
