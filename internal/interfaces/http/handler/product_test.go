package handler

import (
	"net/http"
	"testing"
	"time"

	catalogapp "github.com/pharmacy/backend/internal/application/catalog"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductHandler_CreateAndGet(t *testing.T) {
	s := newTestServer(t)

	created := s.createProduct(map[string]any{"sku": "AMX-500", "name": "Amoxicillin 500mg", "quantity": 5, "reorder_point": 2})
	assert.Equal(t, 5, created.Quantity)
	assert.Equal(t, "ACTIVE", created.Status)

	w, resp := s.do(http.MethodGet, "/api/v1/products/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[catalogapp.ProductDetailResponse](t, resp.Data)
	assert.Equal(t, created.ID, detail.ID)
	require.Len(t, detail.RecentMovements, 1)
	assert.Equal(t, "PURCHASE", detail.RecentMovements[0].Type)
	assert.Equal(t, 5, detail.RecentMovements[0].BalanceAfter)

	w, resp = s.do(http.MethodGet, "/api/v1/products/"+created.ID.String()+"?logs=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[catalogapp.ProductDetailResponse](t, resp.Data).RecentMovements)
}

func TestProductHandler_Errors(t *testing.T) {
	s := newTestServer(t)
	s.createProduct(map[string]any{"sku": "DUP-1", "name": "Paracetamol"})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"malformed id", http.MethodGet, "/api/v1/products/not-a-uuid", nil, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"unknown id", http.MethodGet, "/api/v1/products/00000000-0000-0000-0000-000000000001", nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"bad logs", http.MethodGet, "/api/v1/products/00000000-0000-0000-0000-000000000001?logs=-1", nil, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"missing name", http.MethodPost, "/api/v1/products", map[string]any{"sku": "X-1"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"negative quantity", http.MethodPost, "/api/v1/products", map[string]any{"sku": "X-2", "name": "X", "quantity": -1}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed json", http.MethodPost, "/api/v1/products", `{"sku":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"duplicate sku", http.MethodPost, "/api/v1/products", map[string]any{"sku": "DUP-1", "name": "Again"}, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"bad status filter", http.MethodGet, "/api/v1/products?status=SOLD", nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"delete unknown", http.MethodDelete, "/api/v1/products/00000000-0000-0000-0000-000000000001", nil, http.StatusNotFound, dto.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := s.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestProductHandler_ValidationDetails(t *testing.T) {
	s := newTestServer(t)

	_, resp := s.do(http.MethodPost, "/api/v1/products", map[string]any{"sku": "V-1"})
	require.NotNil(t, resp.Error)
	require.NotEmpty(t, resp.Error.Details)
	assert.Equal(t, "name", resp.Error.Details[0].Field)
}

func TestProductHandler_ListAndUpdate(t *testing.T) {
	s := newTestServer(t)
	low := s.createProduct(map[string]any{"sku": "LOW-1", "name": "Ibuprofen", "quantity": 2, "reorder_point": 5})
	s.createProduct(map[string]any{"sku": "OK-1", "name": "Cetirizine", "quantity": 50, "reorder_point": 5})
	soon := time.Now().UTC().Add(5 * 24 * time.Hour).Format(time.RFC3339)
	expiring := s.createProduct(map[string]any{"sku": "EXP-1", "name": "Insulin", "quantity": 10, "expiry_date": soon})

	w, resp := s.do(http.MethodGet, "/api/v1/products?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	assert.Len(t, decode[[]catalogapp.ProductResponse](t, resp.Data), 2)

	w, resp = s.do(http.MethodGet, "/api/v1/products/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	lows := decode[[]catalogapp.ProductResponse](t, resp.Data)
	require.Len(t, lows, 1)
	assert.Equal(t, low.ID, lows[0].ID)
	assert.True(t, lows[0].LowStock)

	w, resp = s.do(http.MethodGet, "/api/v1/products/expiring", nil)
	require.Equal(t, http.StatusOK, w.Code)
	exp := decode[[]catalogapp.ProductResponse](t, resp.Data)
	require.Len(t, exp, 1)
	assert.Equal(t, expiring.ID, exp[0].ID)

	w, resp = s.do(http.MethodPut, "/api/v1/products/"+low.ID.String(), map[string]any{"name": "Ibuprofen 400mg", "reorder_point": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[catalogapp.ProductResponse](t, resp.Data)
	assert.Equal(t, "Ibuprofen 400mg", updated.Name)
	assert.Equal(t, 2, updated.Quantity)
	assert.False(t, updated.LowStock)
}

func TestProductHandler_Delete(t *testing.T) {
	s := newTestServer(t)
	p := s.createProduct(map[string]any{"sku": "DEL-1", "name": "Loratadine", "quantity": 3})

	w, _ := s.do(http.MethodDelete, "/api/v1/products/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/products/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/products/"+p.ID.String()+"/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
