package invoices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) chi.Router {
	t.Helper()
	svc, _ := newTestService()
	r := chi.NewRouter()
	r.Route("/invoices", NewHandler(svc).MountRoutes)
	return r
}

func TestPreviewEndpoint(t *testing.T) {
	router := testRouter(t)

	body := `{
		"items": [
			{"item_type": "TIRE", "description": "All-season 205/55R16", "quantity": 2, "unit_price": 100},
			{"item_type": "DISCOUNT_PERCENTAGE", "description": "Promo 10%", "quantity": 1, "unit_price": 10}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/invoices/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 180.0, resp.Totals.Subtotal, 1e-9)
	assert.InDelta(t, 201.6, resp.Totals.Total, 1e-9)
	require.Len(t, resp.LineTotals, 2)
	assert.InDelta(t, -20.0, resp.LineTotals[1], 1e-9)
}

func TestPreviewRejectsBadItem(t *testing.T) {
	router := testRouter(t)

	body := `{"items": [{"item_type": "GADGET", "description": "Unknown", "quantity": 1, "unit_price": 5}]}`
	req := httptest.NewRequest(http.MethodPost, "/invoices/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestPreviewRejectsMalformedBody(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/invoices/preview", strings.NewReader(`{"items": `))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
