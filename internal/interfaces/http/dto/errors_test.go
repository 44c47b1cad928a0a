package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{"NOT_FOUND", http.StatusNotFound},
		{"EMAIL_TAKEN", http.StatusConflict},
		{"CATEGORY_EXISTS", http.StatusConflict},
		{"UNAUTHORIZED", http.StatusUnauthorized},
		{"FORBIDDEN", http.StatusForbidden},
		{ErrCodeCSRF, http.StatusForbidden},
		{"INVALID_STATUS", http.StatusBadRequest},
		{"TOKEN_USED", http.StatusBadRequest},
		{"WEAK_PASSWORD", http.StatusUnprocessableEntity},
		{"EMPTY_CART", http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"PAYMENTS_DISABLED", http.StatusServiceUnavailable},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Product not found", "req-test-123")

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["ok"])
	errInfo := decoded["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errInfo["code"])
	assert.Equal(t, "req-test-123", errInfo["request_id"])
}

func TestCartUpdateItem_Quantity(t *testing.T) {
	var req CartUpdateRequest
	body := `{"items":[{"pid":"a","qty":2},{"pid":"b","qty":"3"},{"pid":"c"},{"pid":"d","qty":"x"},{"pid":"e","qty":1.5},{"pid":"f","qty":[1]}]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	want := []struct {
		qty int
		ok  bool
	}{{2, true}, {3, true}, {0, true}, {0, false}, {0, false}, {0, false}}
	require.Len(t, req.Items, len(want))
	for i, w := range want {
		qty, ok := req.Items[i].Quantity()
		assert.Equal(t, w.ok, ok, req.Items[i].PID)
		assert.Equal(t, w.qty, qty, req.Items[i].PID)
	}
}

func TestCartUpdateResponseJSON(t *testing.T) {
	resp := NewCartUpdateResponse(
		decimal.RequireFromString("344.700"),
		map[string]decimal.Decimal{"a": decimal.RequireFromString("114.905"), "b": decimal.RequireFromString("10")},
		2,
	)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true,"total":344.7,"lines":{"a":114.91,"b":10},"cart_size":2}`, string(data))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.IsType(t, float64(0), decoded["total"], "totals are JSON numbers")
}
