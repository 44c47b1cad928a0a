package dto

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Response is the envelope of the JSON endpoints. The cart script checks
// the ok flag.
type Response struct {
	OK    bool       `json:"ok"`
	Error *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AddToCartResponse answers an XHR add-to-cart
type AddToCartResponse struct {
	OK       bool   `json:"ok"`
	PID      string `json:"pid"`
	Qty      int    `json:"qty"`
	CartSize int    `json:"cart_size"`
}

// CartUpdateItem is one entry of a cart update request
type CartUpdateItem struct {
	PID string `json:"pid"`
	Qty any    `json:"qty"`
}

// Quantity parses Qty, which clients send as a number or a string.
// Missing quantities count as zero.
func (i CartUpdateItem) Quantity() (int, bool) {
	switch v := i.Qty.(type) {
	case nil:
		return 0, true
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	default:
		return 0, false
	}
}

// CartUpdateRequest is the body of the JSON cart update
type CartUpdateRequest struct {
	Items []CartUpdateItem `json:"items"`
}

// CartUpdateResponse carries recomputed totals as JSON numbers rounded to
// cents
type CartUpdateResponse struct {
	OK       bool                   `json:"ok"`
	Total    json.Number            `json:"total"`
	Lines    map[string]json.Number `json:"lines"`
	CartSize int                    `json:"cart_size"`
}

// NewCartUpdateResponse rounds total and the line totals to cents
func NewCartUpdateResponse(total decimal.Decimal, lines map[string]decimal.Decimal, cartSize int) CartUpdateResponse {
	out := make(map[string]json.Number, len(lines))
	for pid, line := range lines {
		out[pid] = centsNumber(line)
	}
	return CartUpdateResponse{OK: true, Total: centsNumber(total), Lines: out, CartSize: cartSize}
}

func centsNumber(d decimal.Decimal) json.Number {
	return json.Number(d.Round(2).String())
}

// NewErrorResponseWithRequestID creates an error response
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		OK: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now(),
		},
	}
}
