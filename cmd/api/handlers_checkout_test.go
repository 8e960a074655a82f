package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// Malformed checkout payloads must be rejected before any store call; these
// run the handler with no database behind it.
func TestHandlePurchaseRejectsBadPayloads(t *testing.T) {
	handler := handlePurchase(nil, zerolog.New(os.Stderr))

	cases := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing user", `{"total": 100, "cartItems": [{"id": 1, "quantity": 1, "precio": 100}]}`},
		{"empty cart", `{"userId": "a@b.cl", "total": 100, "cartItems": []}`},
		{"zero quantity", `{"userId": "a@b.cl", "total": 100, "cartItems": [{"id": 1, "quantity": 0, "precio": 100}]}`},
		{"negative price", `{"userId": "a@b.cl", "total": 100, "cartItems": [{"id": 1, "quantity": 1, "precio": -5}]}`},
		{"negative total", `{"userId": "a@b.cl", "total": -100, "cartItems": [{"id": 1, "quantity": 1, "precio": 100}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/checkout/purchase", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}
