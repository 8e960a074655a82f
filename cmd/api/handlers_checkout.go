package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/peluchemania/backend/internal/auth"
	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/models"
	"github.com/peluchemania/backend/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type purchasePayload struct {
	UserID          string                 `json:"userId"`
	Total           float64                `json:"total"`
	ShippingAddress *store.ShippingAddress `json:"shippingAddress"`
	CartItems       []struct {
		ID       int64   `json:"id"`
		Quantity int     `json:"quantity"`
		Precio   float64 `json:"precio"`
	} `json:"cartItems"`
}

func handlePurchase(db *sql.DB, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload purchasePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req := store.PurchaseRequest{
			UserEmail:       payload.UserID,
			Total:           decimal.NewFromFloat(payload.Total),
			ShippingAddress: payload.ShippingAddress,
		}
		for _, item := range payload.CartItems {
			req.Items = append(req.Items, store.PurchaseItem{
				ProductID: item.ID,
				Quantity:  item.Quantity,
				UnitPrice: decimal.NewFromFloat(item.Precio),
			})
		}

		result, err := store.ProcessPurchase(r.Context(), db, req)
		if err != nil {
			if isValidationError(err) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error().Err(err).Str("user", payload.UserID).Msg("purchase failed")
			respondError(w, http.StatusInternalServerError, "purchase failed")
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"message":  "Compra exitosa",
			"boletaId": result.Receipt.ID,
			"items":    result.Items,
		})
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, store.ErrMissingPurchaser) ||
		errors.Is(err, store.ErrEmptyCart) ||
		errors.Is(err, store.ErrInvalidQuantity) ||
		errors.Is(err, store.ErrNegativePrice) ||
		errors.Is(err, store.ErrNegativeTotal)
}

func handleListReceipts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receipts, err := store.ListReceipts(r.Context(), db)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, receipts)
	}
}

func handleReceiptDetails(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid receipt ID")
			return
		}

		lines, err := store.GetReceiptLines(r.Context(), db, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, lines)
	}
}

// handleUserReceipts lists receipts for one account. Customers may only read
// their own history; staff can read anyone's.
func handleUserReceipts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid user ID")
			return
		}

		claims := auth.ClaimsFromContext(r.Context())
		if claims.UserID != id && claims.Role != models.RoleAdmin && claims.Role != models.RoleVendedor {
			respondError(w, http.StatusForbidden, "insufficient role")
			return
		}

		user, err := store.GetUser(r.Context(), db, id)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				respondError(w, http.StatusNotFound, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		receipts, err := store.ListReceiptsByEmail(r.Context(), db, user.Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, receipts)
	}
}
