package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/store"
	"github.com/shopspring/decimal"
)

type productPayload struct {
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion"`
	Price       float64 `json:"precio"`
	Stock       int     `json:"stock"`
	OnSale      bool    `json:"onSale"`
	Discount    float64 `json:"discountPercentage"`
	CategoryID  *int64  `json:"categoriaId"`
	ImageURL    string  `json:"urlImagen"`
}

func (p *productPayload) validate() error {
	if p.Name == "" {
		return errors.New("nombre is required")
	}
	if p.Price < 0 {
		return errors.New("precio must not be negative")
	}
	if p.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	if p.Discount < 0 || p.Discount > 1 {
		return errors.New("discountPercentage must be between 0 and 1")
	}
	return nil
}

func (p *productPayload) toInput() store.ProductInput {
	return store.ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Price:       decimal.NewFromFloat(p.Price),
		Stock:       p.Stock,
		OnSale:      p.OnSale,
		Discount:    p.Discount,
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
	}
}

func handleListProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := store.ListProducts(r.Context(), db)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, products)
	}
}

func handleGetProduct(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid product ID")
			return
		}

		product, err := store.GetProduct(r.Context(), db, id)
		if err != nil {
			if errors.Is(err, database.ErrProductNotFound) {
				respondError(w, http.StatusNotFound, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, product)
	}
}

func handleCreateProduct(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := payload.validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		product, err := store.CreateProduct(r.Context(), db, payload.toInput())
		if err != nil {
			if errors.Is(err, database.ErrCategoryNotFound) {
				respondError(w, http.StatusBadRequest, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, product)
	}
}

func handleUpdateProduct(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid product ID")
			return
		}

		var payload productPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := payload.validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		product, err := store.UpdateProduct(r.Context(), db, id, payload.toInput())
		if err != nil {
			switch {
			case errors.Is(err, database.ErrProductNotFound):
				respondError(w, http.StatusNotFound, err.Error())
			case errors.Is(err, database.ErrCategoryNotFound):
				respondError(w, http.StatusBadRequest, err.Error())
			default:
				respondError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		respondJSON(w, http.StatusOK, product)
	}
}

func handleDeleteProduct(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid product ID")
			return
		}

		if err := store.DeleteProduct(r.Context(), db, id); err != nil {
			switch {
			case errors.Is(err, database.ErrProductNotFound):
				respondError(w, http.StatusNotFound, err.Error())
			case errors.Is(err, database.ErrProductInUse):
				respondError(w, http.StatusConflict, "No se puede eliminar: el producto tiene ventas asociadas")
			default:
				respondError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleListProductsByCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid category ID")
			return
		}

		products, err := store.ListProductsByCategory(r.Context(), db, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, products)
	}
}

func handleListLowStock(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threshold := store.LowStockThreshold
		if v := r.URL.Query().Get("threshold"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 1 {
				respondError(w, http.StatusBadRequest, "invalid threshold")
				return
			}
			threshold = parsed
		}

		products, err := store.ListProductsBelowStock(r.Context(), db, threshold)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, products)
	}
}

func handleListCategories(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.ListCategories(r.Context(), db)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, categories)
	}
}

func handleCreateCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Name string `json:"nombre"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
			respondError(w, http.StatusBadRequest, "nombre is required")
			return
		}

		category, err := store.CreateCategory(r.Context(), db, payload.Name)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, category)
	}
}

func handleUpdateCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid category ID")
			return
		}

		var payload struct {
			Name string `json:"nombre"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
			respondError(w, http.StatusBadRequest, "nombre is required")
			return
		}

		category, err := store.UpdateCategory(r.Context(), db, id, payload.Name)
		if err != nil {
			if errors.Is(err, database.ErrCategoryNotFound) {
				respondError(w, http.StatusNotFound, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, category)
	}
}

func handleDeleteCategory(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid category ID")
			return
		}

		if err := store.DeleteCategory(r.Context(), db, id); err != nil {
			switch {
			case errors.Is(err, database.ErrCategoryNotFound):
				respondError(w, http.StatusNotFound, err.Error())
			case errors.Is(err, database.ErrCategoryInUse):
				respondError(w, http.StatusConflict, "No se puede eliminar: la categoría tiene productos asociados")
			default:
				respondError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
