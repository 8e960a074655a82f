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
)

type userPayload struct {
	Name          string  `json:"nombre"`
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	Role          string  `json:"rol"`
	AddressRegion *string `json:"direccionRegion"`
	AddressComuna *string `json:"direccionComuna"`
	AddressCalle  *string `json:"direccionCalle"`
	AddressDepto  *string `json:"direccionDepto"`
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleVendedor, models.RoleCliente:
		return true
	}
	return false
}

func (p *userPayload) toInput() (store.UserInput, error) {
	in := store.UserInput{
		Name:          p.Name,
		Email:         p.Email,
		Role:          p.Role,
		AddressRegion: p.AddressRegion,
		AddressComuna: p.AddressComuna,
		AddressCalle:  p.AddressCalle,
		AddressDepto:  p.AddressDepto,
	}

	if p.Password != "" {
		hash, err := auth.HashPassword(p.Password)
		if err != nil {
			return in, err
		}
		in.PasswordHash = hash
	}

	return in, nil
}

func handleListUsers(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := store.ListUsers(r.Context(), db)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, users)
	}
}

func handleCreateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload userPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if payload.Email == "" || payload.Password == "" {
			respondError(w, http.StatusBadRequest, "email and password are required")
			return
		}
		if !validRole(payload.Role) {
			respondError(w, http.StatusBadRequest, "invalid rol")
			return
		}

		in, err := payload.toInput()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		user, err := store.CreateUser(r.Context(), db, in)
		if err != nil {
			if errors.Is(err, database.ErrEmailTaken) {
				respondError(w, http.StatusConflict, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusCreated, user)
	}
}

func handleUpdateUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid user ID")
			return
		}

		var payload userPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validRole(payload.Role) {
			respondError(w, http.StatusBadRequest, "invalid rol")
			return
		}

		in, err := payload.toInput()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		user, err := store.UpdateUser(r.Context(), db, id, in)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrUserNotFound):
				respondError(w, http.StatusNotFound, err.Error())
			case errors.Is(err, database.ErrEmailTaken):
				respondError(w, http.StatusConflict, err.Error())
			default:
				respondError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		respondJSON(w, http.StatusOK, user)
	}
}

func handleDeleteUser(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid user ID")
			return
		}

		if err := store.DeleteUser(r.Context(), db, id); err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				respondError(w, http.StatusNotFound, err.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
