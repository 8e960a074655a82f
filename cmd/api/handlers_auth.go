package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/peluchemania/backend/internal/auth"
	"github.com/peluchemania/backend/internal/config"
	"github.com/peluchemania/backend/internal/database"
	"github.com/peluchemania/backend/internal/models"
	"github.com/peluchemania/backend/internal/store"
)

func handleRegister(db *sql.DB, cfg *config.Config) http.HandlerFunc {
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

		// Self-registration always creates a customer account.
		payload.Role = models.RoleCliente

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

func handleLogin(db *sql.DB, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := store.GetUserByEmail(r.Context(), db, payload.Email)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				respondError(w, http.StatusUnauthorized, database.ErrInvalidCredentials.Error())
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if !auth.CheckPassword(payload.Password, user.PasswordHash) {
			respondError(w, http.StatusUnauthorized, database.ErrInvalidCredentials.Error())
			return
		}

		token, err := auth.NewToken(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, user)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]any{
			"token":   token,
			"usuario": user,
		})
	}
}
