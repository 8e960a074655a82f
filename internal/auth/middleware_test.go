package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/peluchemania/backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestRequireAuth(t *testing.T) {
	secret := "test-secret"

	var seen *Claims
	handler := RequireAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := NewToken(secret, time.Hour, &models.User{ID: 3, Email: "a@b.cl", Role: models.RoleVendedor})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		require.Equal(t, int64(3), seen.UserID)
	})
}

func TestRequireRole(t *testing.T) {
	secret := "test-secret"

	protected := RequireAuth(secret)(RequireRole(models.RoleAdmin)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	call := func(role string) int {
		token, err := NewToken(secret, time.Hour, &models.User{ID: 1, Email: "a@b.cl", Role: role})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, call(models.RoleAdmin))
	require.Equal(t, http.StatusForbidden, call(models.RoleCliente))
}
