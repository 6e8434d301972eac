package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riversidefab/storefront-backend/pkg/config"
	"github.com/riversidefab/storefront-backend/pkg/security"
)

func adminTestHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func TestAdminPasswordAllowsCorrectPassword(t *testing.T) {
	hash := adminTestHash(t, "open-sesame")
	var called bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("X-Admin-Password", "open-sesame")
	rec := httptest.NewRecorder()
	AdminPassword(hash, nil)(handler).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestAdminPasswordRejectsWrongPassword(t *testing.T) {
	hash := adminTestHash(t, "open-sesame")
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("X-Admin-Password", "guess")
	rec := httptest.NewRecorder()
	AdminPassword(hash, nil)(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminPasswordRequiresHeader(t *testing.T) {
	hash := adminTestHash(t, "open-sesame")
	rec := httptest.NewRecorder()
	AdminPassword(hash, nil)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminPasswordDisabledWithoutHash(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("X-Admin-Password", "anything")
	AdminPassword("", nil)(http.NotFoundHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when admin surface is disabled, got %d", rec.Code)
	}
}
