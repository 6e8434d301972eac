package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestCartSessionMintsCookie(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	CartSession(false)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if seen == "" {
		t.Fatalf("expected session id in context")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("session id is not a uuid: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CartSessionCookie {
		t.Fatalf("expected a %s cookie, got %v", CartSessionCookie, cookies)
	}
	if cookies[0].Value != seen {
		t.Fatalf("cookie and context session differ")
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("cookie must be http-only")
	}
}

func TestCartSessionReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartSessionCookie, Value: existing})
	rec := httptest.NewRecorder()
	CartSession(false)(handler).ServeHTTP(rec, req)

	if seen != existing {
		t.Fatalf("expected session %s, got %s", existing, seen)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("valid cookie should not be reissued")
	}
}

func TestCartSessionRejectsGarbageCookie(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: CartSessionCookie, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	CartSession(false)(handler).ServeHTTP(rec, req)

	if seen == "not-a-uuid" {
		t.Fatalf("garbage cookie must be replaced")
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatalf("expected replacement cookie")
	}
}
