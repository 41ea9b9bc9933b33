package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chancehr/internal/auth"
	"chancehr/internal/requestctx"
)

func TestAuthMiddlewareSetsActor(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u1", WorkplaceID: "wp-1", Role: requestctx.RoleOwner}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	called := false
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor, ok := GetActor(r.Context())
		if !ok {
			t.Fatal("expected actor in context")
		}
		if actor.UserID != "u1" || actor.WorkplaceID != "wp-1" || !actor.IsOwner() {
			t.Fatalf("unexpected actor: %+v", actor)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestAuthMiddlewareIgnoresBadToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetActor(r.Context()); ok {
			t.Fatal("did not expect actor in context")
		}
	}))

	for _, header := range []string{"", "Bearer not-a-jwt", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func TestRequireOwner(t *testing.T) {
	handler := RequireOwner(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without actor, got %d", rec.Code)
	}

	employeeReq := httptest.NewRequest(http.MethodGet, "/", nil)
	employeeReq = employeeReq.WithContext(requestctx.WithActor(employeeReq.Context(), requestctx.Actor{UserID: "u2", Role: requestctx.RoleEmployee}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, employeeReq)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", rec.Code)
	}

	ownerReq := httptest.NewRequest(http.MethodGet, "/", nil)
	ownerReq = ownerReq.WithContext(requestctx.WithActor(ownerReq.Context(), requestctx.Actor{UserID: "u1", Role: requestctx.RoleOwner}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, ownerReq)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected owner to pass, got %d", rec.Code)
	}
}
