package auth

import (
	"testing"
	"time"

	"chancehr/internal/requestctx"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"
	claims := Claims{UserID: "u1", WorkplaceID: "w1", EmployeeID: "e1", Role: requestctx.RoleEmployee}

	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if parsed.UserID != claims.UserID || parsed.WorkplaceID != claims.WorkplaceID || parsed.EmployeeID != claims.EmployeeID || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: %+v", parsed)
	}
	if parsed.Actor().IsOwner() {
		t.Fatal("employee token must not be owner")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("a", Claims{UserID: "u1", Role: requestctx.RoleOwner}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("b", token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("a", Claims{UserID: "u1", Role: requestctx.RoleOwner}, -time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("a", token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseTokenUnknownRole(t *testing.T) {
	token, err := GenerateToken("a", Claims{UserID: "u1", Role: "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("a", token); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}
