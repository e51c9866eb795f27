package handlers

import (
	"testing"

	"github.com/md-rashed-zaman/slotbook/services/auth-service/internal/storage"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestRoleFor(t *testing.T) {
	admins := []string{"ops@example.com", " Lead@Example.COM "}

	if got := roleFor("ops@example.com", admins); got != RoleAdmin {
		t.Fatalf("expected admin, got %q", got)
	}
	if got := roleFor("lead@example.com", admins); got != RoleAdmin {
		t.Fatalf("expected admin for case-insensitive match, got %q", got)
	}
	if got := roleFor("someone@example.com", admins); got != RoleStaff {
		t.Fatalf("expected staff, got %q", got)
	}
	if got := roleFor("anyone@example.com", nil); got != RoleStaff {
		t.Fatalf("expected staff with empty allow-list, got %q", got)
	}
}

func TestIssueJWT_RoundTrip(t *testing.T) {
	signer := NewHS256Signer("test-secret")
	user := storage.User{ID: "user-1", Email: "u@example.com", Role: RoleStaff}

	token, err := issueJWT(user, signer)
	if err != nil {
		t.Fatalf("issueJWT failed: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Sub != "user-1" {
		t.Fatalf("expected sub user-1, got %q", claims.Sub)
	}
	if claims.Role != RoleStaff {
		t.Fatalf("expected role %q, got %q", RoleStaff, claims.Role)
	}
	if claims.Exp <= claims.Iat {
		t.Fatal("expected expiry after issue time")
	}
}
