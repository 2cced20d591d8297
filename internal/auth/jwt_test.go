package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/harrmos/quran-api/internal/domain"
)

func TestMintVerify_Roundtrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	u := &domain.User{ID: "u1", Email: "u@example.com", Role: domain.RoleAdmin}

	raw, err := issuer.Mint(u)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	claims, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "u@example.com" || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	raw, err := issuer.Mint(&domain.User{ID: "u1", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	minter := NewTokenIssuer("secret-a", time.Hour)
	raw, err := minter.Mint(&domain.User{ID: "u1", Email: "u@example.com"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	verifier := NewTokenIssuer("secret-b", time.Hour)
	if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	for _, raw := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		if _, err := issuer.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", raw, err)
		}
	}
}
