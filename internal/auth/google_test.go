package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/api/idtoken"
)

func newTestGoogleVerifier(payload *idtoken.Payload, err error) (*GoogleVerifier, *string) {
	var gotAudience string
	g := NewGoogleVerifier("client-id", "client-secret", "https://api.example.com/auth/google/callback")
	g.validateIDToken = func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		return payload, err
	}
	return g, &gotAudience
}

func TestVerifyIDToken_MapsClaims(t *testing.T) {
	g, audience := newTestGoogleVerifier(&idtoken.Payload{
		Subject: "sub-123",
		Claims: map[string]any{
			"email":          "reader@example.com",
			"email_verified": true,
			"name":           "Reader",
			"picture":        "https://example.com/p.png",
		},
	}, nil)

	p, err := g.VerifyIDToken(context.Background(), "raw-token")
	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}
	if *audience != "client-id" {
		t.Fatalf("expected our client id as audience, got %q", *audience)
	}
	if p.Subject != "sub-123" || p.Email != "reader@example.com" || p.Name != "Reader" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestVerifyIDToken_RejectsUnverifiedEmail(t *testing.T) {
	g, _ := newTestGoogleVerifier(&idtoken.Payload{
		Subject: "sub-123",
		Claims:  map[string]any{"email": "reader@example.com", "email_verified": false},
	}, nil)

	if _, err := g.VerifyIDToken(context.Background(), "raw-token"); !errors.Is(err, ErrUnverifiedEmail) {
		t.Fatalf("expected ErrUnverifiedEmail, got %v", err)
	}
}

func TestVerifyIDToken_PropagatesValidationFailure(t *testing.T) {
	g, _ := newTestGoogleVerifier(nil, errors.New("idtoken: token expired"))

	if _, err := g.VerifyIDToken(context.Background(), "raw-token"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}

func TestAuthCodeURL_CarriesState(t *testing.T) {
	g, _ := newTestGoogleVerifier(nil, nil)

	u := g.AuthCodeURL("state-xyz")
	if u == "" {
		t.Fatal("expected a consent URL")
	}
	for _, want := range []string{"state=state-xyz", "client_id=client-id"} {
		if !strings.Contains(u, want) {
			t.Fatalf("expected %q in %q", want, u)
		}
	}
}
