package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// userinfoURL is Google's OpenID userinfo endpoint, queried with the
// exchanged access token during the web redirect flow.
const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrUnverifiedEmail is returned when Google reports the account email as
// unverified. Unverified emails cannot anchor an account.
var ErrUnverifiedEmail = errors.New("google account email not verified")

// Profile is the verified identity extracted from a Google credential.
type Profile struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier validates Google credentials for both client flows: the
// web redirect (authorization code exchange) and mobile (ID token).
type GoogleVerifier struct {
	oauth *oauth2.Config

	// validateIDToken is replaceable in tests
	validateIDToken func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleVerifier builds a verifier for the given OAuth client.
func NewGoogleVerifier(clientID, clientSecret, redirectURL string) *GoogleVerifier {
	return &GoogleVerifier{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		validateIDToken: idtoken.Validate,
	}
}

// AuthCodeURL returns the Google consent page URL for the web flow. The
// state parameter is echoed back on the callback for CSRF protection.
func (g *GoogleVerifier) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode completes the web flow: trades the authorization code for
// tokens and fetches the user's profile.
func (g *GoogleVerifier) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: code exchange: %w", err)
	}

	resp, err := g.oauth.Client(ctx, token).Get(userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: userinfo status %d", resp.StatusCode)
	}

	var info struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("auth: read userinfo: %w", err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("auth: decode userinfo: %w", err)
	}
	if !info.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	return &Profile{Subject: info.ID, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}

// VerifyIDToken validates a Google ID token from a mobile client and
// extracts the profile. The token audience must match our client id.
func (g *GoogleVerifier) VerifyIDToken(ctx context.Context, rawToken string) (*Profile, error) {
	payload, err := g.validateIDToken(ctx, rawToken, g.oauth.ClientID)
	if err != nil {
		return nil, fmt.Errorf("auth: id token validation: %w", err)
	}

	claimStr := func(key string) string {
		if v, ok := payload.Claims[key].(string); ok {
			return v
		}
		return ""
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, ErrUnverifiedEmail
	}

	return &Profile{
		Subject: payload.Subject,
		Email:   claimStr("email"),
		Name:    claimStr("name"),
		Picture: claimStr("picture"),
	}, nil
}
