// Authentication HTTP handlers.
//
// Two sign-in paths are supported:
//   - Web: GET /auth/google redirects to Google's consent page, and the
//     callback exchanges the authorization code, mints a session token, and
//     redirects back to the frontend with the token in the fragment.
//   - Mobile: POST /auth/google/mobile verifies a Google ID token directly.
//
// Both paths resolve the verified profile to an account (creating it on
// first login) and answer with a session token for the Authorization header.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/harrmos/quran-api/internal/auth"
	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/http/middleware"
	"github.com/harrmos/quran-api/internal/services"
)

const stateCookie = "oauth_state"

// GoogleAuthenticator verifies Google credentials for both client flows.
type GoogleAuthenticator interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*auth.Profile, error)
	VerifyIDToken(ctx context.Context, rawToken string) (*auth.Profile, error)
}

// IdentityService resolves verified identities to accounts.
type IdentityService interface {
	Resolve(ctx context.Context, id services.Identity) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs []byte) error
}

// SessionTokens mints tokens after a successful sign-in and verifies them
// for the session probe.
type SessionTokens interface {
	Mint(u *domain.User) (string, error)
	Verify(raw string) (*auth.SessionClaims, error)
}

// AuthHandlers groups the sign-in and profile endpoints.
type AuthHandlers struct {
	google      GoogleAuthenticator
	users       IdentityService
	tokens      SessionTokens
	frontendURL string
}

// NewAuthHandlers constructs the auth endpoints.
func NewAuthHandlers(google GoogleAuthenticator, users IdentityService, tokens SessionTokens, frontendURL string) *AuthHandlers {
	return &AuthHandlers{google: google, users: users, tokens: tokens, frontendURL: frontendURL}
}

// MobileSignInRequest is the JSON payload of the mobile sign-in endpoint.
type MobileSignInRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// SessionResponse is returned after a successful sign-in.
type SessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// GoogleRedirect godoc
// @ID          googleRedirect
// @Summary     Start Google sign-in
// @Description Redirects the browser to Google's consent page. A state nonce is set as a short-lived cookie for CSRF protection.
// @Tags        Auth
// @Success     302 {string} string "Redirect to Google"
// @Router      /auth/google [get]
func (h *AuthHandlers) GoogleRedirect(c *gin.Context) {
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/", "", false, true)
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

// GoogleCallback godoc
// @ID          googleCallback
// @Summary     Complete Google sign-in
// @Description Exchanges the authorization code, resolves the account, and redirects to the frontend with the session token in the URL fragment.
// @Tags        Auth
// @Param       code  query string true  "Authorization code"
// @Param       state query string true  "State nonce"
// @Success     302 {string} string "Redirect to frontend"
// @Failure     400 {object} handlers.ErrorResponse "State mismatch or missing code"
// @Failure     401 {object} handlers.ErrorResponse "Verification failed"
// @Router      /auth/google/callback [get]
func (h *AuthHandlers) GoogleCallback(c *gin.Context) {
	wantState, err := c.Cookie(stateCookie)
	if err != nil || wantState == "" || c.Query("state") != wantState {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "state mismatch")
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "missing authorization code")
		return
	}

	profile, err := h.google.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeAuthFailed, "google sign-in failed")
		return
	}

	token, err := h.session(c, profile)
	if err != nil {
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/auth/callback#token="+url.QueryEscape(token.Token))
}

// MobileSignIn godoc
// @ID          mobileSignIn
// @Summary     Sign in with a Google ID token
// @Description Verifies an ID token obtained by a mobile client and returns a session token plus the account profile.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body body handlers.MobileSignInRequest true "ID token payload"
// @Success     200 {object} handlers.SessionResponse
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     401 {object} handlers.ErrorResponse "Verification failed"
// @Router      /auth/google/mobile [post]
func (h *AuthHandlers) MobileSignIn(c *gin.Context) {
	var req MobileSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "idToken required")
		return
	}

	profile, err := h.google.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeAuthFailed, "invalid google id token")
		return
	}

	sess, err := h.session(c, profile)
	if err != nil {
		return
	}
	ok(c, http.StatusOK, sess)
}

// session resolves the profile to an account and mints a token. On failure
// the error response has already been written and a non-nil error returned.
func (h *AuthHandlers) session(c *gin.Context, p *auth.Profile) (*SessionResponse, error) {
	user, err := h.users.Resolve(c.Request.Context(), services.Identity{
		Subject: p.Subject,
		Email:   p.Email,
		Name:    p.Name,
		Picture: p.Picture,
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "account resolution failed")
		return nil, err
	}

	token, err := h.tokens.Mint(user)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "token issuance failed")
		return nil, err
	}
	return &SessionResponse{Token: token, User: user}, nil
}

// StatusResponse is returned by the session probe.
type StatusResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user"`
}

// Status godoc
// @ID          authStatus
// @Summary     Probe the current session
// @Description Reports whether the supplied bearer token (if any) maps to a live session. Always answers 200; clients use this on startup to decide between the app and the sign-in screen.
// @Tags        Auth
// @Produce     json
// @Success     200 {object} handlers.StatusResponse
// @Router      /auth/status [get]
func (h *AuthHandlers) Status(c *gin.Context) {
	anonymous := StatusResponse{Authenticated: false}

	raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !found || strings.TrimSpace(raw) == "" {
		ok(c, http.StatusOK, anonymous)
		return
	}
	claims, err := h.tokens.Verify(strings.TrimSpace(raw))
	if err != nil {
		ok(c, http.StatusOK, anonymous)
		return
	}
	u, err := h.users.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		ok(c, http.StatusOK, anonymous)
		return
	}
	ok(c, http.StatusOK, StatusResponse{Authenticated: true, User: u})
}

// Logout godoc
// @ID          logout
// @Summary     Sign out
// @Description Sessions are stateless bearer tokens, so there is nothing to invalidate server-side; the client discards its token. Kept for frontend symmetry.
// @Tags        Auth
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /auth/logout [get]
func (h *AuthHandlers) Logout(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "signed_out"})
}

// Me godoc
// @ID          me
// @Summary     Current account profile
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} domain.User
// @Failure     401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404 {object} handlers.ErrorResponse "Account not found"
// @Router      /api/me [get]
func (h *AuthHandlers) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdatePreferences godoc
// @ID          updatePreferences
// @Summary     Replace the account's preference blob
// @Tags        Auth
// @Accept      json
// @Security    BearerAuth
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     404 {object} handlers.ErrorResponse "Account not found"
// @Router      /api/me/preferences [put]
func (h *AuthHandlers) UpdatePreferences(c *gin.Context) {
	var prefs map[string]any
	if err := c.ShouldBindJSON(&prefs); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	raw, err := json.Marshal(prefs)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid preferences")
		return
	}
	if err := h.users.UpdatePreferences(c.Request.Context(), middleware.UserID(c), raw); err != nil {
		if err == services.ErrUserNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to save preferences")
		return
	}
	noContent(c)
}
