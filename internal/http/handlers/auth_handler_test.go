package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/harrmos/quran-api/internal/auth"
	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/services"
)

type fakeGoogle struct {
	profile *auth.Profile
	err     error

	gotIDToken string
	gotCode    string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) ExchangeCode(ctx context.Context, code string) (*auth.Profile, error) {
	f.gotCode = code
	return f.profile, f.err
}

func (f *fakeGoogle) VerifyIDToken(ctx context.Context, rawToken string) (*auth.Profile, error) {
	f.gotIDToken = rawToken
	return f.profile, f.err
}

type fakeIdentity struct {
	user       *domain.User
	resolveErr error
	getErr     error
	prefsErr   error

	gotIdentity services.Identity
	gotPrefs    []byte
}

func (f *fakeIdentity) Resolve(ctx context.Context, id services.Identity) (*domain.User, error) {
	f.gotIdentity = id
	return f.user, f.resolveErr
}

func (f *fakeIdentity) Get(ctx context.Context, id string) (*domain.User, error) {
	return f.user, f.getErr
}

func (f *fakeIdentity) UpdatePreferences(ctx context.Context, userID string, prefs []byte) error {
	f.gotPrefs = prefs
	return f.prefsErr
}

type fakeMinter struct {
	token     string
	err       error
	claims    *auth.SessionClaims
	verifyErr error
}

func (f *fakeMinter) Mint(u *domain.User) (string, error) { return f.token, f.err }

func (f *fakeMinter) Verify(raw string) (*auth.SessionClaims, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.claims == nil {
		return nil, auth.ErrInvalidToken
	}
	return f.claims, nil
}

func newAuthRouter(google GoogleAuthenticator, users IdentityService, tokens SessionTokens) *gin.Engine {
	r := gin.New()
	h := NewAuthHandlers(google, users, tokens, "https://app.example.com")
	r.GET("/auth/google", h.GoogleRedirect)
	r.GET("/auth/google/callback", h.GoogleCallback)
	r.POST("/auth/google/mobile", h.MobileSignIn)
	r.GET("/auth/status", h.Status)
	r.GET("/auth/logout", h.Logout)
	r.GET("/api/me", asUser("u1", "user"), h.Me)
	r.PUT("/api/me/preferences", asUser("u1", "user"), h.UpdatePreferences)
	return r
}

func TestGoogleRedirect_SetsStateCookie(t *testing.T) {
	r := newAuthRouter(&fakeGoogle{}, &fakeIdentity{}, &fakeMinter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "accounts.google.com") {
		t.Fatalf("expected Google consent URL, got %q", loc)
	}
	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "oauth_state=") || !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("expected HttpOnly state cookie, got %q", cookie)
	}
}

func TestGoogleCallback_StateMismatch(t *testing.T) {
	r := newAuthRouter(&fakeGoogle{}, &fakeIdentity{}, &fakeMinter{})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=attacker", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "legit"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on state mismatch, got %d", w.Code)
	}
}

func TestGoogleCallback_RedirectsWithToken(t *testing.T) {
	google := &fakeGoogle{profile: &auth.Profile{Subject: "sub-1", Email: "u@example.com", Name: "U"}}
	users := &fakeIdentity{user: &domain.User{ID: "sub-1", Email: "u@example.com"}}
	r := newAuthRouter(google, users, &fakeMinter{token: "session-token"})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=abc&state=legit", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "legit"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if loc != "https://app.example.com/auth/callback#token=session-token" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if google.gotCode != "abc" {
		t.Fatalf("expected code forwarded, got %q", google.gotCode)
	}
	if users.gotIdentity.Subject != "sub-1" || users.gotIdentity.Email != "u@example.com" {
		t.Fatalf("unexpected identity %+v", users.gotIdentity)
	}
}

func TestMobileSignIn(t *testing.T) {
	google := &fakeGoogle{profile: &auth.Profile{Subject: "sub-1", Email: "u@example.com"}}
	users := &fakeIdentity{user: &domain.User{ID: "sub-1", Email: "u@example.com"}}
	r := newAuthRouter(google, users, &fakeMinter{token: "session-token"})

	w := postJSON(r, "/auth/google/mobile", `{"idToken":"google-token"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if google.gotIDToken != "google-token" {
		t.Fatalf("expected token forwarded, got %q", google.gotIDToken)
	}
	if !strings.Contains(w.Body.String(), `"token":"session-token"`) {
		t.Fatalf("expected session token in body, got %s", w.Body.String())
	}

	if w := postJSON(r, "/auth/google/mobile", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing idToken, got %d", w.Code)
	}
}

func TestMobileSignIn_InvalidToken(t *testing.T) {
	r := newAuthRouter(&fakeGoogle{err: errors.New("audience mismatch")}, &fakeIdentity{}, &fakeMinter{})

	w := postJSON(r, "/auth/google/mobile", `{"idToken":"bad"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeAuthFailed) {
		t.Fatalf("expected auth_failed code, got %s", w.Body.String())
	}
}

func TestStatus(t *testing.T) {
	users := &fakeIdentity{user: &domain.User{ID: "u1", Email: "u@example.com"}}
	tokens := &fakeMinter{claims: &auth.SessionClaims{Email: "u@example.com"}}
	tokens.claims.Subject = "u1"
	r := newAuthRouter(&fakeGoogle{}, users, tokens)

	// No token: anonymous but still 200.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"authenticated":false`) {
		t.Fatalf("anonymous probe: %d %s", w.Code, w.Body.String())
	}

	// Valid token: authenticated with the profile.
	req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	req.Header.Set("Authorization", "Bearer session-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"authenticated":true`) {
		t.Fatalf("authenticated probe: %d %s", w.Code, w.Body.String())
	}

	// Garbage token: anonymous, never an error.
	tokens.verifyErr = auth.ErrInvalidToken
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"authenticated":false`) {
		t.Fatalf("invalid-token probe: %d %s", w.Code, w.Body.String())
	}
}

func TestLogout(t *testing.T) {
	r := newAuthRouter(&fakeGoogle{}, &fakeIdentity{}, &fakeMinter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/logout", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "signed_out") {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}
}

func TestMe(t *testing.T) {
	users := &fakeIdentity{user: &domain.User{ID: "u1", Email: "u@example.com", Name: "U"}}
	r := newAuthRouter(&fakeGoogle{}, users, &fakeMinter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"u@example.com"`) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}

	users.getErr = services.ErrUserNotFound
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestUpdatePreferences(t *testing.T) {
	users := &fakeIdentity{}
	r := newAuthRouter(&fakeGoogle{}, users, &fakeMinter{})

	req := httptest.NewRequest(http.MethodPut, "/api/me/preferences", strings.NewReader(`{"theme":"dark"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(string(users.gotPrefs), `"theme":"dark"`) {
		t.Fatalf("unexpected prefs %s", users.gotPrefs)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/me/preferences", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
