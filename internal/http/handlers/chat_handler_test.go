package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/harrmos/quran-api/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser injects an authenticated identity the way the auth middleware does.
func asUser(id, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Set("userRole", role)
		c.Next()
	}
}

type fakeChat struct {
	reply *services.ChatReply
	err   error

	gotUserID, gotConvID, gotTitle, gotText string
}

func (f *fakeChat) SendMessage(ctx context.Context, userID, conversationID, title, text string) (*services.ChatReply, error) {
	f.gotUserID, f.gotConvID, f.gotTitle, f.gotText = userID, conversationID, title, text
	return f.reply, f.err
}

type fakeQuota struct {
	status *services.QuotaStatus
	err    error
}

func (f *fakeQuota) CheckQuota(ctx context.Context, userID string) (*services.QuotaStatus, error) {
	return f.status, f.err
}

func newChatRouter(chat ChatOrchestrator, quota QuotaChecker) *gin.Engine {
	r := gin.New()
	h := NewChatHandlers(chat, quota)
	r.POST("/api/chat", asUser("u1", "user"), h.Chat)
	r.GET("/api/chat/quota", asUser("u1", "user"), h.Quota)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat_Success(t *testing.T) {
	chat := &fakeChat{reply: &services.ChatReply{ConversationID: "c1", Reply: "réponse"}}
	r := newChatRouter(chat, &fakeQuota{})

	w := postJSON(r, "/api/chat", `{"message":"salam","conversationId":"c1","title":"Titre"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if chat.gotUserID != "u1" || chat.gotConvID != "c1" || chat.gotTitle != "Titre" || chat.gotText != "salam" {
		t.Fatalf("unexpected call: %+v", chat)
	}
	if !strings.Contains(w.Body.String(), `"réponse"`) {
		t.Fatalf("expected reply in body, got %s", w.Body.String())
	}
}

func TestChat_MissingMessage(t *testing.T) {
	r := newChatRouter(&fakeChat{}, &fakeQuota{})

	for _, body := range []string{`{}`, `{"message":""}`, `not json`} {
		w := postJSON(r, "/api/chat", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestChat_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"empty", services.ErrEmptyMessage, http.StatusBadRequest, ErrCodeBadRequest},
		{"too long", services.ErrMessageTooLong, http.StatusBadRequest, ErrCodeBadRequest},
		{"quota", services.ErrQuotaExceeded, http.StatusPaymentRequired, ErrCodeQuotaExceeded},
		{"completion", services.ErrCompletionFailed, http.StatusInternalServerError, ErrCodeChatFailed},
		{"other", context.DeadlineExceeded, http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newChatRouter(&fakeChat{err: tc.err}, &fakeQuota{})
			w := postJSON(r, "/api/chat", `{"message":"salam"}`)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if !strings.Contains(w.Body.String(), tc.code) {
				t.Fatalf("expected code %q in %s", tc.code, w.Body.String())
			}
		})
	}
}

func TestQuota_Endpoint(t *testing.T) {
	r := newChatRouter(&fakeChat{}, &fakeQuota{status: &services.QuotaStatus{CanSend: true, Used: 5, Quota: 1000, Remaining: 995}})

	req := httptest.NewRequest(http.MethodGet, "/api/chat/quota", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"remaining":995`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	r = newChatRouter(&fakeChat{}, &fakeQuota{err: services.ErrUserNotFound})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chat/quota", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing account, got %d", w.Code)
	}
}
