// Chatbot HTTP handlers: the single-turn chat endpoint and the quota probe.
// Handlers are transport-thin: they validate input, call the services, and
// translate sentinel errors into HTTP statuses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harrmos/quran-api/internal/http/middleware"
	"github.com/harrmos/quran-api/internal/services"
)

// ChatOrchestrator runs one chatbot turn.
type ChatOrchestrator interface {
	SendMessage(ctx context.Context, userID, conversationID, title, text string) (*services.ChatReply, error)
}

// QuotaChecker reports a user's chatbot allowance.
type QuotaChecker interface {
	CheckQuota(ctx context.Context, userID string) (*services.QuotaStatus, error)
}

// ChatHandlers groups the chat and quota endpoints.
type ChatHandlers struct {
	chat  ChatOrchestrator
	quota QuotaChecker
}

// NewChatHandlers constructs the chat endpoints.
func NewChatHandlers(chat ChatOrchestrator, quota QuotaChecker) *ChatHandlers {
	return &ChatHandlers{chat: chat, quota: quota}
}

// ChatRequest is the JSON payload of the chat endpoint. ConversationID may
// be empty or stale; a fresh conversation is created in that case. Title is
// optional and renames an existing conversation when supplied.
type ChatRequest struct {
	Message        string `json:"message" binding:"required" example:"Que dit le Coran sur la patience ?"`
	ConversationID string `json:"conversationId,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Title          string `json:"title,omitempty" example:"Questions sur la patience"`
}

// Chat godoc
// @ID          chat
// @Summary     Send a chatbot message
// @Description Runs one chat turn: checks the quota, assembles the recent context, asks the model, and persists the exchange. Consumes one quota unit on success.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.ChatRequest true "Chat payload"
// @Success     200 {object} services.ChatReply
// @Failure     400 {object} handlers.ErrorResponse "Empty or oversized message"
// @Failure     402 {object} handlers.ErrorResponse "Quota exceeded"
// @Failure     500 {object} handlers.ErrorResponse "Model completion failed"
// @Router      /api/chat [post]
func (h *ChatHandlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.ChatTurns.WithLabelValues("invalid").Inc()
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}

	reply, err := h.chat.SendMessage(c.Request.Context(), middleware.UserID(c), req.ConversationID, req.Title, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			middleware.ChatTurns.WithLabelValues("invalid").Inc()
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is empty")
		case errors.Is(err, services.ErrMessageTooLong):
			middleware.ChatTurns.WithLabelValues("invalid").Inc()
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message too long")
		case errors.Is(err, services.ErrQuotaExceeded):
			middleware.ChatTurns.WithLabelValues("quota_exceeded").Inc()
			fail(c, http.StatusPaymentRequired, ErrCodeQuotaExceeded, "message quota exceeded")
		case errors.Is(err, services.ErrCompletionFailed):
			middleware.ChatTurns.WithLabelValues("completion_failed").Inc()
			fail(c, http.StatusInternalServerError, ErrCodeChatFailed, "the assistant is unavailable, try again later")
		default:
			middleware.ChatTurns.WithLabelValues("error").Inc()
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "chat turn failed")
		}
		return
	}

	middleware.ChatTurns.WithLabelValues("ok").Inc()
	ok(c, http.StatusOK, reply)
}

// Quota godoc
// @ID          quota
// @Summary     Current chatbot quota status
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.QuotaStatus
// @Failure     404 {object} handlers.ErrorResponse "Account not found"
// @Router      /api/chat/quota [get]
func (h *ChatHandlers) Quota(c *gin.Context) {
	status, err := h.quota.CheckQuota(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "quota lookup failed")
		return
	}
	ok(c, http.StatusOK, status)
}
