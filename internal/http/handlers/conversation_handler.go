// Conversation HTTP handlers: lifecycle CRUD plus transcript listing and
// in-conversation search.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/http/middleware"
	"github.com/harrmos/quran-api/internal/services"
)

// ConversationManager defines the conversation operations consumed by the
// HTTP layer. Implementations must be safe for concurrent use.
type ConversationManager interface {
	Create(ctx context.Context, userID, title string) (*domain.Conversation, error)
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	Get(ctx context.Context, id, userID string) (*domain.Conversation, error)
	Rename(ctx context.Context, id, userID, title string) error
	Archive(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id, userID string) error
	Messages(ctx context.Context, id, userID string) ([]domain.Message, error)
	Search(ctx context.Context, id, userID, needle string) ([]domain.Message, error)
}

// ConversationHandlers groups the conversation endpoints.
type ConversationHandlers struct {
	conversations ConversationManager
}

// NewConversationHandlers constructs the conversation endpoints.
func NewConversationHandlers(svc ConversationManager) *ConversationHandlers {
	return &ConversationHandlers{conversations: svc}
}

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// Title optionally names the conversation; a default is used when empty.
	Title string `json:"title" example:"Questions sur le jeûne"`
}

// RenameConversationRequest is the JSON payload for renaming a conversation.
type RenameConversationRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255" example:"Le jeûne de Ramadan"`
}

// conversationErr translates service errors into HTTP responses.
func conversationErr(c *gin.Context, err error) {
	if errors.Is(err, services.ErrConversationNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "conversation operation failed")
}

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a conversation
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body body handlers.CreateConversationRequest true "Create payload"
// @Success     201 {object} domain.Conversation
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Router      /api/conversations [post]
func (h *ConversationHandlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), middleware.UserID(c), strings.TrimSpace(req.Title))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "failed to create conversation")
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List the caller's conversations
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.Conversation
// @Router      /api/conversations [get]
func (h *ConversationHandlers) ListConversations(c *gin.Context) {
	items, err := h.conversations.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list conversations")
		return
	}
	if items == nil {
		items = []domain.Conversation{}
	}
	ok(c, http.StatusOK, items)
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Fetch one conversation
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Conversation ID (UUID)" format(uuid)
// @Success     200 {object} domain.Conversation
// @Failure     404 {object} handlers.ErrorResponse "Conversation not found"
// @Router      /api/conversations/{id} [get]
func (h *ConversationHandlers) GetConversation(c *gin.Context) {
	conv, err := h.conversations.Get(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		conversationErr(c, err)
		return
	}
	ok(c, http.StatusOK, conv)
}

// RenameConversation godoc
// @ID          renameConversation
// @Summary     Rename a conversation
// @Tags        Conversations
// @Accept      json
// @Security    BearerAuth
// @Param       id   path string true "Conversation ID (UUID)" format(uuid)
// @Param       body body handlers.RenameConversationRequest true "New title"
// @Success     204 {string} string "No Content"
// @Failure     400 {object} handlers.ErrorResponse "Bad request"
// @Failure     404 {object} handlers.ErrorResponse "Conversation not found"
// @Router      /api/conversations/{id} [put]
func (h *ConversationHandlers) RenameConversation(c *gin.Context) {
	var req RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1-255 chars)")
		return
	}

	if err := h.conversations.Rename(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Title); err != nil {
		conversationErr(c, err)
		return
	}
	noContent(c)
}

// ArchiveConversation godoc
// @ID          archiveConversation
// @Summary     Archive a conversation
// @Tags        Conversations
// @Security    BearerAuth
// @Param       id path string true "Conversation ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Conversation not found"
// @Router      /api/conversations/{id}/archive [post]
func (h *ConversationHandlers) ArchiveConversation(c *gin.Context) {
	if err := h.conversations.Archive(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		conversationErr(c, err)
		return
	}
	noContent(c)
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation and its messages
// @Tags        Conversations
// @Security    BearerAuth
// @Param       id path string true "Conversation ID (UUID)" format(uuid)
// @Success     204 {string} string "No Content"
// @Failure     404 {object} handlers.ErrorResponse "Conversation not found"
// @Router      /api/conversations/{id} [delete]
func (h *ConversationHandlers) DeleteConversation(c *gin.Context) {
	if err := h.conversations.Delete(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		conversationErr(c, err)
		return
	}
	noContent(c)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     Full transcript of a conversation
// @Description Returns all messages oldest first. With a non-empty q query parameter, returns only messages containing q (case-insensitive, wildcards treated literally).
// @Tags        Conversations
// @Produce     json
// @Security    BearerAuth
// @Param       id path  string true  "Conversation ID (UUID)" format(uuid)
// @Param       q  query string false "Substring filter"
// @Success     200 {array} domain.Message
// @Failure     404 {object} handlers.ErrorResponse "Conversation not found"
// @Router      /api/conversations/{id}/messages [get]
func (h *ConversationHandlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	id := c.Param("id")

	var (
		items []domain.Message
		err   error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		items, err = h.conversations.Search(ctx, id, uid, q)
	} else {
		items, err = h.conversations.Messages(ctx, id, uid)
	}
	if err != nil {
		conversationErr(c, err)
		return
	}
	if items == nil {
		items = []domain.Message{}
	}
	ok(c, http.StatusOK, items)
}
