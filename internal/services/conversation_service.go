package services

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/repo"
)

// maxTitleLen bounds conversation titles, in runes.
const maxTitleLen = 120

// ConversationService manages conversation lifecycle. Ownership checks live
// in the repo queries; this layer adds title hygiene and error mapping.
type ConversationService struct {
	DB *gorm.DB

	create       func(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error)
	list         func(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error)
	get          func(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error)
	updateTitle  func(ctx context.Context, db *gorm.DB, id, userID, title string) error
	updateStatus func(ctx context.Context, db *gorm.DB, id, userID string, status int) error
	remove       func(ctx context.Context, db *gorm.DB, id, userID string) error
	listMessages func(ctx context.Context, db *gorm.DB, userID, conversationID string) ([]domain.Message, error)
	searchMsgs   func(ctx context.Context, db *gorm.DB, userID, conversationID, needle string) ([]domain.Message, error)
}

// NewConversationService wires the service to the real repository functions.
func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{
		DB:           db,
		create:       repo.CreateConversation,
		list:         repo.ListConversations,
		get:          repo.GetConversation,
		updateTitle:  repo.UpdateConversationTitle,
		updateStatus: repo.UpdateConversationStatus,
		remove:       repo.DeleteConversation,
		listMessages: repo.ListMessages,
		searchMsgs:   repo.SearchMessages,
	}
}

// normalizeTitle trims, NFC-normalizes, and clips a raw title. Empty input
// falls back to the default title.
func normalizeTitle(raw string) string {
	t := norm.NFC.String(strings.TrimSpace(raw))
	if t == "" {
		return domain.DefaultConversationTitle
	}
	if r := []rune(t); len(r) > maxTitleLen {
		t = string(r[:maxTitleLen])
	}
	return t
}

// Create starts a new conversation for userID.
func (s *ConversationService) Create(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	return s.create(ctx, s.DB, userID, normalizeTitle(title))
}

// List returns the user's conversations, most recent first.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.list(ctx, s.DB, userID)
}

// Get returns one conversation, ownership-checked.
func (s *ConversationService) Get(ctx context.Context, id, userID string) (*domain.Conversation, error) {
	c, err := s.get(ctx, s.DB, id, userID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrConversationNotFound
	}
	return c, err
}

// Rename changes a conversation title. An empty title is rejected rather
// than silently reset.
func (s *ConversationService) Rename(ctx context.Context, id, userID, title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	err := s.updateTitle(ctx, s.DB, id, userID, normalizeTitle(title))
	if err == gorm.ErrRecordNotFound {
		return ErrConversationNotFound
	}
	return err
}

// Archive marks a conversation archived without deleting its messages.
func (s *ConversationService) Archive(ctx context.Context, id, userID string) error {
	err := s.updateStatus(ctx, s.DB, id, userID, domain.ConversationArchived)
	if err == gorm.ErrRecordNotFound {
		return ErrConversationNotFound
	}
	return err
}

// Delete removes a conversation and all of its messages.
func (s *ConversationService) Delete(ctx context.Context, id, userID string) error {
	err := s.remove(ctx, s.DB, id, userID)
	if err == gorm.ErrRecordNotFound {
		return ErrConversationNotFound
	}
	return err
}

// Messages returns the full transcript of a conversation in display order.
// The conversation must exist and belong to userID.
func (s *ConversationService) Messages(ctx context.Context, id, userID string) ([]domain.Message, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.listMessages(ctx, s.DB, userID, id)
}

// Search returns the conversation's messages containing needle,
// case-insensitive. A blank needle returns the full transcript.
func (s *ConversationService) Search(ctx context.Context, id, userID, needle string) ([]domain.Message, error) {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return nil, err
	}
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return s.listMessages(ctx, s.DB, userID, id)
	}
	return s.searchMsgs(ctx, s.DB, userID, id, needle)
}
