// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model, including the bounded context-window query used by the chat flow
// and wildcard-safe substring search.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
)

// CreateMessage inserts a new message row. Messages are append-only.
func CreateMessage(ctx context.Context, db *gorm.DB, userID, conversationID, sender, text, contextNote string) (*domain.Message, error) {
	m := &domain.Message{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		Context:        contextNote,
		CreatedAt:      time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// ListMessages returns all messages of a conversation owned by userID in
// display order (CreatedAt ASC, ID ASC as deterministic tie-break).
func ListMessages(ctx context.Context, db *gorm.DB, userID, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// RecentMessages returns up to limit most recent messages of a conversation
// in oldest-to-newest order. The rows are fetched newest-first to bound the
// query and reversed afterwards, preserving conversational order for the
// completion context window.
func RecentMessages(ctx context.Context, db *gorm.DB, userID, conversationID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountMessages returns the number of messages in a conversation.
func CountMessages(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&total).Error
	return total, err
}

// SearchMessages returns messages of a conversation whose text contains the
// given substring, case-insensitive, oldest first. LIKE wildcards in the
// needle are escaped so "%test" matches the literal characters.
func SearchMessages(ctx context.Context, db *gorm.DB, userID, conversationID, needle string) ([]domain.Message, error) {
	pattern := "%" + escapeLike(needle) + "%"
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("user_id = ? AND conversation_id = ?", userID, conversationID).
		Where(`LOWER(text) LIKE LOWER(?) ESCAPE '\'`, pattern).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
