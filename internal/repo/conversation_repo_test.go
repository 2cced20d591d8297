package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
)

func TestCreateConversation_SetsFields(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})

	c, err := CreateConversation(context.Background(), db, "u1", "Titre")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if c.ID == "" || c.UserID != "u1" || c.Title != "Titre" {
		t.Fatalf("unexpected conversation: %+v", c)
	}
	if c.Status != domain.ConversationActive {
		t.Fatalf("expected active status, got %d", c.Status)
	}
}

func TestListConversations_NewestFirst(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})
	ctx := context.Background()

	old := &domain.Conversation{ID: "c-old", UserID: "u1", Title: "old", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	if err := db.Create(old).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateConversation(ctx, db, "u1", "new"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if _, err := CreateConversation(ctx, db, "u2", "other user"); err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	items, err := ListConversations(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(items))
	}
	if items[0].Title != "new" || items[1].Title != "old" {
		t.Fatalf("expected newest first, got %q then %q", items[0].Title, items[1].Title)
	}
}

func TestGetConversation_OwnershipEnforced(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "u1", "mine")

	if _, err := GetConversation(ctx, db, c.ID, "u2"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound for wrong owner, got %v", err)
	}
	got, err := GetConversation(ctx, db, c.ID, "u1")
	if err != nil || got.ID != c.ID {
		t.Fatalf("expected owner fetch to succeed, got %v / %v", got, err)
	}
}

func TestUpdateConversationTitle(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "u1", "before")

	if err := UpdateConversationTitle(ctx, db, c.ID, "u1", "after"); err != nil {
		t.Fatalf("UpdateConversationTitle: %v", err)
	}
	got, _ := GetConversation(ctx, db, c.ID, "u1")
	if got.Title != "after" {
		t.Fatalf("expected renamed title, got %q", got.Title)
	}

	if err := UpdateConversationTitle(ctx, db, c.ID, "u2", "hijack"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound for wrong owner, got %v", err)
	}
}

func TestDeleteConversation_RemovesMessages(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "u1", "doomed")
	if _, err := CreateMessage(ctx, db, "u1", c.ID, domain.SenderUser, "salam", ""); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if _, err := CreateMessage(ctx, db, "u1", c.ID, domain.SenderBot, "wa alaykum", ""); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if err := DeleteConversation(ctx, db, c.ID, "u1"); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}

	if _, err := GetConversation(ctx, db, c.ID, "u1"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected conversation gone, got %v", err)
	}
	n, err := CountMessages(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected messages cascade-deleted, got %d", n)
	}
}

func TestDeleteConversation_WrongOwnerKeepsRows(t *testing.T) {
	db := newTestDB(t, &domain.Conversation{}, &domain.Message{})
	ctx := context.Background()

	c, _ := CreateConversation(ctx, db, "u1", "safe")
	if _, err := CreateMessage(ctx, db, "u1", c.ID, domain.SenderUser, "hi", ""); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if err := DeleteConversation(ctx, db, c.ID, "u2"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	n, _ := CountMessages(ctx, db, c.ID)
	if n != 1 {
		t.Fatalf("expected message untouched, got %d", n)
	}
}
