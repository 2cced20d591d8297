// Package domain defines the persistence models for users, conversations,
// messages, and the per-user reading trackers. These types are mapped with
// GORM and form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Roles assigned to users. RoleAdmin is granted to the single configured
// admin account; it exempts the user from quota enforcement and opens the
// /admin routes.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Message sender tags.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Conversation status values.
const (
	ConversationActive   = 0
	ConversationArchived = 1
)

// DefaultConversationTitle is applied when a conversation is created without
// an explicit title.
const DefaultConversationTitle = "New conversation"

// User represents an account created on first successful identity resolution.
//
// MessagesUsed / MessagesQuota form the chatbot quota ledger: used counts
// consumed chatbot messages and only ever grows (except via an explicit
// admin reset), quota is the ceiling for non-admin accounts.
type User struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Email         string         `json:"email"          gorm:"type:varchar(255);not null;uniqueIndex"`
	Name          string         `json:"name"           gorm:"type:varchar(255);not null"`
	Picture       string         `json:"picture,omitempty" gorm:"type:varchar(512)"`
	Role          string         `json:"role"           gorm:"type:varchar(16);not null;default:'user'"`
	Preferences   datatypes.JSON `json:"preferences"    gorm:"type:json"`
	MessagesUsed  int            `json:"messages_used"  gorm:"not null;default:0"`
	MessagesQuota int            `json:"messages_quota" gorm:"not null;default:1000"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	LastLogin     *time.Time     `json:"last_login,omitempty"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Conversation is a named, ordered container of chatbot messages owned by
// exactly one user. Deleting a conversation cascades to its messages.
type Conversation struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_conversations"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null;default:'New conversation'"`
	Status    int       `json:"status"     gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single utterance within a conversation, authored either by
// the "user" or the "bot". Messages are append-only; ordering is by
// CreatedAt ascending for display.
type Message struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string    `json:"user_id"         gorm:"type:char(36);not null;index"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_msgs,priority:1"`
	Sender         string    `json:"sender"          gorm:"type:varchar(8);not null;check:sender IN ('user','bot')"`
	Text           string    `json:"text"            gorm:"type:text;not null"`
	Context        string    `json:"context,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversation_msgs,priority:2"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
