// Tracking models: reading progress, history, favorites, goals, sessions,
// daily stat aggregates, and notifications. Each record is scoped to one
// user and cascade-deletes with the owning account.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ReadingProgress is the single bookmark per user: the surah/ayah the user
// last read. One row per user, upserted on every save.
type ReadingProgress struct {
	ID        uint      `json:"-"          gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;uniqueIndex"`
	Surah     int       `json:"surah"      gorm:"not null;default:1"`
	Ayah      int       `json:"ayah"       gorm:"not null;default:1"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ReadingProgress) TableName() string { return "reading_progress" }

// ReadingHistory is an append-only log of reading actions.
type ReadingHistory struct {
	ID              uint      `json:"id"               gorm:"primaryKey;autoIncrement"`
	UserID          string    `json:"user_id"          gorm:"type:char(36);not null;index"`
	Surah           int       `json:"surah"            gorm:"not null"`
	Ayah            int       `json:"ayah"             gorm:"not null"`
	ActionType      string    `json:"action_type"      gorm:"type:varchar(32);not null"`
	DurationSeconds int       `json:"duration_seconds" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ReadingHistory) TableName() string { return "reading_history" }

// Favorite is a bookmarked verse, surah, or recitation with optional notes.
type Favorite struct {
	ID            uint      `json:"id"             gorm:"primaryKey;autoIncrement"`
	UserID        string    `json:"user_id"        gorm:"type:char(36);not null;index"`
	Type          string    `json:"type"           gorm:"type:varchar(32);not null"`
	ReferenceID   string    `json:"reference_id"   gorm:"type:varchar(64);not null"`
	ReferenceText string    `json:"reference_text" gorm:"type:text"`
	Notes         string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Favorite) TableName() string { return "favorites" }

// ReadingGoal tracks a user-defined target (daily verses, weekly pages, ...).
type ReadingGoal struct {
	ID           uint       `json:"id"            gorm:"primaryKey;autoIncrement"`
	UserID       string     `json:"user_id"       gorm:"type:char(36);not null;index"`
	GoalType     string     `json:"goal_type"     gorm:"type:varchar(32);not null"`
	TargetValue  int        `json:"target_value"  gorm:"not null"`
	CurrentValue int        `json:"current_value" gorm:"not null;default:0"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	IsCompleted  bool       `json:"is_completed"  gorm:"not null;default:false"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ReadingGoal) TableName() string { return "reading_goals" }

// ReadingSession is one timed reading sitting. EndTime and the derived
// counters are filled when the session is closed.
type ReadingSession struct {
	ID              uint           `json:"id"               gorm:"primaryKey;autoIncrement"`
	UserID          string         `json:"user_id"          gorm:"type:char(36);not null;index"`
	DeviceInfo      datatypes.JSON `json:"device_info"      gorm:"type:json"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         *time.Time     `json:"end_time,omitempty"`
	DurationSeconds int            `json:"duration_seconds" gorm:"not null;default:0"`
	VersesRead      int            `json:"verses_read"      gorm:"not null;default:0"`
	HasanatEarned   int            `json:"hasanat_earned"   gorm:"not null;default:0"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ReadingSession) TableName() string { return "reading_sessions" }

// DailyStat aggregates one day of reading per user. Increments are additive
// upserts keyed by (user, date).
type DailyStat struct {
	ID          uint      `json:"-"            gorm:"primaryKey;autoIncrement"`
	UserID      string    `json:"user_id"      gorm:"type:char(36);not null;uniqueIndex:ux_user_date,priority:1"`
	Date        string    `json:"date"         gorm:"type:date;not null;uniqueIndex:ux_user_date,priority:2"`
	Hasanat     int64     `json:"hasanat"      gorm:"not null;default:0"`
	Verses      int       `json:"verses"       gorm:"not null;default:0"`
	TimeSeconds int       `json:"time_seconds" gorm:"not null;default:0"`
	PagesRead   int       `json:"pages_read"   gorm:"not null;default:0"`
	UpdatedAt   time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (DailyStat) TableName() string { return "quran_stats" }

// Notification is a per-user message shown in the app (goal reached, streak
// reminders, announcements).
type Notification struct {
	ID        uint      `json:"id"         gorm:"primaryKey;autoIncrement"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null"`
	Body      string    `json:"body"       gorm:"type:text"`
	Read      bool      `json:"read"       gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Notification) TableName() string { return "notifications" }
