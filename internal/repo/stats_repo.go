// Admin-facing aggregate queries across all users. These power the
// admin dashboard and are read-only.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
)

// GlobalTotals is the whole-platform aggregate.
type GlobalTotals struct {
	Users        int64 `json:"users"        gorm:"column:users"`
	Hasanat      int64 `json:"hasanat"      gorm:"column:hasanat"`
	Verses       int64 `json:"verses"       gorm:"column:verses"`
	TimeSeconds  int64 `json:"time_seconds" gorm:"column:time_seconds"`
	PagesRead    int64 `json:"pages_read"   gorm:"column:pages_read"`
	Messages     int64 `json:"messages"     gorm:"column:messages"`
	ActiveToday  int64 `json:"active_today"`
	ReadingDays  int64 `json:"reading_days" gorm:"column:reading_days"`
}

// UserSummary is one row of the per-user admin listing.
type UserSummary struct {
	UserID       string `json:"user_id"       gorm:"column:user_id"`
	Email        string `json:"email"         gorm:"column:email"`
	Name         string `json:"name"          gorm:"column:name"`
	Role         string `json:"role"          gorm:"column:role"`
	MessagesUsed int    `json:"messages_used" gorm:"column:messages_used"`
	Hasanat      int64  `json:"hasanat"       gorm:"column:hasanat"`
	Verses       int64  `json:"verses"        gorm:"column:verses"`
	TimeSeconds  int64  `json:"time_seconds"  gorm:"column:time_seconds"`
}

// GetGlobalTotals aggregates platform-wide reading and chat activity.
func GetGlobalTotals(ctx context.Context, db *gorm.DB, today string) (*GlobalTotals, error) {
	var t GlobalTotals

	err := db.WithContext(ctx).
		Model(&domain.DailyStat{}).
		Select("COALESCE(SUM(hasanat),0) AS hasanat, COALESCE(SUM(verses),0) AS verses, COALESCE(SUM(time_seconds),0) AS time_seconds, COALESCE(SUM(pages_read),0) AS pages_read, COUNT(*) AS reading_days").
		Scan(&t).Error
	if err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&domain.User{}).Count(&t.Users).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&domain.Message{}).Count(&t.Messages).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Model(&domain.DailyStat{}).
		Where("date = ?", today).
		Distinct("user_id").
		Count(&t.ActiveToday).Error; err != nil {
		return nil, err
	}

	return &t, nil
}

// ListUserSummaries returns per-user activity rows ordered by lifetime
// hasanat, busiest readers first.
func ListUserSummaries(ctx context.Context, db *gorm.DB, limit int) ([]UserSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []UserSummary
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("users.id AS user_id, users.email, users.name, users.role, users.messages_used, COALESCE(SUM(quran_stats.hasanat),0) AS hasanat, COALESCE(SUM(quran_stats.verses),0) AS verses, COALESCE(SUM(quran_stats.time_seconds),0) AS time_seconds").
		Joins("LEFT JOIN quran_stats ON quran_stats.user_id = users.id").
		Group("users.id, users.email, users.name, users.role, users.messages_used").
		Order("hasanat DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
