// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the per-user
// tracking records: progress, history, favorites, goals, sessions, daily
// stats, and notifications.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/harrmos/quran-api/internal/domain"
)

//
// Reading progress (one bookmark per user, upserted)
//

// UpsertProgress saves the user's reading position, inserting the row on
// first save and overwriting surah/ayah afterwards.
func UpsertProgress(ctx context.Context, db *gorm.DB, userID string, surah, ayah int) error {
	p := domain.ReadingProgress{
		UserID:    userID,
		Surah:     surah,
		Ayah:      ayah,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"surah", "ayah", "updated_at"}),
		}).
		Create(&p).Error
}

// GetProgress returns the saved reading position, or the canonical start of
// the text (surah 1, ayah 1) when the user has never saved one.
func GetProgress(ctx context.Context, db *gorm.DB, userID string) (*domain.ReadingProgress, error) {
	var p domain.ReadingProgress
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return &domain.ReadingProgress{UserID: userID, Surah: 1, Ayah: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

//
// Reading history (append-only)
//

// AddHistory appends one reading action.
func AddHistory(ctx context.Context, db *gorm.DB, h *domain.ReadingHistory) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(h).Error
}

// ListHistory returns the most recent history entries, newest first.
func ListHistory(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.ReadingHistory, error) {
	var out []domain.ReadingHistory
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

//
// Favorites
//

// AddFavorite inserts a bookmark.
func AddFavorite(ctx context.Context, db *gorm.DB, f *domain.Favorite) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(f).Error
}

// ListFavorites returns all bookmarks of a user, newest first.
func ListFavorites(ctx context.Context, db *gorm.DB, userID string) ([]domain.Favorite, error) {
	var out []domain.Favorite
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// DeleteFavorite removes a bookmark owned by userID. Returns ErrNotFound
// when the row is missing or owned by someone else.
func DeleteFavorite(ctx context.Context, db *gorm.DB, id uint, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

//
// Goals
//

// CreateGoal inserts a reading goal.
func CreateGoal(ctx context.Context, db *gorm.DB, g *domain.ReadingGoal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(g).Error
}

// ListGoals returns all goals of a user, newest first.
func ListGoals(ctx context.Context, db *gorm.DB, userID string) ([]domain.ReadingGoal, error) {
	var out []domain.ReadingGoal
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// UpdateGoalProgress updates the running value and completion flag of a
// goal owned by userID. Returns ErrNotFound when no row matched.
func UpdateGoalProgress(ctx context.Context, db *gorm.DB, id uint, userID string, currentValue int, completed bool) error {
	res := db.WithContext(ctx).
		Model(&domain.ReadingGoal{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"current_value": currentValue, "is_completed": completed})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

//
// Sessions
//

// StartSession opens a reading session and returns its id.
func StartSession(ctx context.Context, db *gorm.DB, s *domain.ReadingSession) error {
	if s.StartTime.IsZero() {
		s.StartTime = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}

// EndSession closes a session owned by userID, recording the end time, the
// elapsed duration, and the session counters. Returns ErrNotFound when the
// session is missing or owned by someone else.
func EndSession(ctx context.Context, db *gorm.DB, id uint, userID string, versesRead, hasanatEarned int) error {
	var s domain.ReadingSession
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&s).Error
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	duration := int(now.Sub(s.StartTime).Seconds())
	if duration < 0 {
		duration = 0
	}
	return db.WithContext(ctx).
		Model(&domain.ReadingSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"end_time":         now,
			"duration_seconds": duration,
			"verses_read":      versesRead,
			"hasanat_earned":   hasanatEarned,
		}).Error
}

//
// Daily stats (additive upsert per (user, date))
//

// IncrementDailyStats adds the given deltas to the user's aggregate row for
// the date (YYYY-MM-DD), creating it when absent.
func IncrementDailyStats(ctx context.Context, db *gorm.DB, userID, date string, hasanat int64, verses, timeSeconds, pages int) error {
	row := domain.DailyStat{
		UserID:      userID,
		Date:        date,
		Hasanat:     hasanat,
		Verses:      verses,
		TimeSeconds: timeSeconds,
		PagesRead:   pages,
		UpdatedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"hasanat":      gorm.Expr("quran_stats.hasanat + ?", hasanat),
				"verses":       gorm.Expr("quran_stats.verses + ?", verses),
				"time_seconds": gorm.Expr("quran_stats.time_seconds + ?", timeSeconds),
				"pages_read":   gorm.Expr("quran_stats.pages_read + ?", pages),
				"updated_at":   time.Now().UTC(),
			}),
		}).
		Create(&row).Error
}

// GetStatsForDate returns the aggregate row for one day, or a zero row.
func GetStatsForDate(ctx context.Context, db *gorm.DB, userID, date string) (*domain.DailyStat, error) {
	var s domain.DailyStat
	err := db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return &domain.DailyStat{UserID: userID, Date: date}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStatsSince returns daily rows with date >= since, oldest first.
func ListStatsSince(ctx context.Context, db *gorm.DB, userID, since string) ([]domain.DailyStat, error) {
	var out []domain.DailyStat
	err := db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, since).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

// ListAllStats returns every daily row of a user, oldest first.
func ListAllStats(ctx context.Context, db *gorm.DB, userID string) ([]domain.DailyStat, error) {
	var out []domain.DailyStat
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

// ListRecentStats returns up to limit most recent daily rows, newest first.
func ListRecentStats(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.DailyStat, error) {
	var out []domain.DailyStat
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// StatsTotals sums a user's lifetime reading aggregates.
func StatsTotals(ctx context.Context, db *gorm.DB, userID string) (*domain.DailyStat, error) {
	var s domain.DailyStat
	err := db.WithContext(ctx).
		Model(&domain.DailyStat{}).
		Select("COALESCE(SUM(hasanat),0) AS hasanat, COALESCE(SUM(verses),0) AS verses, COALESCE(SUM(time_seconds),0) AS time_seconds, COALESCE(SUM(pages_read),0) AS pages_read").
		Where("user_id = ?", userID).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	s.UserID = userID
	return &s, nil
}

//
// Notifications
//

// CreateNotification inserts a per-user notification.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(n).Error
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, db *gorm.DB, userID string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// MarkNotificationRead flags one notification as read, ownership-checked.
func MarkNotificationRead(ctx context.Context, db *gorm.DB, id uint, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
