package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/repo"
)

// surahCount is the number of surahs in the Quran.
const surahCount = 114

// dateLayout is the canonical day key for daily aggregates.
const dateLayout = "2006-01-02"

// StatsDelta is one batch of reading activity to fold into today's row.
type StatsDelta struct {
	Hasanat     int64 `json:"hasanat"`
	Verses      int   `json:"verses"`
	TimeSeconds int   `json:"timeSeconds"`
	PagesRead   int   `json:"pagesRead"`
}

// TrackingService implements the reading tracking features: bookmark-style
// progress, history, favorites, goals, timed sessions, daily aggregates, and
// notifications.
type TrackingService struct {
	DB *gorm.DB

	// Now is replaceable in tests to pin "today".
	Now func() time.Time
}

// NewTrackingService builds a TrackingService on the given database handle.
func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

func validPosition(surah, ayah int) bool {
	return surah >= 1 && surah <= surahCount && ayah >= 1
}

// SaveProgress stores the user's current reading position.
func (s *TrackingService) SaveProgress(ctx context.Context, userID string, surah, ayah int) error {
	if !validPosition(surah, ayah) {
		return ErrInvalidInput
	}
	return repo.UpsertProgress(ctx, s.DB, userID, surah, ayah)
}

// Progress returns the saved position, defaulting to surah 1 ayah 1.
func (s *TrackingService) Progress(ctx context.Context, userID string) (*domain.ReadingProgress, error) {
	return repo.GetProgress(ctx, s.DB, userID)
}

// AddHistory appends a reading action to the user's history.
func (s *TrackingService) AddHistory(ctx context.Context, userID string, surah, ayah int, actionType string, durationSeconds int) error {
	if !validPosition(surah, ayah) || durationSeconds < 0 {
		return ErrInvalidInput
	}
	actionType = strings.TrimSpace(actionType)
	if actionType == "" {
		actionType = "read"
	}
	return repo.AddHistory(ctx, s.DB, &domain.ReadingHistory{
		UserID:          userID,
		Surah:           surah,
		Ayah:            ayah,
		ActionType:      actionType,
		DurationSeconds: durationSeconds,
	})
}

// History returns the user's most recent reading actions.
func (s *TrackingService) History(ctx context.Context, userID string, limit int) ([]domain.ReadingHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return repo.ListHistory(ctx, s.DB, userID, limit)
}

// AddFavorite bookmarks a verse, surah, or recitation.
func (s *TrackingService) AddFavorite(ctx context.Context, userID, favType, referenceID, referenceText, notes string) (*domain.Favorite, error) {
	favType = strings.TrimSpace(favType)
	referenceID = strings.TrimSpace(referenceID)
	if favType == "" || referenceID == "" {
		return nil, ErrInvalidInput
	}
	f := &domain.Favorite{
		UserID:        userID,
		Type:          favType,
		ReferenceID:   referenceID,
		ReferenceText: strings.TrimSpace(referenceText),
		Notes:         strings.TrimSpace(notes),
	}
	if err := repo.AddFavorite(ctx, s.DB, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Favorites returns the user's bookmarks.
func (s *TrackingService) Favorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	return repo.ListFavorites(ctx, s.DB, userID)
}

// RemoveFavorite deletes a bookmark owned by userID.
func (s *TrackingService) RemoveFavorite(ctx context.Context, userID string, id uint) error {
	err := repo.DeleteFavorite(ctx, s.DB, id, userID)
	if err == gorm.ErrRecordNotFound {
		return ErrRecordNotFound
	}
	return err
}

// CreateGoal records a reading goal.
func (s *TrackingService) CreateGoal(ctx context.Context, userID, goalType string, target int, start, end *time.Time) (*domain.ReadingGoal, error) {
	goalType = strings.TrimSpace(goalType)
	if goalType == "" || target <= 0 {
		return nil, ErrInvalidInput
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, ErrInvalidInput
	}
	g := &domain.ReadingGoal{UserID: userID, GoalType: goalType, TargetValue: target, StartDate: start, EndDate: end}
	if err := repo.CreateGoal(ctx, s.DB, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Goals returns the user's goals.
func (s *TrackingService) Goals(ctx context.Context, userID string) ([]domain.ReadingGoal, error) {
	return repo.ListGoals(ctx, s.DB, userID)
}

// UpdateGoal advances a goal's running value, ownership-checked.
func (s *TrackingService) UpdateGoal(ctx context.Context, userID string, id uint, currentValue int, completed bool) error {
	if currentValue < 0 {
		return ErrInvalidInput
	}
	err := repo.UpdateGoalProgress(ctx, s.DB, id, userID, currentValue, completed)
	if err == gorm.ErrRecordNotFound {
		return ErrRecordNotFound
	}
	return err
}

// StartSession opens a timed reading session.
func (s *TrackingService) StartSession(ctx context.Context, userID string, deviceInfo []byte) (*domain.ReadingSession, error) {
	sess := &domain.ReadingSession{UserID: userID, StartTime: s.Now()}
	if len(deviceInfo) > 0 {
		sess.DeviceInfo = datatypes.JSON(deviceInfo)
	}
	if err := repo.StartSession(ctx, s.DB, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// EndSession closes a session and records its counters.
func (s *TrackingService) EndSession(ctx context.Context, userID string, id uint, versesRead, hasanatEarned int) error {
	if versesRead < 0 || hasanatEarned < 0 {
		return ErrInvalidInput
	}
	err := repo.EndSession(ctx, s.DB, id, userID, versesRead, hasanatEarned)
	if err == gorm.ErrRecordNotFound {
		return ErrRecordNotFound
	}
	return err
}

// RecordStats folds a batch of activity into today's aggregate row.
// Negative deltas are rejected so a client bug cannot shrink totals.
func (s *TrackingService) RecordStats(ctx context.Context, userID string, d StatsDelta) error {
	if d.Hasanat < 0 || d.Verses < 0 || d.TimeSeconds < 0 || d.PagesRead < 0 {
		return ErrInvalidInput
	}
	date := s.Now().Format(dateLayout)
	return repo.IncrementDailyStats(ctx, s.DB, userID, date, d.Hasanat, d.Verses, d.TimeSeconds, d.PagesRead)
}

// TodayStats returns today's aggregate row, zero-valued when absent.
func (s *TrackingService) TodayStats(ctx context.Context, userID string) (*domain.DailyStat, error) {
	return repo.GetStatsForDate(ctx, s.DB, userID, s.Now().Format(dateLayout))
}

// WeekStats returns the daily rows of the last seven days, oldest first.
func (s *TrackingService) WeekStats(ctx context.Context, userID string) ([]domain.DailyStat, error) {
	since := s.Now().AddDate(0, 0, -6).Format(dateLayout)
	return repo.ListStatsSince(ctx, s.DB, userID, since)
}

// RecentStats returns the user's daily rows for the last days days, newest
// first. days is clamped to [1,365] with a default of 30.
func (s *TrackingService) RecentStats(ctx context.Context, userID string, days int) ([]domain.DailyStat, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	return repo.ListRecentStats(ctx, s.DB, userID, days)
}

// AllStats returns every daily row of the user, oldest first.
func (s *TrackingService) AllStats(ctx context.Context, userID string) ([]domain.DailyStat, error) {
	return repo.ListAllStats(ctx, s.DB, userID)
}

// Totals returns the user's lifetime aggregates.
func (s *TrackingService) Totals(ctx context.Context, userID string) (*domain.DailyStat, error) {
	return repo.StatsTotals(ctx, s.DB, userID)
}

// Notify stores a notification for the user.
func (s *TrackingService) Notify(ctx context.Context, userID, title, body string) (*domain.Notification, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidInput
	}
	n := &domain.Notification{UserID: userID, Title: title, Body: strings.TrimSpace(body)}
	if err := repo.CreateNotification(ctx, s.DB, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Notifications returns the user's notifications, newest first.
func (s *TrackingService) Notifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	return repo.ListNotifications(ctx, s.DB, userID)
}

// MarkRead flags a notification as read, ownership-checked.
func (s *TrackingService) MarkRead(ctx context.Context, userID string, id uint) error {
	err := repo.MarkNotificationRead(ctx, s.DB, id, userID)
	if err == gorm.ErrRecordNotFound {
		return ErrRecordNotFound
	}
	return err
}
