package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
)

func TestUpsertProgress_SingleRow(t *testing.T) {
	db := newTestDB(t, &domain.ReadingProgress{})
	ctx := context.Background()

	if err := UpsertProgress(ctx, db, "u1", 2, 255); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := UpsertProgress(ctx, db, "u1", 3, 1); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var n int64
	db.Model(&domain.ReadingProgress{}).Where("user_id = ?", "u1").Count(&n)
	if n != 1 {
		t.Fatalf("expected a single progress row, got %d", n)
	}

	p, err := GetProgress(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Surah != 3 || p.Ayah != 1 {
		t.Fatalf("expected latest position 3:1, got %d:%d", p.Surah, p.Ayah)
	}
}

func TestGetProgress_DefaultsToStart(t *testing.T) {
	db := newTestDB(t, &domain.ReadingProgress{})

	p, err := GetProgress(context.Background(), db, "fresh")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if p.Surah != 1 || p.Ayah != 1 {
		t.Fatalf("expected default 1:1, got %d:%d", p.Surah, p.Ayah)
	}
}

func TestIncrementDailyStats_Additive(t *testing.T) {
	db := newTestDB(t, &domain.DailyStat{})
	ctx := context.Background()

	if err := IncrementDailyStats(ctx, db, "u1", "2026-08-01", 10, 5, 60, 1); err != nil {
		t.Fatalf("first increment: %v", err)
	}
	if err := IncrementDailyStats(ctx, db, "u1", "2026-08-01", 7, 3, 30, 0); err != nil {
		t.Fatalf("second increment: %v", err)
	}

	s, err := GetStatsForDate(ctx, db, "u1", "2026-08-01")
	if err != nil {
		t.Fatalf("GetStatsForDate: %v", err)
	}
	if s.Hasanat != 17 || s.Verses != 8 || s.TimeSeconds != 90 || s.PagesRead != 1 {
		t.Fatalf("expected summed row, got %+v", s)
	}

	var n int64
	db.Model(&domain.DailyStat{}).Where("user_id = ?", "u1").Count(&n)
	if n != 1 {
		t.Fatalf("expected one row per day, got %d", n)
	}
}

func TestGetStatsForDate_ZeroRowWhenAbsent(t *testing.T) {
	db := newTestDB(t, &domain.DailyStat{})

	s, err := GetStatsForDate(context.Background(), db, "u1", "2026-08-02")
	if err != nil {
		t.Fatalf("GetStatsForDate: %v", err)
	}
	if s.Hasanat != 0 || s.Verses != 0 || s.Date != "2026-08-02" {
		t.Fatalf("expected zero row, got %+v", s)
	}
}

func TestListStatsSince(t *testing.T) {
	db := newTestDB(t, &domain.DailyStat{})
	ctx := context.Background()

	for _, d := range []string{"2026-07-25", "2026-07-28", "2026-08-01"} {
		if err := IncrementDailyStats(ctx, db, "u1", d, 1, 1, 1, 0); err != nil {
			t.Fatalf("increment %s: %v", d, err)
		}
	}

	rows, err := ListStatsSince(ctx, db, "u1", "2026-07-28")
	if err != nil {
		t.Fatalf("ListStatsSince: %v", err)
	}
	if len(rows) != 2 || rows[0].Date != "2026-07-28" || rows[1].Date != "2026-08-01" {
		t.Fatalf("unexpected range: %+v", rows)
	}
}

func TestStatsTotals(t *testing.T) {
	db := newTestDB(t, &domain.DailyStat{})
	ctx := context.Background()

	_ = IncrementDailyStats(ctx, db, "u1", "2026-07-01", 10, 4, 100, 1)
	_ = IncrementDailyStats(ctx, db, "u1", "2026-07-02", 15, 6, 200, 2)
	_ = IncrementDailyStats(ctx, db, "u2", "2026-07-02", 99, 9, 999, 9)

	s, err := StatsTotals(ctx, db, "u1")
	if err != nil {
		t.Fatalf("StatsTotals: %v", err)
	}
	if s.Hasanat != 25 || s.Verses != 10 || s.TimeSeconds != 300 || s.PagesRead != 3 {
		t.Fatalf("unexpected totals: %+v", s)
	}
}

func TestDeleteFavorite_Ownership(t *testing.T) {
	db := newTestDB(t, &domain.Favorite{})
	ctx := context.Background()

	f := &domain.Favorite{UserID: "u1", Type: "verse", ReferenceID: "2:255"}
	if err := AddFavorite(ctx, db, f); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}

	if err := DeleteFavorite(ctx, db, f.ID, "u2"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound for wrong owner, got %v", err)
	}
	if err := DeleteFavorite(ctx, db, f.ID, "u1"); err != nil {
		t.Fatalf("DeleteFavorite: %v", err)
	}
	if err := DeleteFavorite(ctx, db, f.ID, "u1"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
}

func TestEndSession_ComputesDuration(t *testing.T) {
	db := newTestDB(t, &domain.ReadingSession{})
	ctx := context.Background()

	s := &domain.ReadingSession{UserID: "u1", StartTime: time.Now().UTC().Add(-90 * time.Second)}
	if err := StartSession(ctx, db, s); err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	if err := EndSession(ctx, db, s.ID, "u1", 12, 120); err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	var got domain.ReadingSession
	if err := db.First(&got, s.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.EndTime == nil {
		t.Fatal("expected end time set")
	}
	if got.DurationSeconds < 89 || got.DurationSeconds > 95 {
		t.Fatalf("expected ~90s duration, got %d", got.DurationSeconds)
	}
	if got.VersesRead != 12 || got.HasanatEarned != 120 {
		t.Fatalf("unexpected counters: %+v", got)
	}
}

func TestEndSession_WrongOwner(t *testing.T) {
	db := newTestDB(t, &domain.ReadingSession{})
	ctx := context.Background()

	s := &domain.ReadingSession{UserID: "u1"}
	if err := StartSession(ctx, db, s); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := EndSession(ctx, db, s.ID, "u2", 1, 1); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUpdateGoalProgress(t *testing.T) {
	db := newTestDB(t, &domain.ReadingGoal{})
	ctx := context.Background()

	g := &domain.ReadingGoal{UserID: "u1", GoalType: "daily_verses", TargetValue: 10}
	if err := CreateGoal(ctx, db, g); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}

	if err := UpdateGoalProgress(ctx, db, g.ID, "u1", 10, true); err != nil {
		t.Fatalf("UpdateGoalProgress: %v", err)
	}
	var got domain.ReadingGoal
	db.First(&got, g.ID)
	if got.CurrentValue != 10 || !got.IsCompleted {
		t.Fatalf("unexpected goal: %+v", got)
	}

	if err := UpdateGoalProgress(ctx, db, g.ID, "u2", 1, false); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	db := newTestDB(t, &domain.Notification{})
	ctx := context.Background()

	n := &domain.Notification{UserID: "u1", Title: "Objectif atteint"}
	if err := CreateNotification(ctx, db, n); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	if err := MarkNotificationRead(ctx, db, n.ID, "u2"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound for wrong owner, got %v", err)
	}
	if err := MarkNotificationRead(ctx, db, n.ID, "u1"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}

	items, err := ListNotifications(ctx, db, "u1")
	if err != nil || len(items) != 1 {
		t.Fatalf("ListNotifications: %v / %d", err, len(items))
	}
	if !items[0].Read {
		t.Fatal("expected notification marked read")
	}
}

func TestListHistory_Limit(t *testing.T) {
	db := newTestDB(t, &domain.ReadingHistory{})
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h := &domain.ReadingHistory{UserID: "u1", Surah: 1, Ayah: i + 1, ActionType: "read", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := AddHistory(ctx, db, h); err != nil {
			t.Fatalf("AddHistory: %v", err)
		}
	}

	items, err := ListHistory(ctx, db, "u1", 3)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(items))
	}
	if items[0].Ayah != 5 {
		t.Fatalf("expected newest first, got ayah %d", items[0].Ayah)
	}
}
