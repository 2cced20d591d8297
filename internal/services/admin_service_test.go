package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/repo"
)

func newAdminTestService(t *testing.T) *AdminService {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("admin_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.User{}, &domain.Message{}, &domain.DailyStat{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return NewAdminService(db, NewUserService(db, "", 1000))
}

func TestAdminGlobalStats(t *testing.T) {
	s := newAdminTestService(t)
	ctx := context.Background()

	for _, u := range []*domain.User{
		{ID: "u1", Email: "u1@example.com", Name: "One"},
		{ID: "u2", Email: "u2@example.com", Name: "Two"},
	} {
		if err := repo.CreateUser(ctx, s.DB, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	s.Now = func() time.Time { return time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC) }
	if err := repo.IncrementDailyStats(ctx, s.DB, "u1", "2026-08-31", 40, 10, 300, 1); err != nil {
		t.Fatalf("seed stats: %v", err)
	}
	if err := repo.IncrementDailyStats(ctx, s.DB, "u2", "2026-08-30", 20, 5, 150, 1); err != nil {
		t.Fatalf("seed stats: %v", err)
	}

	totals, err := s.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats: %v", err)
	}
	if totals.Users != 2 || totals.Hasanat != 60 || totals.Verses != 15 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.ActiveToday != 1 {
		t.Fatalf("expected one reader active today, got %d", totals.ActiveToday)
	}
}

func TestAdminResetUserQuota(t *testing.T) {
	s := newAdminTestService(t)
	ctx := context.Background()

	u := &domain.User{ID: "u1", Email: "u1@example.com", Name: "One", MessagesUsed: 42, MessagesQuota: 1000}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if err := s.ResetUserQuota(ctx, "u1"); err != nil {
		t.Fatalf("ResetUserQuota: %v", err)
	}
	got, err := repo.GetUser(ctx, s.DB, "u1")
	if err != nil || got.MessagesUsed != 0 {
		t.Fatalf("expected counter zeroed: %v / %+v", err, got)
	}

	if err := s.ResetUserQuota(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
