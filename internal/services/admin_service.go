package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/repo"
)

// AdminService exposes the read-only platform aggregates and the quota
// reset. Access control happens in the HTTP layer; this service assumes the
// caller is already authorized.
type AdminService struct {
	DB    *gorm.DB
	Users *UserService

	Now func() time.Time
}

// NewAdminService builds an AdminService.
func NewAdminService(db *gorm.DB, users *UserService) *AdminService {
	return &AdminService{DB: db, Users: users, Now: func() time.Time { return time.Now().UTC() }}
}

// GlobalStats returns whole-platform activity totals.
func (s *AdminService) GlobalStats(ctx context.Context) (*repo.GlobalTotals, error) {
	return repo.GetGlobalTotals(ctx, s.DB, s.Now().Format(dateLayout))
}

// UserStats returns the per-user activity listing.
func (s *AdminService) UserStats(ctx context.Context, limit int) ([]repo.UserSummary, error) {
	return repo.ListUserSummaries(ctx, s.DB, limit)
}

// ResetUserQuota zeroes one user's chatbot message counter.
func (s *AdminService) ResetUserQuota(ctx context.Context, userID string) error {
	return s.Users.ResetQuota(ctx, userID)
}
