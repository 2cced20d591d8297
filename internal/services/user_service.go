package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/domain"
	"github.com/harrmos/quran-api/internal/repo"
)

// defaultPreferences seeds a fresh account's settings blob.
var defaultPreferences = datatypes.JSON([]byte(`{"theme":"light","language":"fr","fontSize":"medium","notifications":true}`))

// Identity is the verified profile extracted from a Google credential.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// QuotaStatus is the result of a quota check.
type QuotaStatus struct {
	CanSend   bool `json:"canSend"`
	Used      int  `json:"used"`
	Quota     int  `json:"quota"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// UserService resolves identities to accounts and keeps the quota ledger.
type UserService struct {
	DB           *gorm.DB
	AdminEmail   string
	DefaultQuota int // messages_quota granted to accounts on first login

	// repo hooks, replaceable in tests
	getUserByEmail func(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
	getUser        func(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	createUser     func(ctx context.Context, db *gorm.DB, u *domain.User) error
	touchLogin     func(ctx context.Context, db *gorm.DB, id string, at time.Time) error
	updatePrefs    func(ctx context.Context, db *gorm.DB, id string, prefs datatypes.JSON) error
	incrementUsed  func(ctx context.Context, db *gorm.DB, id string) error
	resetUsed      func(ctx context.Context, db *gorm.DB, id string) error
}

// NewUserService wires the service to the real repository functions.
func NewUserService(db *gorm.DB, adminEmail string, defaultQuota int) *UserService {
	if defaultQuota < 1 {
		defaultQuota = 1000
	}
	return &UserService{
		DB:             db,
		AdminEmail:     strings.ToLower(strings.TrimSpace(adminEmail)),
		DefaultQuota:   defaultQuota,
		getUserByEmail: repo.GetUserByEmail,
		getUser:        repo.GetUser,
		createUser:     repo.CreateUser,
		touchLogin:     repo.TouchLastLogin,
		updatePrefs:    repo.UpdatePreferences,
		incrementUsed:  repo.IncrementMessagesUsed,
		resetUsed:      repo.ResetMessagesUsed,
	}
}

// Resolve finds the account matching a verified identity, creating it on
// first login. The account's email decides the role: the configured admin
// email gets RoleAdmin, everyone else RoleUser. Email is the stable key so
// accounts survive OAuth subject changes.
func (s *UserService) Resolve(ctx context.Context, id Identity) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()
	u, err := s.getUserByEmail(ctx, s.DB, email)
	if err == nil {
		if err := s.touchLogin(ctx, s.DB, u.ID, now); err != nil {
			log.Warn().Err(err).Str("user_id", u.ID).Msg("failed to record login time")
		}
		u.LastLogin = &now
		return u, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	u = &domain.User{
		ID:            id.Subject,
		Email:         email,
		Name:          strings.TrimSpace(id.Name),
		Picture:       id.Picture,
		Role:          s.roleFor(email),
		MessagesQuota: s.DefaultQuota,
		Preferences:   defaultPreferences,
		LastLogin:     &now,
	}
	if err := s.createUser(ctx, s.DB, u); err != nil {
		// Lost a concurrent first-login race: the unique email index
		// rejected the insert, so the row now exists. Re-read it.
		if existing, readErr := s.getUserByEmail(ctx, s.DB, email); readErr == nil {
			return existing, nil
		}
		return nil, err
	}

	log.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("created account")
	return u, nil
}

func (s *UserService) roleFor(email string) string {
	if s.AdminEmail != "" && email == s.AdminEmail {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

// Get returns the account by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.getUser(ctx, s.DB, id)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrUserNotFound
	}
	return u, err
}

// CheckQuota reports whether the user may send another chatbot message.
// Admin accounts are never gated; their status carries the Unlimited flag
// instead of a meaningful Remaining value.
func (s *UserService) CheckQuota(ctx context.Context, userID string) (*QuotaStatus, error) {
	u, err := s.getUser(ctx, s.DB, userID)
	if err == gorm.ErrRecordNotFound {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if u.IsAdmin() {
		return &QuotaStatus{CanSend: true, Used: u.MessagesUsed, Quota: u.MessagesQuota, Unlimited: true}, nil
	}

	remaining := u.MessagesQuota - u.MessagesUsed
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatus{
		CanSend:   u.MessagesUsed < u.MessagesQuota,
		Used:      u.MessagesUsed,
		Quota:     u.MessagesQuota,
		Remaining: remaining,
	}, nil
}

// ConsumeQuota records one sent message against the user's counter.
func (s *UserService) ConsumeQuota(ctx context.Context, userID string) error {
	return s.incrementUsed(ctx, s.DB, userID)
}

// ResetQuota zeroes a user's counter. Admin operation.
func (s *UserService) ResetQuota(ctx context.Context, userID string) error {
	err := s.resetUsed(ctx, s.DB, userID)
	if err == gorm.ErrRecordNotFound {
		return ErrUserNotFound
	}
	return err
}

// UpdatePreferences validates and stores the user's settings blob.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs []byte) error {
	if len(prefs) == 0 {
		return ErrInvalidInput
	}
	err := s.updatePrefs(ctx, s.DB, userID, datatypes.JSON(prefs))
	if err == gorm.ErrRecordNotFound {
		return ErrUserNotFound
	}
	return err
}
