package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/config"
	"momo-loanhub/internal/pkg/jwt"
	"momo-loanhub/internal/pkg/password"

	"gorm.io/gorm"
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminInactive      = errors.New("admin account is inactive")
	ErrAdminNotFound      = errors.New("admin not found")
)

// AuthService handles admin authentication
type AuthService struct {
	adminRepo repositories.AdminRepository
	cfg       *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(adminRepo repositories.AdminRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		cfg:       cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// LoginOutput represents a successful login
type LoginOutput struct {
	Admin       *models.Admin `json:"admin"`
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// Login checks credentials and issues a session token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	// 1. Find admin
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Check active
	if !admin.IsActive {
		return nil, ErrAdminInactive
	}

	// 3. Verify password
	if !password.Verify(input.Password, admin.Password) {
		return nil, ErrInvalidCredentials
	}

	// 4. Issue token
	minutes := s.cfg.JWT.AccessTokenMins
	token, err := jwt.GenerateAccessToken(admin.ID, admin.Username, s.cfg.JWT.Secret, minutes)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.adminRepo.TouchLogin(ctx, admin.ID, now); err != nil {
		log.Printf("⚠️ Failed to record login for %s: %v", admin.Username, err)
	}

	log.Printf("🔐 Admin logged in: %s", admin.Username)

	return &LoginOutput{
		Admin:       admin,
		AccessToken: token,
		ExpiresAt:   now.Add(time.Duration(minutes) * time.Minute),
	}, nil
}

// Me returns the logged-in admin
func (s *AuthService) Me(ctx context.Context, adminID uint) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
