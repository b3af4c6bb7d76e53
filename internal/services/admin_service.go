package services

import (
	"context"

	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminUserRepository is the interface that wraps methods for User table data
// access used by the admin panel
type AdminUserRepository interface {
	// Method Create inserts a new user into the database.
	Create(ctx context.Context, user *models.User) error
	// Method GetAllWithRequestCounts retrieves all users, newest first, with
	// per-user access request counts.
	GetAllWithRequestCounts(ctx context.Context) ([]models.UserListItem, error)
	// Method ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method DeleteByEmail deletes all users with the given email.
	DeleteByEmail(ctx context.Context, email string) error
}

// adminService implements the admin user directory view and the seed-admin
// recreation path
type adminService struct {
	userRepo      AdminUserRepository
	logger        *zap.Logger
	adminEmail    string
	adminPassword string
	adminName     string
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo AdminUserRepository, logger *zap.Logger, adminEmail, adminPassword, adminName string) *adminService {
	return &adminService{
		userRepo:      userRepo,
		logger:        logger,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		adminName:     adminName,
	}
}

// GetAllUsers returns every user with their access request counts
func (s *adminService) GetAllUsers(ctx context.Context) ([]models.UserListItem, error) {
	return s.userRepo.GetAllWithRequestCounts(ctx)
}

// EnsureAdmin creates the seed admin account if it does not exist yet.
// Called once on startup.
func (s *adminService) EnsureAdmin(ctx context.Context) error {
	exists, err := s.userRepo.ExistsByEmail(ctx, s.adminEmail)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        s.adminEmail,
		PasswordHash: string(passwordHash),
		Name:         s.adminName,
		Role:         models.RoleAdmin,
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("seed admin created", zap.String("email", s.adminEmail))
	return nil
}

// RecreateAdmin deletes the seed admin account by email and recreates it
// from the configured credentials. Used to recover a broken admin login.
func (s *adminService) RecreateAdmin(ctx context.Context) (*models.User, error) {
	if err := s.userRepo.DeleteByEmail(ctx, s.adminEmail); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := &models.User{
		Email:        s.adminEmail,
		PasswordHash: string(passwordHash),
		Name:         s.adminName,
		Role:         models.RoleAdmin,
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("seed admin recreated", zap.Int("userId", admin.ID))
	return admin, nil
}
