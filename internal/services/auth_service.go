package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// If a user with the same email already exists, or some other error occurs,
	// the error will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email.
	//
	// If no user with such email exists, the error will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If no user with such ID exists, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during the check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// SessionRepository is the interface that wraps methods for Session table data access
type SessionRepository interface {
	// Method Create inserts a new session into the database.
	Create(ctx context.Context, session *models.Session) error
	// Method GetByToken retrieves a session by token string.
	//
	// If no session with such token exists, the error will be returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// Method DeleteByToken deletes a session by token string.
	DeleteByToken(ctx context.Context, token string) error
}

// authService implements signup, login and session resolution
type authService struct {
	userRepo      UserRepository
	sessionRepo   SessionRepository
	logger        *zap.Logger
	sessionExpiry time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, sessionRepo SessionRepository, logger *zap.Logger, sessionExpiry time.Duration) *authService {
	return &authService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		logger:        logger,
		sessionExpiry: sessionExpiry,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// passwordRegex validates password: at least 8 chars, a lowercase letter, an
// uppercase letter and a number
var passwordRegex = []*regexp.Regexp{
	regexp.MustCompile(`.{8,}`),
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`[0-9]`),
}

// Signup creates a new user account and opens a session for it
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.Identity, string, error) {
	email := strings.TrimSpace(req.Email)
	if !emailRegex.MatchString(email) {
		return nil, "", fmt.Errorf("invalid email format")
	}

	for _, re := range passwordRegex {
		if !re.MatchString(req.Password) {
			return nil, "", fmt.Errorf("password must be at least 8 characters and contain an uppercase letter, a lowercase letter and a number")
		}
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", fmt.Errorf("user already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		Name:         strings.TrimSpace(req.Name),
		Role:         models.RoleUser, // Default role
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	return s.openSession(ctx, user)
}

// Login authenticates a user and opens a session
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.Identity, string, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, "", fmt.Errorf("email cannot be empty")
	}
	if req.Password == "" {
		return nil, "", fmt.Errorf("password cannot be empty")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	return s.openSession(ctx, user)
}

// openSession issues an opaque session token for the user
func (s *authService) openSession(ctx context.Context, user *models.User) (*models.Identity, string, error) {
	session := &models.Session{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(s.sessionExpiry),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", err
	}

	identity := &models.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}

	return identity, session.Token, nil
}

// Logout deletes the session for the given token
func (s *authService) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.DeleteByToken(ctx, token)
}

// ResolveSession maps an opaque session token to the caller's identity.
// Expired sessions are deleted on sight.
func (s *authService) ResolveSession(ctx context.Context, token string) (*models.Identity, error) {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, fmt.Errorf("session expired")
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return &models.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}
