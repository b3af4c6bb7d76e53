package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
)

// userRepository implements user data access
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name, role)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.Name, user.Role)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("user already exists")
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, name, created_at, role
		FROM users
		WHERE email = ?
		LIMIT 1
	`

	user := &models.User{}
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&name,
		&user.CreatedAt,
		&user.Role,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		r.logger.Error("failed to get user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	user.Name = name.String
	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, name, created_at, role
		FROM users
		WHERE id = ?
		LIMIT 1
	`

	user := &models.User{}
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&name,
		&user.CreatedAt,
		&user.Role,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.Int("userId", userID))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	user.Name = name.String
	return user, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err), zap.String("email", email))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// GetAllWithRequestCounts retrieves all users ordered by creation time descending,
// each with the number of access requests the user has submitted
func (r *userRepository) GetAllWithRequestCounts(ctx context.Context) ([]models.UserListItem, error) {
	query := `
		SELECT u.id, u.email, u.name, u.role, u.created_at, COUNT(ar.id) AS request_count
		FROM users u
		LEFT JOIN access_requests ar ON ar.user_id = u.id
		GROUP BY u.id, u.email, u.name, u.role, u.created_at
		ORDER BY u.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.UserListItem
	for rows.Next() {
		var user models.UserListItem
		var name sql.NullString
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&name,
			&user.Role,
			&user.CreatedAt,
			&user.RequestCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Name = name.String
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// DeleteByEmail deletes all users with the given email.
// It is used by the seed-admin recreation path.
func (r *userRepository) DeleteByEmail(ctx context.Context, email string) error {
	query := `DELETE FROM users WHERE email = ?`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		r.logger.Error("failed to delete user by email", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("failed to delete user by email: %w", err)
	}

	return nil
}
