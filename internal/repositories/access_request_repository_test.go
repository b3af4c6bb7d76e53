package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/mehedimath/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAccessRequestTestRepository creates an access request repository with a mock database
func setupAccessRequestTestRepository(t *testing.T) (*accessRequestRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAccessRequestRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

// joinedColumns is the fully joined column set returned by GetByIDJoined and GetAll
var joinedColumns = []string{
	"id", "user_id", "course_id", "status", "message", "admin_note", "created_at", "updated_at",
	"u_id", "u_email", "u_name",
	"c_id", "c_title", "c_description", "c_banner_image", "c_page_link", "c_display_order", "c_created_at", "c_updated_at",
}

func TestAccessRequestRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		request       *models.AccessRequest
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		errorContains string
	}{
		{
			name:    "success with message",
			request: &models.AccessRequest{UserID: 1, CourseID: 2, Message: "please"},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO access_requests`).
					WithArgs(1, 2, models.StatusPending, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(5, 1))
			},
		},
		{
			name:    "success without message",
			request: &models.AccessRequest{UserID: 1, CourseID: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO access_requests`).
					WithArgs(1, 2, models.StatusPending, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(5, 1))
			},
		},
		{
			name:    "duplicate pair maps to conflict",
			request: &models.AccessRequest{UserID: 1, CourseID: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO access_requests`).
					WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
			},
			expectedError: true,
			errorContains: "request already exists",
		},
		{
			name:    "database error",
			request: &models.AccessRequest{UserID: 1, CourseID: 2},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO access_requests`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
			errorContains: "failed to create access request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccessRequestTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.request)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 5, tt.request.ID)
				assert.Equal(t, models.StatusPending, tt.request.Status)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccessRequestRepository_ExistsByUserAndCourse(t *testing.T) {
	tests := []struct {
		name     string
		exists   bool
		expected bool
	}{
		{name: "exists", exists: true, expected: true},
		{name: "does not exist", exists: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupAccessRequestTestRepository(t)
			defer cleanup()

			rows := sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists)
			mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM access_requests WHERE user_id = \? AND course_id = \?\)`).
				WithArgs(1, 2).
				WillReturnRows(rows)

			result, err := repo.ExistsByUserAndCourse(context.Background(), 1, 2)

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccessRequestRepository_GetByID(t *testing.T) {
	now := time.Now()

	t.Run("success", func(t *testing.T) {
		repo, mock, cleanup := setupAccessRequestTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "status", "message", "admin_note", "created_at", "updated_at"}).
			AddRow(1, 2, 3, "PENDING", "please", nil, now, now)
		mock.ExpectQuery(`SELECT.*FROM access_requests.*WHERE id = \?`).
			WithArgs(1).
			WillReturnRows(rows)

		request, err := repo.GetByID(context.Background(), 1)

		assert.NoError(t, err)
		assert.Equal(t, 1, request.ID)
		assert.Equal(t, models.StatusPending, request.Status)
		assert.Equal(t, "please", request.Message)
		assert.Empty(t, request.AdminNote)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupAccessRequestTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT.*FROM access_requests.*WHERE id = \?`).
			WithArgs(999).
			WillReturnError(sql.ErrNoRows)

		request, err := repo.GetByID(context.Background(), 999)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "access request not found")
		assert.Nil(t, request)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccessRequestRepository_GetByIDJoined(t *testing.T) {
	now := time.Now()

	t.Run("course joined", func(t *testing.T) {
		repo, mock, cleanup := setupAccessRequestTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows(joinedColumns).
			AddRow(1, 2, 3, "APPROVED", nil, "welcome", now, now,
				2, "student@example.com", "Student",
				3, "Algebra", "Linear equations", "/uploads/a.png", "https://example.com/algebra", 1, now, now)
		mock.ExpectQuery(`SELECT.*FROM access_requests ar.*JOIN users u.*LEFT JOIN courses c.*WHERE ar\.id = \?`).
			WithArgs(1).
			WillReturnRows(rows)

		request, err := repo.GetByIDJoined(context.Background(), 1)

		assert.NoError(t, err)
		require.NotNil(t, request.User)
		assert.Equal(t, "student@example.com", request.User.Email)
		require.NotNil(t, request.Course)
		assert.Equal(t, "Algebra", request.Course.Title)
		assert.Equal(t, "welcome", request.AdminNote)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deleted course surfaces as nil", func(t *testing.T) {
		repo, mock, cleanup := setupAccessRequestTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows(joinedColumns).
			AddRow(1, 2, 3, "PENDING", nil, nil, now, now,
				2, "student@example.com", nil,
				nil, nil, nil, nil, nil, nil, nil, nil)
		mock.ExpectQuery(`SELECT.*FROM access_requests ar.*JOIN users u.*LEFT JOIN courses c.*WHERE ar\.id = \?`).
			WithArgs(1).
			WillReturnRows(rows)

		request, err := repo.GetByIDJoined(context.Background(), 1)

		assert.NoError(t, err)
		require.NotNil(t, request.User)
		assert.Nil(t, request.Course)
		assert.Equal(t, 3, request.CourseID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccessRequestRepository_GetByUserID(t *testing.T) {
	now := time.Now()

	repo, mock, cleanup := setupAccessRequestTestRepository(t)
	defer cleanup()

	columns := []string{
		"id", "user_id", "course_id", "status", "message", "admin_note", "created_at", "updated_at",
		"c_id", "c_title", "c_description", "c_banner_image", "c_page_link", "c_display_order", "c_created_at", "c_updated_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow(2, 1, 5, "APPROVED", nil, nil, now, now,
			5, "Geometry", nil, "/uploads/g.png", "https://example.com/geometry", 2, now, now).
		AddRow(1, 1, 4, "PENDING", "please", nil, now, now,
			nil, nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(`SELECT.*FROM access_requests ar.*LEFT JOIN courses c.*WHERE ar\.user_id = \?`).
		WithArgs(1).
		WillReturnRows(rows)

	requests, err := repo.GetByUserID(context.Background(), 1)

	assert.NoError(t, err)
	require.Len(t, requests, 2)
	require.NotNil(t, requests[0].Course)
	assert.Equal(t, "Geometry", requests[0].Course.Title)
	assert.Nil(t, requests[1].Course)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepository_GetByCourseID(t *testing.T) {
	now := time.Now()

	repo, mock, cleanup := setupAccessRequestTestRepository(t)
	defer cleanup()

	columns := []string{
		"id", "user_id", "course_id", "status", "message", "admin_note", "created_at", "updated_at",
		"u_id", "u_email", "u_name",
	}
	rows := sqlmock.NewRows(columns).
		AddRow(1, 2, 5, "PENDING", nil, nil, now, now, 2, "student@example.com", "Student")
	mock.ExpectQuery(`SELECT.*FROM access_requests ar.*JOIN users u.*WHERE ar\.course_id = \?`).
		WithArgs(5).
		WillReturnRows(rows)

	requests, err := repo.GetByCourseID(context.Background(), 5)

	assert.NoError(t, err)
	require.Len(t, requests, 1)
	require.NotNil(t, requests[0].User)
	assert.Equal(t, "Student", requests[0].User.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccessRequestRepository_UpdateStatus(t *testing.T) {
	t.Run("with admin note", func(t *testing.T) {
		repo, mock, cleanup := setupAccessRequestTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE access_requests SET status = \?, admin_note = \?, updated_at = \? WHERE id = \?`).
			WithArgs(models.StatusRejected, "payment missing", sqlmock.AnyArg(), 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(context.Background(), 1, models.StatusRejected, "payment missing")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without admin note", func(t *testing.T) {
		repo, mock, cleanup := setupAccessRequestTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE access_requests SET status = \?, updated_at = \? WHERE id = \?`).
			WithArgs(models.StatusApproved, sqlmock.AnyArg(), 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(context.Background(), 1, models.StatusApproved, "")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupAccessRequestTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE access_requests SET status = \?, updated_at = \? WHERE id = \?`).
			WithArgs(models.StatusApproved, sqlmock.AnyArg(), 999).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), 999, models.StatusApproved, "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "access request not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
