package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mehedimath/backend/internal/models"
)

// accessRequestRepository implements access request data access
type accessRequestRepository struct {
	db *sql.DB
}

// NewAccessRequestRepository creates a new access request repository
func NewAccessRequestRepository(db *sql.DB) *accessRequestRepository {
	return &accessRequestRepository{
		db: db,
	}
}

// nullableCourse holds the LEFT JOINed course columns. Every column is
// nullable because the referenced course may have been deleted.
type nullableCourse struct {
	id          sql.NullInt64
	title       sql.NullString
	description sql.NullString
	bannerImage sql.NullString
	pageLink    sql.NullString
	order       sql.NullInt64
	createdAt   sql.NullTime
	updatedAt   sql.NullTime
}

// toCourse converts the scanned columns to a course, or nil when the
// course row is missing
func (nc *nullableCourse) toCourse() *models.Course {
	if !nc.id.Valid {
		return nil
	}
	return &models.Course{
		ID:          int(nc.id.Int64),
		Title:       nc.title.String,
		Description: nc.description.String,
		BannerImage: nc.bannerImage.String,
		PageLink:    nc.pageLink.String,
		Order:       int(nc.order.Int64),
		CreatedAt:   nc.createdAt.Time,
		UpdatedAt:   nc.updatedAt.Time,
	}
}

const courseJoinColumns = `
	c.id, c.title, c.description, c.banner_image, c.page_link, c.display_order, c.created_at, c.updated_at`

// Create inserts a new access request with status PENDING. A UNIQUE key on
// (user_id, course_id) closes the race between the application-level
// existence check and the insert.
func (r *accessRequestRepository) Create(ctx context.Context, request *models.AccessRequest) error {
	query := `
		INSERT INTO access_requests (user_id, course_id, status, message)
		VALUES (?, ?, ?, ?)
	`

	var message sql.NullString
	if request.Message != "" {
		message = sql.NullString{String: request.Message, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query, request.UserID, request.CourseID, models.StatusPending, message)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("request already exists")
		}
		return fmt.Errorf("failed to create access request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	request.ID = int(id)
	request.Status = models.StatusPending
	return nil
}

// ExistsByUserAndCourse checks if a request already exists for the
// (user, course) pair, regardless of status
func (r *accessRequestRepository) ExistsByUserAndCourse(ctx context.Context, userID, courseID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM access_requests WHERE user_id = ? AND course_id = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check access request existence: %w", err)
	}

	return exists, nil
}

// GetByID retrieves an access request row without joins
func (r *accessRequestRepository) GetByID(ctx context.Context, id int) (*models.AccessRequest, error) {
	query := `
		SELECT id, user_id, course_id, status, message, admin_note, created_at, updated_at
		FROM access_requests
		WHERE id = ?
		LIMIT 1
	`

	request := &models.AccessRequest{}
	var message, adminNote sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.UserID,
		&request.CourseID,
		&request.Status,
		&message,
		&adminNote,
		&request.CreatedAt,
		&request.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("access request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access request by id: %w", err)
	}

	request.Message = message.String
	request.AdminNote = adminNote.String
	return request, nil
}

// GetByIDJoined retrieves an access request with its requester identity and
// course joined. The course may be nil if it has been deleted since.
func (r *accessRequestRepository) GetByIDJoined(ctx context.Context, id int) (*models.AccessRequest, error) {
	query := `
		SELECT ar.id, ar.user_id, ar.course_id, ar.status, ar.message, ar.admin_note, ar.created_at, ar.updated_at,
			u.id, u.email, u.name,` + courseJoinColumns + `
		FROM access_requests ar
		JOIN users u ON u.id = ar.user_id
		LEFT JOIN courses c ON c.id = ar.course_id
		WHERE ar.id = ?
		LIMIT 1
	`

	request := &models.AccessRequest{}
	var message, adminNote, userName sql.NullString
	var user models.RequestUser
	var course nullableCourse
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&request.ID,
		&request.UserID,
		&request.CourseID,
		&request.Status,
		&message,
		&adminNote,
		&request.CreatedAt,
		&request.UpdatedAt,
		&user.ID,
		&user.Email,
		&userName,
		&course.id,
		&course.title,
		&course.description,
		&course.bannerImage,
		&course.pageLink,
		&course.order,
		&course.createdAt,
		&course.updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("access request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access request by id: %w", err)
	}

	request.Message = message.String
	request.AdminNote = adminNote.String
	user.Name = userName.String
	request.User = &user
	request.Course = course.toCourse()
	return request, nil
}

// GetAll retrieves every access request, newest first, with requester
// identity and course joined
func (r *accessRequestRepository) GetAll(ctx context.Context) ([]models.AccessRequest, error) {
	query := `
		SELECT ar.id, ar.user_id, ar.course_id, ar.status, ar.message, ar.admin_note, ar.created_at, ar.updated_at,
			u.id, u.email, u.name,` + courseJoinColumns + `
		FROM access_requests ar
		JOIN users u ON u.id = ar.user_id
		LEFT JOIN courses c ON c.id = ar.course_id
		ORDER BY ar.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query access requests: %w", err)
	}
	defer rows.Close()

	var requests []models.AccessRequest
	for rows.Next() {
		var request models.AccessRequest
		var message, adminNote, userName sql.NullString
		var user models.RequestUser
		var course nullableCourse
		err := rows.Scan(
			&request.ID,
			&request.UserID,
			&request.CourseID,
			&request.Status,
			&message,
			&adminNote,
			&request.CreatedAt,
			&request.UpdatedAt,
			&user.ID,
			&user.Email,
			&userName,
			&course.id,
			&course.title,
			&course.description,
			&course.bannerImage,
			&course.pageLink,
			&course.order,
			&course.createdAt,
			&course.updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access request: %w", err)
		}
		request.Message = message.String
		request.AdminNote = adminNote.String
		user.Name = userName.String
		request.User = &user
		request.Course = course.toCourse()
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return requests, nil
}

// GetByUserID retrieves one user's access requests, newest first, with the
// course joined (no requester identity, the caller already knows it)
func (r *accessRequestRepository) GetByUserID(ctx context.Context, userID int) ([]models.AccessRequest, error) {
	query := `
		SELECT ar.id, ar.user_id, ar.course_id, ar.status, ar.message, ar.admin_note, ar.created_at, ar.updated_at,` +
		courseJoinColumns + `
		FROM access_requests ar
		LEFT JOIN courses c ON c.id = ar.course_id
		WHERE ar.user_id = ?
		ORDER BY ar.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query access requests: %w", err)
	}
	defer rows.Close()

	var requests []models.AccessRequest
	for rows.Next() {
		var request models.AccessRequest
		var message, adminNote sql.NullString
		var course nullableCourse
		err := rows.Scan(
			&request.ID,
			&request.UserID,
			&request.CourseID,
			&request.Status,
			&message,
			&adminNote,
			&request.CreatedAt,
			&request.UpdatedAt,
			&course.id,
			&course.title,
			&course.description,
			&course.bannerImage,
			&course.pageLink,
			&course.order,
			&course.createdAt,
			&course.updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access request: %w", err)
		}
		request.Message = message.String
		request.AdminNote = adminNote.String
		request.Course = course.toCourse()
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return requests, nil
}

// GetByCourseID retrieves a course's access requests, newest first, with the
// requester identity joined (id, email and name only)
func (r *accessRequestRepository) GetByCourseID(ctx context.Context, courseID int) ([]models.AccessRequest, error) {
	query := `
		SELECT ar.id, ar.user_id, ar.course_id, ar.status, ar.message, ar.admin_note, ar.created_at, ar.updated_at,
			u.id, u.email, u.name
		FROM access_requests ar
		JOIN users u ON u.id = ar.user_id
		WHERE ar.course_id = ?
		ORDER BY ar.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query access requests: %w", err)
	}
	defer rows.Close()

	var requests []models.AccessRequest
	for rows.Next() {
		var request models.AccessRequest
		var message, adminNote, userName sql.NullString
		var user models.RequestUser
		err := rows.Scan(
			&request.ID,
			&request.UserID,
			&request.CourseID,
			&request.Status,
			&message,
			&adminNote,
			&request.CreatedAt,
			&request.UpdatedAt,
			&user.ID,
			&user.Email,
			&userName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access request: %w", err)
		}
		request.Message = message.String
		request.AdminNote = adminNote.String
		user.Name = userName.String
		request.User = &user
		requests = append(requests, request)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return requests, nil
}

// UpdateStatus sets a new status (and admin note, when provided) on an
// access request and bumps updated_at
func (r *accessRequestRepository) UpdateStatus(ctx context.Context, id int, status models.RequestStatus, adminNote string) error {
	var result sql.Result
	var err error

	if adminNote != "" {
		query := `UPDATE access_requests SET status = ?, admin_note = ?, updated_at = ? WHERE id = ?`
		result, err = r.db.ExecContext(ctx, query, status, adminNote, time.Now(), id)
	} else {
		query := `UPDATE access_requests SET status = ?, updated_at = ? WHERE id = ?`
		result, err = r.db.ExecContext(ctx, query, status, time.Now(), id)
	}
	if err != nil {
		return fmt.Errorf("failed to update access request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("access request not found")
	}

	return nil
}
