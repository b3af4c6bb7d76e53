package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mehedimath/backend/internal/models"
)

// courseRepository implements course data access
type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

// scanCourse scans a full course row
func scanCourse(scanner interface{ Scan(dest ...any) error }) (*models.Course, error) {
	var course models.Course
	var description sql.NullString
	err := scanner.Scan(
		&course.ID,
		&course.Title,
		&description,
		&course.BannerImage,
		&course.PageLink,
		&course.Order,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	course.Description = description.String
	return &course, nil
}

// GetPage retrieves one page of courses ordered by display order ascending,
// newest first among equal order values
func (r *courseRepository) GetPage(ctx context.Context, page, limit int) ([]models.Course, error) {
	offset := (page - 1) * limit

	query := `
		SELECT id, title, description, banner_image, page_link, display_order, created_at, updated_at
		FROM courses
		ORDER BY display_order ASC, created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

// Count returns the total number of courses
func (r *courseRepository) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM courses`

	var total int
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}

	return total, nil
}

// HasUnordered checks whether any course still carries a zero display order
// (legacy rows created before ordering existed)
func (r *courseRepository) HasUnordered(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM courses WHERE display_order = 0)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for unordered courses: %w", err)
	}

	return exists, nil
}

// RenumberByCreation reassigns display orders 1..N to all courses by creation
// time ascending. The rewrite happens inside a single transaction so readers
// never observe a half-updated ranking.
func (r *courseRepository) RenumberByCreation(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM courses ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("failed to query courses for renumbering: %w", err)
	}

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan course id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	for rank, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE courses SET display_order = ? WHERE id = ?`, rank+1, id); err != nil {
			return fmt.Errorf("failed to renumber course %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a course by its ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, title, description, banner_image, page_link, display_order, created_at, updated_at
		FROM courses
		WHERE id = ?
		LIMIT 1
	`

	course, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return course, nil
}

// Create inserts a new course with display order max+1. The order read is a
// locking SELECT inside the insert's transaction so concurrent creations
// cannot reuse the same rank.
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var nextOrder int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(display_order), 0) + 1 FROM courses FOR UPDATE`).Scan(&nextOrder)
	if err != nil {
		return fmt.Errorf("failed to compute next display order: %w", err)
	}

	query := `
		INSERT INTO courses (title, description, banner_image, page_link, display_order)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		course.Title,
		course.Description,
		course.BannerImage,
		course.PageLink,
		nextOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	course.ID = int(id)
	course.Order = nextOrder
	return nil
}

// Update applies a partial update. Only non-nil fields change; an explicit
// empty description clears it.
func (r *courseRepository) Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error {
	var setParts []string
	var args []any

	if req.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *req.Description)
	}
	if req.BannerImage != nil {
		setParts = append(setParts, "banner_image = ?")
		args = append(args, *req.BannerImage)
	}
	if req.PageLink != nil {
		setParts = append(setParts, "page_link = ?")
		args = append(args, *req.PageLink)
	}

	if len(setParts) == 0 {
		return fmt.Errorf("no fields to update")
	}

	query := fmt.Sprintf(`
		UPDATE courses
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))

	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("course not found")
	}

	return nil
}

// Delete hard-deletes a course by ID. Access requests referencing the course
// are intentionally left in place.
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM courses WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("course not found")
	}

	return nil
}

// Reorder applies all (id, order) pairs as one transaction so listing reads
// never observe a partially-reordered catalog
func (r *courseRepository) Reorder(ctx context.Context, orders []models.CourseOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, pair := range orders {
		result, err := tx.ExecContext(ctx, `UPDATE courses SET display_order = ? WHERE id = ?`, pair.Order, pair.ID)
		if err != nil {
			return fmt.Errorf("failed to reorder course %d: %w", pair.ID, err)
		}
		if _, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
