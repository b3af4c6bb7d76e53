package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
)

// CourseRepository is the interface that wraps methods for Course table data access
type CourseRepository interface {
	// Method GetPage retrieves one page of courses ordered by display order.
	GetPage(ctx context.Context, page, limit int) ([]models.Course, error)
	// Method Count returns the total number of courses.
	Count(ctx context.Context) (int, error)
	// Method HasUnordered reports whether any course carries a zero display order.
	HasUnordered(ctx context.Context) (bool, error)
	// Method RenumberByCreation reassigns display orders 1..N by creation time
	// ascending inside one transaction.
	RenumberByCreation(ctx context.Context) error
	// Method GetByID retrieves a course by ID.
	//
	// If no course with such ID exists, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// Method Create inserts a new course with display order max+1.
	Create(ctx context.Context, course *models.Course) error
	// Method Update applies a partial update; nil fields stay unchanged.
	Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error
	// Method Delete hard-deletes a course by ID.
	Delete(ctx context.Context, id int) error
	// Method Reorder applies all (id, order) pairs as one atomic batch.
	Reorder(ctx context.Context, orders []models.CourseOrder) error
}

// courseService implements the course catalog and its ordering reconciler
type courseService struct {
	courseRepo CourseRepository
	logger     *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo CourseRepository, logger *zap.Logger) *courseService {
	return &courseService{
		courseRepo: courseRepo,
		logger:     logger,
	}
}

// Listing page defaults
const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// List returns a page of the catalog. If any course in the full catalog still
// has a zero display order, the whole catalog is renumbered by creation time
// before the page is served. The repair runs at most once per call; concurrent
// repairs converge because the ranking is a pure function of creation time.
func (s *courseService) List(ctx context.Context, page, limit int) (*models.CourseListResponse, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	unordered, err := s.courseRepo.HasUnordered(ctx)
	if err != nil {
		return nil, err
	}
	if unordered {
		s.logger.Info("repairing zero display orders")
		if err := s.courseRepo.RenumberByCreation(ctx); err != nil {
			return nil, err
		}
	}

	courses, err := s.courseRepo.GetPage(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.courseRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit

	if courses == nil {
		courses = []models.Course{}
	}

	return &models.CourseListResponse{
		Courses: courses,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Get returns a single course by ID
func (s *courseService) Get(ctx context.Context, id int) (*models.Course, error) {
	return s.courseRepo.GetByID(ctx, id)
}

// Create validates and inserts a new course at the end of the display order
func (s *courseService) Create(ctx context.Context, req *models.CreateCourseRequest) (*models.Course, error) {
	title := strings.TrimSpace(req.Title)
	bannerImage := strings.TrimSpace(req.BannerImage)
	pageLink := strings.TrimSpace(req.PageLink)

	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if bannerImage == "" {
		return nil, fmt.Errorf("bannerImage is required")
	}
	if pageLink == "" {
		return nil, fmt.Errorf("pageLink is required")
	}

	course := &models.Course{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		BannerImage: bannerImage,
		PageLink:    pageLink,
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	// Re-read so timestamps come from the database
	return s.courseRepo.GetByID(ctx, course.ID)
}

// Update applies a partial update to a course. Required fields may change but
// not become blank; an explicit empty description clears it.
func (s *courseService) Update(ctx context.Context, id int, req *models.UpdateCourseRequest) (*models.Course, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if req.BannerImage != nil && strings.TrimSpace(*req.BannerImage) == "" {
		return nil, fmt.Errorf("bannerImage cannot be empty")
	}
	if req.PageLink != nil && strings.TrimSpace(*req.PageLink) == "" {
		return nil, fmt.Errorf("pageLink cannot be empty")
	}

	if err := s.courseRepo.Update(ctx, id, req); err != nil {
		return nil, err
	}

	return s.courseRepo.GetByID(ctx, id)
}

// Delete hard-deletes a course. Outstanding access requests keep their
// dangling course reference and surface the course as unavailable.
func (s *courseService) Delete(ctx context.Context, id int) error {
	return s.courseRepo.Delete(ctx, id)
}

// Reorder applies an admin-supplied ordering as one atomic batch
func (s *courseService) Reorder(ctx context.Context, req *models.ReorderRequest) error {
	if len(req.CourseOrders) == 0 {
		return fmt.Errorf("courseOrders is required")
	}
	for _, pair := range req.CourseOrders {
		if pair.ID <= 0 {
			return fmt.Errorf("invalid course id in courseOrders")
		}
		if pair.Order < 1 {
			return fmt.Errorf("invalid order value for course %d", pair.ID)
		}
	}

	return s.courseRepo.Reorder(ctx, req.CourseOrders)
}
