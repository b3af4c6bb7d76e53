package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mehedimath/backend/internal/models"
	"go.uber.org/zap"
)

// AccessRequestRepository is the interface that wraps methods for AccessRequest table data access
type AccessRequestRepository interface {
	// Method Create inserts a new access request with status PENDING.
	//
	// "request" parameter carries the user and course references plus the optional message.
	//
	// If a request already exists for the (user, course) pair, or some other error occurs,
	// the error will be returned.
	Create(ctx context.Context, request *models.AccessRequest) error
	// Method ExistsByUserAndCourse checks if a request already exists for the pair, any status.
	//
	// If some error occurs during the check, the error will be returned together with "false" value.
	ExistsByUserAndCourse(ctx context.Context, userID, courseID int) (bool, error)
	// Method GetByID retrieves an access request without joins.
	//
	// If no request with such ID exists, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.AccessRequest, error)
	// Method GetByIDJoined retrieves an access request with requester identity and course joined.
	//
	// If no request with such ID exists, the error will be returned together with "nil" value.
	GetByIDJoined(ctx context.Context, id int) (*models.AccessRequest, error)
	// Method GetAll retrieves every access request, newest first, fully joined.
	GetAll(ctx context.Context) ([]models.AccessRequest, error)
	// Method GetByUserID retrieves one user's requests, newest first, with courses joined.
	GetByUserID(ctx context.Context, userID int) ([]models.AccessRequest, error)
	// Method GetByCourseID retrieves one course's requests, newest first, with requesters joined.
	GetByCourseID(ctx context.Context, courseID int) ([]models.AccessRequest, error)
	// Method UpdateStatus sets a new status and optional admin note on a request.
	//
	// If no request with such ID exists, the error will be returned.
	UpdateStatus(ctx context.Context, id int, status models.RequestStatus, adminNote string) error
}

// RequestCourseRepository is the slice of course data access the ledger needs
type RequestCourseRepository interface {
	// Method GetByID retrieves a course by ID.
	//
	// If no course with such ID exists, the error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// accessRequestService implements the access request ledger
type accessRequestService struct {
	requestRepo AccessRequestRepository
	courseRepo  RequestCourseRepository
	logger      *zap.Logger
}

// NewAccessRequestService creates a new access request service
func NewAccessRequestService(requestRepo AccessRequestRepository, courseRepo RequestCourseRepository, logger *zap.Logger) *accessRequestService {
	return &accessRequestService{
		requestRepo: requestRepo,
		courseRepo:  courseRepo,
		logger:      logger,
	}
}

// Create records a new PENDING access request for the caller.
//
// The existence pre-check gives a friendly error on the common path; the
// storage-level unique key on (user_id, course_id) is what actually closes
// the race between two concurrent submissions.
func (s *accessRequestService) Create(ctx context.Context, userID int, req *models.CreateAccessRequestRequest) (*models.AccessRequest, error) {
	if req.CourseID <= 0 {
		return nil, fmt.Errorf("courseId is required")
	}

	if _, err := s.courseRepo.GetByID(ctx, req.CourseID); err != nil {
		return nil, err
	}

	exists, err := s.requestRepo.ExistsByUserAndCourse(ctx, userID, req.CourseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("request already exists")
	}

	request := &models.AccessRequest{
		UserID:   userID,
		CourseID: req.CourseID,
		Message:  strings.TrimSpace(req.Message),
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	return s.requestRepo.GetByIDJoined(ctx, request.ID)
}

// GetAll returns every access request for the admin overview
func (s *accessRequestService) GetAll(ctx context.Context) ([]models.AccessRequest, error) {
	return s.requestRepo.GetAll(ctx)
}

// GetByUserID returns one user's requests with course details
func (s *accessRequestService) GetByUserID(ctx context.Context, userID int) ([]models.AccessRequest, error) {
	return s.requestRepo.GetByUserID(ctx, userID)
}

// GetByCourseID returns one course's requests with requester identities
func (s *accessRequestService) GetByCourseID(ctx context.Context, courseID int) ([]models.AccessRequest, error) {
	return s.requestRepo.GetByCourseID(ctx, courseID)
}

// Transition moves a request to a new status on behalf of an admin.
//
// Moving into REJECTED or SUSPENDED requires a non-empty admin note: negative
// actions always carry a rationale. A note on approval is optional.
func (s *accessRequestService) Transition(ctx context.Context, id int, req *models.UpdateAccessRequestRequest) (*models.AccessRequest, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", req.Status)
	}

	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !request.Status.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("invalid status transition from %s to %s", request.Status, req.Status)
	}

	adminNote := strings.TrimSpace(req.AdminNote)
	if (req.Status == models.StatusRejected || req.Status == models.StatusSuspended) && adminNote == "" {
		return nil, fmt.Errorf("admin note is required when rejecting or suspending")
	}

	if err := s.requestRepo.UpdateStatus(ctx, id, req.Status, adminNote); err != nil {
		return nil, err
	}

	s.logger.Info("access request status changed",
		zap.Int("requestId", id),
		zap.String("from", string(request.Status)),
		zap.String("to", string(req.Status)),
	)

	return s.requestRepo.GetByIDJoined(ctx, id)
}
