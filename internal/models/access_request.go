package models

import "time"

// RequestStatus represents the status of an access request
type RequestStatus string

// Access request statuses
const (
	StatusPending   RequestStatus = "PENDING"
	StatusApproved  RequestStatus = "APPROVED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusSuspended RequestStatus = "SUSPENDED"
)

// IsValid reports whether s is one of the known statuses
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return true
	}
	return false
}

// allowedTransitions holds the admin-driven status state machine
var allowedTransitions = map[RequestStatus][]RequestStatus{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusSuspended, StatusRejected},
	StatusRejected:  {StatusApproved},
	StatusSuspended: {StatusApproved, StatusRejected},
}

// CanTransitionTo reports whether the state machine allows moving from s to target
func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// RequestUser is the requester identity joined into admin-facing listings.
// It deliberately carries no password hash.
type RequestUser struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// AccessRequest represents a user's request for access to a course.
//
// Course is nil when the referenced course has been deleted; the request
// stays listable and the course is surfaced as unavailable.
type AccessRequest struct {
	ID        int           `json:"id"`
	UserID    int           `json:"userId"`
	CourseID  int           `json:"courseId"`
	Status    RequestStatus `json:"status"`
	Message   string        `json:"message,omitempty"`
	AdminNote string        `json:"adminNote,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	User      *RequestUser  `json:"user,omitempty"`
	Course    *Course       `json:"course"`
}

// CreateAccessRequestRequest represents a request to create an access request
type CreateAccessRequestRequest struct {
	CourseID int    `json:"courseId"`
	Message  string `json:"message,omitempty"`
}

// UpdateAccessRequestRequest represents an admin status transition
type UpdateAccessRequestRequest struct {
	Status    RequestStatus `json:"status"`
	AdminNote string        `json:"adminNote,omitempty"`
}
