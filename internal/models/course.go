package models

import "time"

// Course represents a course in the catalog.
//
// Display order is unique per course and densely assigned starting at 1 in
// creation order. A zero value marks legacy rows and is repaired by the
// ordering reconciler on the next listing read.
type Course struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	BannerImage string    `json:"bannerImage"`
	PageLink    string    `json:"pageLink"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateCourseRequest represents a request to create a course
type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	BannerImage string `json:"bannerImage"`
	PageLink    string `json:"pageLink"`
}

// UpdateCourseRequest represents a partial course update.
//
// Nil fields are left unchanged; a present empty string clears the field
// (only valid for description).
type UpdateCourseRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	BannerImage *string `json:"bannerImage,omitempty"`
	PageLink    *string `json:"pageLink,omitempty"`
}

// CourseOrder is a single (id, order) pair in a reorder batch
type CourseOrder struct {
	ID    int `json:"id"`
	Order int `json:"order"`
}

// ReorderRequest represents a batch reorder of the whole catalog
type ReorderRequest struct {
	CourseOrders []CourseOrder `json:"courseOrders"`
}

// Pagination describes the page metadata returned with course listings
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// CourseListResponse is a page of courses plus pagination metadata
type CourseListResponse struct {
	Courses    []Course   `json:"courses"`
	Pagination Pagination `json:"pagination"`
}
