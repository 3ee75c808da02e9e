// Package enrollments is the client for course selection and grading.
package enrollments

import (
	"context"
	"net/url"

	"coursehub/internal/api"
)

const basePath = "/api/v1/enrollments"

// Enrollment statuses.
const (
	StatusEnrolled  = "enrolled"
	StatusDropped   = "dropped"
	StatusCompleted = "completed"
)

type Enrollment struct {
	EnrollmentID   int64    `json:"enrollment_id"`
	StudentID      string   `json:"student_id"`
	StudentName    string   `json:"student_name,omitempty"`
	CourseID       string   `json:"course_id"`
	CourseName     string   `json:"course_name,omitempty"`
	DepartmentName string   `json:"department_name,omitempty"`
	Credits        *float64 `json:"credits,omitempty"`
	EnrollmentDate string   `json:"enrollment_date,omitempty"`
	Grade          *float64 `json:"grade,omitempty"`
	GradeDate      string   `json:"grade_date,omitempty"`
	Status         string   `json:"status"`
	Remarks        string   `json:"remarks,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
}

// GradeUpdate records a grade (admin).
type GradeUpdate struct {
	Grade   float64 `json:"grade"`
	Remarks string  `json:"remarks,omitempty"`
}

func (g GradeUpdate) Validate() error {
	if g.Grade < 0 || g.Grade > 100 {
		return api.Invalid("grade must be between 0 and 100")
	}
	return nil
}

// Statistics is the admin enrollment summary. Its shape is backend-defined.
type Statistics map[string]any

type Client struct {
	caller api.Caller
}

func New(caller api.Caller) *Client {
	return &Client{caller: caller}
}

// Enroll selects a course for the current student.
func (c *Client) Enroll(ctx context.Context, courseID string) (*Enrollment, error) {
	if courseID == "" {
		return nil, api.Invalid("course id is required")
	}
	return api.Post[*Enrollment](ctx, c.caller, basePath, map[string]string{"course_id": courseID})
}

// Drop withdraws an enrollment.
func (c *Client) Drop(ctx context.Context, enrollmentID int64) error {
	if enrollmentID <= 0 {
		return api.Invalid("enrollment id is required")
	}
	return api.Delete(ctx, c.caller, basePath+"/"+api.PathID(enrollmentID))
}

// MyCourses lists the current student's enrollments, optionally by status.
func (c *Client) MyCourses(ctx context.Context, status string) ([]Enrollment, error) {
	q := url.Values{}
	api.SetIf(q, "status", status)
	return api.Get[[]Enrollment](ctx, c.caller, basePath+"/my-courses", q)
}

// CourseEnrollments lists the students enrolled in a course (admin).
func (c *Client) CourseEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	if courseID == "" {
		return nil, api.Invalid("course id is required")
	}
	return api.Get[[]Enrollment](ctx, c.caller, basePath+"/course/"+url.PathEscape(courseID), nil)
}

// UpdateGrade records a grade (admin).
func (c *Client) UpdateGrade(ctx context.Context, enrollmentID int64, in GradeUpdate) (*Enrollment, error) {
	if enrollmentID <= 0 {
		return nil, api.Invalid("enrollment id is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return api.Put[*Enrollment](ctx, c.caller, basePath+"/"+api.PathID(enrollmentID)+"/grade", in)
}

// Statistics returns the enrollment summary (admin).
func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	return api.Get[Statistics](ctx, c.caller, basePath+"/statistics", nil)
}
