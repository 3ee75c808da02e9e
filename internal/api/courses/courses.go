// Package courses is the client for the course catalogue.
package courses

import (
	"context"
	"net/url"
	"strings"

	"coursehub/internal/api"
)

const basePath = "/api/v1/courses"

type Course struct {
	CourseID        string  `json:"course_id"`
	CourseName      string  `json:"course_name"`
	DepartmentID    string  `json:"department_id"`
	DepartmentName  string  `json:"department_name,omitempty"`
	Credits         float64 `json:"credits"`
	Hours           int     `json:"hours"`
	Description     string  `json:"description,omitempty"`
	TeacherName     string  `json:"teacher_name,omitempty"`
	MaxStudents     int     `json:"max_students"`
	CurrentStudents int     `json:"current_students"`
	Semester        string  `json:"semester,omitempty"`
	Schedule        string  `json:"schedule,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// SeatsLeft never goes negative.
func (c Course) SeatsLeft() int {
	if n := c.MaxStudents - c.CurrentStudents; n > 0 {
		return n
	}
	return 0
}

// Filter narrows a course listing.
type Filter struct {
	api.PageQuery
	DepartmentID string
	Semester     string
	Status       string
	Search       string
}

func (f Filter) values() url.Values {
	v := f.PageQuery.Values()
	api.SetIf(v, "department_id", f.DepartmentID)
	api.SetIf(v, "semester", f.Semester)
	api.SetIf(v, "status", f.Status)
	api.SetIf(v, "search", f.Search)
	return v
}

// Create describes a new course (admin).
type Create struct {
	CourseID     string  `json:"course_id"`
	CourseName   string  `json:"course_name"`
	DepartmentID string  `json:"department_id"`
	Credits      float64 `json:"credits"`
	Hours        int     `json:"hours"`
	Description  string  `json:"description,omitempty"`
	TeacherName  string  `json:"teacher_name,omitempty"`
	MaxStudents  int     `json:"max_students,omitempty"`
	Semester     string  `json:"semester,omitempty"`
	Schedule     string  `json:"schedule,omitempty"`
}

func (c Create) Validate() error {
	switch {
	case strings.TrimSpace(c.CourseID) == "":
		return api.Invalid("course id is required")
	case len(c.CourseID) > 20:
		return api.Invalid("course id must be at most 20 characters")
	case strings.TrimSpace(c.CourseName) == "":
		return api.Invalid("course name is required")
	case c.DepartmentID == "":
		return api.Invalid("department id is required")
	case c.Credits < 0 || c.Credits > 10:
		return api.Invalid("credits must be between 0 and 10")
	case c.Hours < 1:
		return api.Invalid("hours must be at least 1")
	case c.MaxStudents < 0:
		return api.Invalid("max students must be positive")
	}
	return nil
}

// Update is a partial course update (admin). Nil fields are left unchanged.
type Update struct {
	CourseName   *string  `json:"course_name,omitempty"`
	DepartmentID *string  `json:"department_id,omitempty"`
	Credits      *float64 `json:"credits,omitempty"`
	Hours        *int     `json:"hours,omitempty"`
	Description  *string  `json:"description,omitempty"`
	TeacherName  *string  `json:"teacher_name,omitempty"`
	MaxStudents  *int     `json:"max_students,omitempty"`
	Semester     *string  `json:"semester,omitempty"`
	Schedule     *string  `json:"schedule,omitempty"`
	Status       *string  `json:"status,omitempty"`
}

type Client struct {
	caller api.Caller
}

func New(caller api.Caller) *Client {
	return &Client{caller: caller}
}

func (c *Client) List(ctx context.Context, f Filter) (api.Page[Course], error) {
	return api.Get[api.Page[Course]](ctx, c.caller, basePath, f.values())
}

// Search lists courses matching keyword.
func (c *Client) Search(ctx context.Context, keyword string, f Filter) (api.Page[Course], error) {
	f.Search = strings.TrimSpace(keyword)
	return c.List(ctx, f)
}

func (c *Client) Get(ctx context.Context, courseID string) (*Course, error) {
	if courseID == "" {
		return nil, api.Invalid("course id is required")
	}
	return api.Get[*Course](ctx, c.caller, coursePath(courseID), nil)
}

func (c *Client) Create(ctx context.Context, in Create) (*Course, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return api.Post[*Course](ctx, c.caller, basePath, in)
}

func (c *Client) Update(ctx context.Context, courseID string, in Update) (*Course, error) {
	if courseID == "" {
		return nil, api.Invalid("course id is required")
	}
	return api.Put[*Course](ctx, c.caller, coursePath(courseID), in)
}

func (c *Client) Delete(ctx context.Context, courseID string) error {
	if courseID == "" {
		return api.Invalid("course id is required")
	}
	return api.Delete(ctx, c.caller, coursePath(courseID))
}

func coursePath(id string) string {
	return basePath + "/" + url.PathEscape(id)
}
