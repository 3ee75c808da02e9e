// Package catalog holds the stub backend's read models: the course catalogue,
// per-user unread counters and the recharge ledger.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"coursehub/internal/api"
	"coursehub/internal/api/courses"
	"coursehub/internal/api/transactions"
	dErrors "coursehub/pkg/domain-errors"
)

// Page size bounds applied to listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query selects a page of the course catalogue.
type Query struct {
	Page         int
	PageSize     int
	DepartmentID string
	Semester     string
	Status       string
	Search       string
}

// Unread holds the unread counters of one user.
type Unread struct {
	Messages      int
	Notifications int
}

// Catalog is a concurrency-safe in-memory store.
type Catalog struct {
	mu         sync.RWMutex
	courses    map[string]courses.Course
	unread     map[string]Unread
	recharges  []transactions.Transaction
	nextTxID   int64
	dailyLimit float64
}

// New builds a catalog holding the given courses.
func New(seed []courses.Course) *Catalog {
	c := &Catalog{
		courses:    make(map[string]courses.Course, len(seed)),
		unread:     make(map[string]Unread),
		nextTxID:   1,
		dailyLimit: transactions.MaxTransferAmount,
	}
	for _, course := range seed {
		c.courses[course.CourseID] = course
	}
	return c
}

// DefaultCourses is the development catalogue.
func DefaultCourses() []courses.Course {
	return []courses.Course{
		{CourseID: "CS101", CourseName: "Introduction to Programming", DepartmentID: "CS", DepartmentName: "Computer Science", Credits: 3, Hours: 48, TeacherName: "Prof. Wang", MaxStudents: 120, CurrentStudents: 87, Semester: "2024-2025-1", Schedule: "Mon 08:00-09:40", Status: "active"},
		{CourseID: "CS201", CourseName: "Data Structures", DepartmentID: "CS", DepartmentName: "Computer Science", Credits: 4, Hours: 64, TeacherName: "Prof. Li", MaxStudents: 100, CurrentStudents: 100, Semester: "2024-2025-1", Schedule: "Tue 10:00-11:40", Status: "active"},
		{CourseID: "CS305", CourseName: "Operating Systems", DepartmentID: "CS", DepartmentName: "Computer Science", Credits: 4, Hours: 64, TeacherName: "Prof. Zhao", MaxStudents: 80, CurrentStudents: 41, Semester: "2024-2025-2", Schedule: "Wed 14:00-15:40", Status: "active"},
		{CourseID: "MA101", CourseName: "Calculus I", DepartmentID: "MA", DepartmentName: "Mathematics", Credits: 5, Hours: 80, TeacherName: "Prof. Chen", MaxStudents: 150, CurrentStudents: 132, Semester: "2024-2025-1", Schedule: "Thu 08:00-09:40", Status: "active"},
		{CourseID: "MA202", CourseName: "Linear Algebra", DepartmentID: "MA", DepartmentName: "Mathematics", Credits: 3, Hours: 48, TeacherName: "Prof. Sun", MaxStudents: 120, CurrentStudents: 0, Semester: "2024-2025-2", Schedule: "Fri 10:00-11:40", Status: "inactive"},
		{CourseID: "EN110", CourseName: "Academic English", DepartmentID: "EN", DepartmentName: "Foreign Languages", Credits: 2, Hours: 32, TeacherName: "Dr. Smith", MaxStudents: 40, CurrentStudents: 38, Semester: "2024-2025-1", Schedule: "Mon 14:00-15:40", Status: "active"},
	}
}

// ListCourses filters, orders by course id and paginates.
func (c *Catalog) ListCourses(_ context.Context, q Query) api.Page[courses.Course] {
	page, size := normalizePage(q.Page, q.PageSize)
	search := strings.ToLower(strings.TrimSpace(q.Search))

	c.mu.RLock()
	matched := make([]courses.Course, 0, len(c.courses))
	for _, course := range c.courses {
		if q.DepartmentID != "" && course.DepartmentID != q.DepartmentID {
			continue
		}
		if q.Semester != "" && course.Semester != q.Semester {
			continue
		}
		if q.Status != "" && course.Status != q.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(course.CourseName), search) &&
			!strings.Contains(strings.ToLower(course.CourseID), search) &&
			!strings.Contains(strings.ToLower(course.TeacherName), search) {
			continue
		}
		matched = append(matched, course)
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CourseID < matched[j].CourseID })
	return paginate(matched, page, size)
}

func (c *Catalog) GetCourse(_ context.Context, id string) (courses.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[id]
	if !ok {
		return courses.Course{}, dErrors.New(dErrors.CodeNotFound, "Course not found")
	}
	return course, nil
}

// SetUnread replaces a user's unread counters.
func (c *Catalog) SetUnread(userID string, u Unread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unread[userID] = u
}

// Unread returns a user's counters; unknown users have none.
func (c *Catalog) Unread(_ context.Context, userID string) Unread {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unread[userID]
}

// RecordRecharge appends a completed admin credit to the ledger.
func (c *Catalog) RecordRecharge(_ context.Context, adminID, studentID string, amount float64, at time.Time) transactions.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx := transactions.Transaction{
		TransactionID: c.nextTxID,
		SenderID:      adminID,
		RecipientID:   studentID,
		Amount:        amount,
		Status:        "completed",
		Description:   "recharge",
		CreatedAt:     at.UTC().Format(time.RFC3339),
		CompletedAt:   at.UTC().Format(time.RFC3339),
	}
	c.nextTxID++
	c.recharges = append(c.recharges, tx)
	return tx
}

// DailyLimit is the per-day transfer limit reported with balances.
func (c *Catalog) DailyLimit() float64 {
	return c.dailyLimit
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

func paginate[T any](items []T, page, size int) api.Page[T] {
	total := len(items)
	out := api.Page[T]{
		Items:      []T{},
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}
	start := (page - 1) * size
	if start >= total {
		return out
	}
	end := min(start+size, total)
	out.Items = items[start:end]
	return out
}
