package models

import (
	"net/mail"
	"strings"

	"coursehub/internal/session"
	dErrors "coursehub/pkg/domain-errors"
)

// Credentials are exchanged for a bearer token. Username is a student id or
// admin id.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Normalize trims the username. Passwords are taken verbatim.
func (c *Credentials) Normalize() {
	c.Username = strings.TrimSpace(c.Username)
}

func (c Credentials) Validate() error {
	if c.Username == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if c.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	return nil
}

// Registration is a new student account.
type Registration struct {
	StudentID    string `json:"student_id"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	IDNumber     string `json:"id_number"`
	BirthDate    string `json:"birth_date,omitempty"`
	Address      string `json:"address,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
	Major        string `json:"major,omitempty"`
	Grade        int    `json:"grade,omitempty"`
}

func (r *Registration) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.Name = strings.TrimSpace(r.Name)
	r.IDNumber = strings.TrimSpace(r.IDNumber)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
}

func (r Registration) Validate() error {
	switch {
	case r.StudentID == "":
		return dErrors.New(dErrors.CodeValidation, "student id is required")
	case len(r.StudentID) > 20:
		return dErrors.New(dErrors.CodeValidation, "student id must be at most 20 characters")
	case r.Name == "":
		return dErrors.New(dErrors.CodeValidation, "name is required")
	case len([]rune(r.Name)) > 50:
		return dErrors.New(dErrors.CodeValidation, "name must be at most 50 characters")
	case len(r.Password) < 6:
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	case r.IDNumber == "":
		return dErrors.New(dErrors.CodeValidation, "id number is required")
	case len(r.IDNumber) > 18:
		return dErrors.New(dErrors.CodeValidation, "id number must be at most 18 characters")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return dErrors.New(dErrors.CodeValidation, "email is invalid")
		}
	}
	return nil
}

// LoginResult is the payload of a successful login. User may be absent when
// the backend only issues the token.
type LoginResult struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type,omitempty"`
	ExpiresIn   int              `json:"expires_in,omitempty"`
	UserType    string           `json:"user_type,omitempty"`
	User        *session.Profile `json:"user,omitempty"`
}

// RefreshResult is the payload of a successful token refresh.
type RefreshResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}
