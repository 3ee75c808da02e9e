package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Roles reported by the backend in user_type.
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Profile is the current user as returned by the backend. Identifiers arrive
// as strings or numbers depending on the endpoint, so they decode into FlexString.
type Profile struct {
	ID           FlexString `json:"id,omitempty"`
	StudentID    FlexString `json:"student_id,omitempty"`
	AdminID      FlexString `json:"admin_id,omitempty"`
	Username     string     `json:"username,omitempty"`
	Name         string     `json:"name,omitempty"`
	UserType     string     `json:"user_type,omitempty"`
	RoleName     string     `json:"role,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	DepartmentID FlexString `json:"department_id,omitempty"`
	Major        string     `json:"major,omitempty"`
	Grade        FlexString `json:"grade,omitempty"`
	Balance      FlexString `json:"balance,omitempty"`
	Status       string     `json:"status,omitempty"`
}

// UserID returns the role-specific identifier: student_id, then admin_id, then id.
func (p *Profile) UserID() string {
	if p == nil {
		return ""
	}
	switch {
	case p.StudentID != "":
		return string(p.StudentID)
	case p.AdminID != "":
		return string(p.AdminID)
	default:
		return string(p.ID)
	}
}

// DisplayName returns the name, falling back to the username.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// Role returns user_type, falling back to role.
func (p *Profile) Role() string {
	if p == nil {
		return ""
	}
	if p.UserType != "" {
		return p.UserType
	}
	return p.RoleName
}

// IsAdmin reports whether the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role() == RoleAdmin
}

// Clone returns a copy so callers cannot mutate session state through it.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// DecodeProfile parses a serialized profile. A JSON null decodes to nil.
func DecodeProfile(data []byte) (*Profile, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var p Profile
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// FlexString accepts a JSON string or number and keeps its textual form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", trimmed)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
