// Package users is the stub backend's account directory: seeded accounts with
// bcrypt password hashes, student self-registration and a login log.
package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"coursehub/internal/session"
	dErrors "coursehub/pkg/domain-errors"
	"coursehub/pkg/platform/middleware/device"
)

// Account is one stub user. ID is the student_id or admin_id.
type Account struct {
	ID           string
	Username     string
	UserType     string
	Name         string
	IDNumber     string
	Email        string
	Phone        string
	DepartmentID string
	Major        string
	Grade        int
	Balance      float64
	CreatedAt    time.Time

	passwordHash []byte
}

// Profile renders the account the way /auth/me reports it.
func (a Account) Profile() *session.Profile {
	p := &session.Profile{
		ID:           session.FlexString(a.ID),
		Username:     a.Username,
		Name:         a.Name,
		UserType:     a.UserType,
		Email:        a.Email,
		Phone:        a.Phone,
		DepartmentID: session.FlexString(a.DepartmentID),
		Major:        a.Major,
		Status:       "active",
	}
	switch a.UserType {
	case session.RoleAdmin:
		p.AdminID = session.FlexString(a.ID)
	default:
		p.StudentID = session.FlexString(a.ID)
	}
	return p
}

// Seed is an account created at startup.
type Seed struct {
	Account
	Password string
}

// DefaultSeeds are the development accounts.
func DefaultSeeds() []Seed {
	return []Seed{
		{
			Account:  Account{ID: "admin", Username: "admin", UserType: session.RoleAdmin, Name: "System Administrator"},
			Password: "admin123",
		},
		{
			Account: Account{
				ID:           "202301001",
				Username:     "student1",
				UserType:     session.RoleStudent,
				Name:         "Zhang San",
				DepartmentID: "CS",
				Major:        "Computer Science",
				Grade:        2023,
				Balance:      500,
			},
			Password: "123456",
		},
	}
}

// NewStudent is a self-registration request.
type NewStudent struct {
	StudentID    string
	Name         string
	Password     string
	IDNumber     string
	Email        string
	Phone        string
	DepartmentID string
	Major        string
	Grade        int
}

// LoginRecord is one entry of the login log.
type LoginRecord struct {
	Username  string
	UserID    string
	Success   bool
	ClientIP  string
	Device    device.Info
	Timestamp time.Time
}

// Directory is a concurrency-safe in-memory account store.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	aliases  map[string]string
	logins   []LoginRecord
	cost     int
}

// NewDirectory hashes and stores seeds with the given bcrypt cost.
func NewDirectory(cost int, seeds ...Seed) (*Directory, error) {
	d := &Directory{
		accounts: make(map[string]*Account),
		aliases:  make(map[string]string),
		cost:     cost,
	}
	for _, seed := range seeds {
		if err := d.add(seed.Account, seed.Password); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Directory) add(acct Account, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	acct.passwordHash = hash
	if acct.Username == "" {
		acct.Username = acct.ID
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, taken := d.resolveLocked(acct.ID); taken {
		return dErrors.New(dErrors.CodeBadRequest, "Student ID already registered")
	}
	if _, taken := d.resolveLocked(acct.Username); taken {
		return dErrors.New(dErrors.CodeBadRequest, "Username already registered")
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now()
	}
	d.accounts[acct.ID] = &acct
	d.aliases[acct.Username] = acct.ID
	return nil
}

func (d *Directory) resolveLocked(name string) (*Account, bool) {
	if acct, ok := d.accounts[name]; ok {
		return acct, true
	}
	if id, ok := d.aliases[name]; ok {
		return d.accounts[id], true
	}
	return nil, false
}

// Authenticate matches a username, student_id or admin_id and its password.
// Unknown users and wrong passwords fail alike.
func (d *Directory) Authenticate(_ context.Context, username, password string) (Account, error) {
	d.mu.RLock()
	acct, ok := d.resolveLocked(strings.TrimSpace(username))
	d.mu.RUnlock()
	if !ok {
		return Account{}, dErrors.New(dErrors.CodeUnauthorized, "Incorrect username or password")
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return Account{}, dErrors.New(dErrors.CodeUnauthorized, "Incorrect username or password")
	}
	return *acct, nil
}

// Register creates a student account.
func (d *Directory) Register(_ context.Context, in NewStudent) (Account, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	switch {
	case in.StudentID == "":
		return Account{}, dErrors.New(dErrors.CodeValidation, "student_id is required")
	case strings.TrimSpace(in.Name) == "":
		return Account{}, dErrors.New(dErrors.CodeValidation, "name is required")
	case len(in.Password) < 6:
		return Account{}, dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}

	acct := Account{
		ID:           in.StudentID,
		Username:     in.StudentID,
		UserType:     session.RoleStudent,
		Name:         strings.TrimSpace(in.Name),
		IDNumber:     in.IDNumber,
		Email:        in.Email,
		Phone:        in.Phone,
		DepartmentID: in.DepartmentID,
		Major:        in.Major,
		Grade:        in.Grade,
	}
	if err := d.add(acct, in.Password); err != nil {
		return Account{}, err
	}
	return d.Lookup(context.Background(), acct.ID)
}

// Lookup returns the account with the given id.
func (d *Directory) Lookup(_ context.Context, id string) (Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acct, ok := d.accounts[id]
	if !ok {
		return Account{}, dErrors.New(dErrors.CodeNotFound, "User not found")
	}
	return *acct, nil
}

// Credit adds amount to a student's balance and returns the new balance.
func (d *Directory) Credit(_ context.Context, id string, amount float64) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	acct, ok := d.accounts[id]
	if !ok || acct.UserType != session.RoleStudent {
		return 0, dErrors.New(dErrors.CodeNotFound, "Student not found")
	}
	acct.Balance += amount
	return acct.Balance, nil
}

// RecordLogin appends to the login log.
func (d *Directory) RecordLogin(rec LoginRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logins = append(d.logins, rec)
}

// Logins returns a copy of the login log.
func (d *Directory) Logins() []LoginRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]LoginRecord, len(d.logins))
	copy(out, d.logins)
	return out
}
