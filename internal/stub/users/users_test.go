package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"coursehub/internal/session"
	dErrors "coursehub/pkg/domain-errors"
)

func newDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewDirectory(bcrypt.MinCost, DefaultSeeds()...)
	require.NoError(t, err)
	return d
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)

	t.Run("by username", func(t *testing.T) {
		acct, err := d.Authenticate(ctx, "student1", "123456")
		require.NoError(t, err)
		assert.Equal(t, "202301001", acct.ID)
		assert.Equal(t, session.RoleStudent, acct.UserType)
	})

	t.Run("by student id", func(t *testing.T) {
		acct, err := d.Authenticate(ctx, " 202301001 ", "123456")
		require.NoError(t, err)
		assert.Equal(t, "student1", acct.Username)
	})

	t.Run("admin", func(t *testing.T) {
		acct, err := d.Authenticate(ctx, "admin", "admin123")
		require.NoError(t, err)
		assert.True(t, acct.Profile().IsAdmin())
		assert.Equal(t, "admin", acct.Profile().UserID())
	})

	t.Run("wrong password and unknown user fail alike", func(t *testing.T) {
		_, errPassword := d.Authenticate(ctx, "student1", "nope")
		_, errUnknown := d.Authenticate(ctx, "ghost", "123456")
		require.Error(t, errPassword)
		assert.True(t, dErrors.HasCode(errPassword, dErrors.CodeUnauthorized))
		assert.Equal(t, dErrors.MessageOf(errPassword), dErrors.MessageOf(errUnknown))
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)

	acct, err := d.Register(ctx, NewStudent{StudentID: "202301002", Name: "Li Si", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, session.RoleStudent, acct.UserType)

	_, err = d.Authenticate(ctx, "202301002", "secret1")
	require.NoError(t, err)

	_, err = d.Register(ctx, NewStudent{StudentID: "202301002", Name: "Again", Password: "secret1"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = d.Register(ctx, NewStudent{StudentID: "student1", Name: "Alias clash", Password: "secret1"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = d.Register(ctx, NewStudent{StudentID: "x", Name: "Short", Password: "123"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCreditAndLoginLog(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(t)

	balance, err := d.Credit(ctx, "202301001", 50)
	require.NoError(t, err)
	assert.Equal(t, 550.0, balance)

	_, err = d.Credit(ctx, "admin", 50)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	d.RecordLogin(LoginRecord{Username: "student1", Success: true})
	logins := d.Logins()
	require.Len(t, logins, 1)
	logins[0].Username = "mutated"
	assert.Equal(t, "student1", d.Logins()[0].Username)
}
