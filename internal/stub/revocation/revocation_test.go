package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	trl := NewInMemoryTRL(WithClock(func() time.Time { return now }))

	t.Run("revoked until ttl elapses", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "j1", time.Minute))
		revoked, err := trl.IsRevoked(ctx, "j1")
		require.NoError(t, err)
		assert.True(t, revoked)

		now = now.Add(time.Minute)
		revoked, err = trl.IsRevoked(ctx, "j1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("expired entries are swept on revoke", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "j2", time.Minute))
		assert.Equal(t, 1, trl.Len())
	})

	t.Run("empty jti is ignored", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "", time.Minute))
		revoked, err := trl.IsRevoked(ctx, "")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("non-positive ttl is rejected", func(t *testing.T) {
		err := trl.RevokeToken(ctx, "j3", 0)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("checker adapts the list", func(t *testing.T) {
		revoked, err := Checker{List: trl}.IsTokenRevoked(ctx, "j2")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}
