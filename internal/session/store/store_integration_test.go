//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"coursehub/internal/session/store"
	"coursehub/pkg/platform/sentinel"
	"coursehub/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client, store.WithKeyPrefix("test:session:"))
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Run("missing key maps redis.Nil to ErrNotFound", func() {
		_, err := s.store.Get(ctx, store.KeyToken)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("keys are written under the prefix", func() {
		s.Require().NoError(s.store.Set(ctx, store.KeyToken, "abc"))
		raw, err := s.redis.Client.Get(ctx, "test:session:token").Result()
		s.Require().NoError(err)
		s.Equal("abc", raw)
	})

	s.Run("delete removes the key", func() {
		s.Require().NoError(s.store.Set(ctx, store.KeyUser, `{"student_id":"s1"}`))
		s.Require().NoError(s.store.Delete(ctx, store.KeyUser))
		_, err := s.store.Get(ctx, store.KeyUser)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.pg.Pool, "alice")
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "client_state"))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Run("missing row maps to ErrNotFound", func() {
		_, err := s.store.Get(ctx, store.KeyToken)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("set upserts", func() {
		s.Require().NoError(s.store.Set(ctx, store.KeyToken, "first"))
		s.Require().NoError(s.store.Set(ctx, store.KeyToken, "second"))
		v, err := s.store.Get(ctx, store.KeyToken)
		s.Require().NoError(err)
		s.Equal("second", v)
	})

	s.Run("namespaces are isolated", func() {
		other := store.NewPostgres(s.pg.Pool, "bob")
		s.Require().NoError(s.store.Set(ctx, store.KeyUser, "alice-profile"))
		_, err := other.Get(ctx, store.KeyUser)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("ensure schema is idempotent", func() {
		s.NoError(s.store.EnsureSchema(ctx))
	})
}
