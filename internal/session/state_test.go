package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"coursehub/internal/session/store"
	"coursehub/internal/session/store/mocks"
	"coursehub/pkg/platform/sentinel"
)

type StateSuite struct {
	suite.Suite
	store *store.InMemoryStore
	state *State
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateSuite))
}

func (s *StateSuite) SetupTest() {
	s.store = store.NewInMemory()
	var err error
	s.state, err = New(s.store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
}

func (s *StateSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Require().Error(err)
		s.Contains(err.Error(), "session store is required")
	})
}

func (s *StateSuite) TestAuthenticatedRequiresBoth() {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	s.Run("random sequences of SetToken and SetUser", func() {
		var wantToken bool
		var wantUser bool
		for i := 0; i < 200; i++ {
			switch rng.Intn(4) {
			case 0:
				s.Require().NoError(s.state.SetToken(ctx, "tok"))
				wantToken = true
			case 1:
				s.Require().NoError(s.state.SetToken(ctx, ""))
				wantToken = false
			case 2:
				s.Require().NoError(s.state.SetUser(ctx, &Profile{StudentID: "s1"}))
				wantUser = true
			case 3:
				s.Require().NoError(s.state.SetUser(ctx, nil))
				wantUser = false
			}
			s.Equal(wantToken && wantUser, s.state.IsAuthenticated(), "step %d", i)
		}
	})
}

func (s *StateSuite) TestWriteThrough() {
	ctx := context.Background()

	s.Run("token and profile reach the store", func() {
		s.Require().NoError(s.state.SetToken(ctx, "abc"))
		s.Require().NoError(s.state.SetUser(ctx, &Profile{StudentID: "202301001", Name: "Zhang San", UserType: RoleStudent}))

		tok, err := s.store.Get(ctx, store.KeyToken)
		s.Require().NoError(err)
		s.Equal("abc", tok)

		raw, err := s.store.Get(ctx, store.KeyUser)
		s.Require().NoError(err)
		s.Contains(raw, `"student_id":"202301001"`)
	})

	s.Run("clearing deletes the keys", func() {
		s.Require().NoError(s.state.SetToken(ctx, ""))
		s.Require().NoError(s.state.SetUser(ctx, nil))
		_, err := s.store.Get(ctx, store.KeyToken)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.Get(ctx, store.KeyUser)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned profile is a copy", func() {
		s.Require().NoError(s.state.SetUser(ctx, &Profile{Name: "before"}))
		u := s.state.User()
		u.Name = "after"
		s.Equal("before", s.state.DisplayName())
	})
}

func (s *StateSuite) TestStoreFailureLeavesMemoryUnchanged() {
	ctx := context.Background()
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	state, err := New(mockStore)
	s.Require().NoError(err)

	mockStore.EXPECT().Set(gomock.Any(), store.KeyToken, "old").Return(nil)
	s.Require().NoError(state.SetToken(ctx, "old"))

	mockStore.EXPECT().Set(gomock.Any(), store.KeyToken, "new").Return(errors.New("disk full"))
	err = state.SetToken(ctx, "new")
	s.Require().Error(err)
	s.Contains(err.Error(), "disk full")
	s.Equal("old", state.Token())

	mockStore.EXPECT().Set(gomock.Any(), store.KeyUser, gomock.Any()).Return(errors.New("disk full"))
	s.Require().Error(state.SetUser(ctx, &Profile{StudentID: "s1"}))
	s.Nil(state.User())
}

func (s *StateSuite) TestDerivedViews() {
	ctx := context.Background()

	s.Run("empty session never panics", func() {
		s.Equal("", s.state.Role())
		s.Equal("", s.state.DisplayName())
		s.Equal("", s.state.UserID())
		s.Nil(s.state.User())
		s.False(s.state.IsAuthenticated())
	})

	s.Run("student profile", func() {
		s.Require().NoError(s.state.SetUser(ctx, &Profile{StudentID: "202301001", Name: "Zhang San", UserType: RoleStudent}))
		s.Equal("202301001", s.state.UserID())
		s.Equal("Zhang San", s.state.DisplayName())
		s.Equal(RoleStudent, s.state.Role())
	})

	s.Run("admin profile falls back to admin_id and role", func() {
		s.Require().NoError(s.state.SetUser(ctx, &Profile{AdminID: "A001", Username: "admin", RoleName: RoleAdmin}))
		s.Equal("A001", s.state.UserID())
		s.Equal("admin", s.state.DisplayName())
		s.Equal(RoleAdmin, s.state.Role())
	})
}

func (s *StateSuite) TestRestore() {
	ctx := context.Background()

	s.Run("rehydrates token and profile", func() {
		s.Require().NoError(s.store.Set(ctx, store.KeyToken, "abc"))
		s.Require().NoError(s.store.Set(ctx, store.KeyUser, `{"student_id":202301001,"name":"Li Si"}`))

		s.Require().NoError(s.state.Restore(ctx))
		s.True(s.state.IsAuthenticated())
		s.Equal("202301001", s.state.UserID())
		s.Equal("Li Si", s.state.DisplayName())
	})

	s.Run("corrupt profile is treated as absent and purged", func() {
		s.Require().NoError(s.store.Set(ctx, store.KeyToken, "abc"))
		s.Require().NoError(s.store.Set(ctx, store.KeyUser, "{not-json"))

		s.Require().NoError(s.state.Restore(ctx))
		s.Nil(s.state.User())
		s.Equal("abc", s.state.Token())
		s.False(s.state.IsAuthenticated())

		_, err := s.store.Get(ctx, store.KeyUser)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("null profile is treated as absent and purged", func() {
		s.Require().NoError(s.store.Set(ctx, store.KeyToken, "abc"))
		s.Require().NoError(s.store.Set(ctx, store.KeyUser, " null "))

		s.Require().NoError(s.state.Restore(ctx))
		s.Nil(s.state.User())
		s.Equal("abc", s.state.Token())

		_, err := s.store.Get(ctx, store.KeyUser)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.Equal(1, s.store.Len())
	})

	s.Run("empty store restores an empty session", func() {
		s.Require().NoError(s.state.Invalidate(ctx))
		s.Require().NoError(s.state.Restore(ctx))
		s.False(s.state.HasState())
	})
}

func (s *StateSuite) TestRestoreStoreFailure() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()

	mockStore := mocks.NewMockStore(ctrl)
	state, err := New(mockStore)
	s.Require().NoError(err)

	mockStore.EXPECT().Get(gomock.Any(), store.KeyToken).Return("", errors.New("connection refused"))
	err = state.Restore(context.Background())
	s.Require().Error(err)
	s.Contains(err.Error(), "load token")
}

func (s *StateSuite) TestInvalidate() {
	ctx := context.Background()

	s.Run("clears memory and store", func() {
		s.Require().NoError(s.state.SetToken(ctx, "abc"))
		s.Require().NoError(s.state.SetUser(ctx, &Profile{StudentID: "s1"}))

		s.Require().NoError(s.state.Invalidate(ctx))
		s.False(s.state.HasState())
		s.Equal(0, s.store.Len())
	})

	s.Run("is idempotent", func() {
		s.NoError(s.state.Invalidate(ctx))
		s.NoError(s.state.Invalidate(ctx))
	})

	s.Run("memory is cleared even when the store fails", func() {
		ctrl := gomock.NewController(s.T())
		defer ctrl.Finish()
		mockStore := mocks.NewMockStore(ctrl)
		state, err := New(mockStore)
		s.Require().NoError(err)

		mockStore.EXPECT().Set(gomock.Any(), store.KeyToken, "abc").Return(nil)
		s.Require().NoError(state.SetToken(ctx, "abc"))

		mockStore.EXPECT().Delete(gomock.Any(), store.KeyToken).Return(errors.New("unavailable"))
		mockStore.EXPECT().Delete(gomock.Any(), store.KeyUser).Return(nil)
		s.Error(state.Invalidate(ctx))
		s.Equal("", state.Token())
	})
}

func (s *StateSuite) TestTokenExpiry() {
	ctx := context.Background()

	s.Run("no token", func() {
		_, ok := s.state.TokenExpiry()
		s.False(ok)
	})

	s.Run("opaque token", func() {
		s.Require().NoError(s.state.SetToken(ctx, "abc"))
		_, ok := s.state.TokenExpiry()
		s.False(ok)
	})

	s.Run("jwt exp is decoded without verification", func() {
		exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		})
		signed, err := tok.SignedString([]byte("someone-elses-key"))
		s.Require().NoError(err)
		s.Require().NoError(s.state.SetToken(ctx, signed))

		got, ok := s.state.TokenExpiry()
		s.True(ok)
		s.True(exp.Equal(got))
	})
}
