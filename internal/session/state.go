// Package session holds the single source of truth for who is logged in: the
// bearer token and the current profile, mirrored write-through into a durable
// store.
//
// Mutators (SetToken, SetUser, Invalidate) are reserved for the auth service
// and, through the narrow httpclient.SessionAccessor capability, the request
// interceptor's teardown path. Everything else reads.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"coursehub/internal/session/store"
	"coursehub/pkg/platform/sentinel"
)

// State is the in-memory session mirrored into a store.Store.
type State struct {
	mu     sync.RWMutex
	token  string
	user   *Profile
	store  store.Store
	logger *slog.Logger
}

type Option func(*State)

func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		s.logger = logger
	}
}

// New builds an empty session backed by st. Call Restore to rehydrate.
func New(st store.Store, opts ...Option) (*State, error) {
	if st == nil {
		return nil, fmt.Errorf("session store is required")
	}
	s := &State{
		store:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetToken persists token (deleting the key when empty), then updates memory.
// On a store failure memory keeps its previous value.
func (s *State) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if token == "" {
		err = s.store.Delete(ctx, store.KeyToken)
	} else {
		err = s.store.Set(ctx, store.KeyToken, token)
	}
	if err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.token = token
	return nil
}

// SetUser persists the serialized profile (deleting the key when nil), then updates memory.
func (s *State) SetUser(ctx context.Context, user *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user == nil {
		if err := s.store.Delete(ctx, store.KeyUser); err != nil {
			return fmt.Errorf("persist user: %w", err)
		}
		s.user = nil
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.store.Set(ctx, store.KeyUser, string(data)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	s.user = user.Clone()
	return nil
}

// Token returns the bearer token, or "" when logged out.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current profile, or nil.
func (s *State) User() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

// IsAuthenticated holds exactly when both a token and a profile are present.
func (s *State) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// HasState reports whether anything, even a partial session, is held in memory.
func (s *State) HasState() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" || s.user != nil
}

func (s *State) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Role()
}

func (s *State) DisplayName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.DisplayName()
}

func (s *State) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.UserID()
}

// TokenExpiry decodes the exp claim of a JWT bearer token without verifying
// its signature. ok is false when there is no token, it is not a JWT, or it
// carries no exp.
func (s *State) TokenExpiry() (exp time.Time, ok bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Restore rehydrates memory from the store. A profile that is null or cannot
// be decoded is treated as absent and its key purged; only store failures are
// returned.
func (s *State) Restore(ctx context.Context) error {
	token, err := s.store.Get(ctx, store.KeyToken)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("load token: %w", err)
	}

	var user *Profile
	raw, err := s.store.Get(ctx, store.KeyUser)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load user: %w", err)
	default:
		user, err = DecodeProfile([]byte(raw))
		if err != nil {
			s.logger.WarnContext(ctx, "discarding corrupt persisted profile", "error", err)
			user = nil
		}
		if user == nil {
			if delErr := s.store.Delete(ctx, store.KeyUser); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to purge persisted profile", "error", delErr)
			}
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Invalidate tears the session down: memory is always cleared, then both
// durable keys are deleted. Safe to call repeatedly.
func (s *State) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil

	err := errors.Join(
		s.store.Delete(ctx, store.KeyToken),
		s.store.Delete(ctx, store.KeyUser),
	)
	if err != nil {
		return fmt.Errorf("purge session: %w", err)
	}
	return nil
}
