// Package revocation is the stub backend's token revocation list: JTIs of
// logged-out tokens, kept until the token would have expired anyway.
package revocation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coursehub/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

// List records revoked token IDs.
type List interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// InMemoryTRL keeps revocations in process memory.
type InMemoryTRL struct {
	mu      sync.Mutex
	expires map[string]time.Time
	clock   Clock
}

type InMemoryOption func(*InMemoryTRL)

func WithClock(clock Clock) InMemoryOption {
	return func(t *InMemoryTRL) {
		if clock != nil {
			t.clock = clock
		}
	}
}

func NewInMemoryTRL(opts ...InMemoryOption) *InMemoryTRL {
	t := &InMemoryTRL{
		expires: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *InMemoryTRL) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	for k, exp := range t.expires {
		if !now.Before(exp) {
			delete(t.expires, k)
		}
	}
	t.expires[jti] = now.Add(ttl)
	return nil
}

func (t *InMemoryTRL) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	exp, ok := t.expires[jti]
	return ok && t.clock().Before(exp), nil
}

// Len counts entries, expired ones included until the next revocation.
func (t *InMemoryTRL) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.expires)
}

// Checker adapts a List to the auth middleware's revocation port.
type Checker struct {
	List List
}

func (c Checker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return c.List.IsRevoked(ctx, jti)
}
