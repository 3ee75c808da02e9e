package service

import (
	"context"
	"net/http"
	"time"

	"coursehub/internal/auth/models"
	"coursehub/internal/notify"
	"coursehub/internal/session"
	"coursehub/internal/transport/httpclient"
	dErrors "coursehub/pkg/domain-errors"
	"coursehub/pkg/requestcontext"
)

// FetchCurrentUser loads the caller's profile and commits it. Failures are
// returned; clearing the session on a 401 is the interceptor's job.
func (s *Service) FetchCurrentUser(ctx context.Context) (*session.Profile, error) {
	profile, err := s.fetchProfile(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := s.session.SetUser(ctx, profile); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist profile", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist profile")
	}
	return s.session.User(), nil
}

// fetchProfile calls /auth/me without committing anything. A non-empty token
// is sent instead of the session's.
func (s *Service) fetchProfile(ctx context.Context, token string) (*session.Profile, error) {
	payload, err := s.transport.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: pathMe, Token: token})
	if err != nil {
		return nil, err
	}

	var profile *session.Profile
	if err := httpclient.Decode(payload, &profile); err != nil {
		notify.Error(ctx, s.notifier, MsgProfileUnavailable)
		return nil, err
	}
	if profile == nil {
		notify.Error(ctx, s.notifier, MsgProfileUnavailable)
		return nil, dErrors.New(dErrors.CodeRequestFailed, MsgProfileUnavailable)
	}
	return profile, nil
}

// Refresh replaces the token. Any failure ends the session, except a
// cancellation by the caller.
func (s *Service) Refresh(ctx context.Context) (*models.RefreshResult, error) {
	payload, err := s.transport.Do(ctx, &httpclient.Request{Method: http.MethodPost, Path: pathRefresh})
	if err != nil {
		if dErrors.Is(err, dErrors.CodeCanceled) {
			return nil, err
		}
		s.endAfterRefresh(ctx, err)
		return nil, err
	}

	var result models.RefreshResult
	if err := httpclient.Decode(payload, &result); err != nil {
		notify.Error(ctx, s.notifier, MsgRefreshFailed)
		s.endAfterRefresh(ctx, err)
		return nil, err
	}
	if result.AccessToken == "" {
		err := dErrors.New(dErrors.CodeRequestFailed, MsgRefreshFailed)
		notify.Error(ctx, s.notifier, MsgRefreshFailed)
		s.endAfterRefresh(ctx, err)
		return nil, err
	}

	if err := s.session.SetToken(ctx, result.AccessToken); err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist refreshed token")
		s.endAfterRefresh(ctx, wrapped)
		return nil, wrapped
	}
	s.logger.DebugContext(ctx, "token refreshed")
	return &result, nil
}

func (s *Service) endAfterRefresh(ctx context.Context, cause error) {
	s.logger.WarnContext(ctx, "token refresh failed, ending session", "error", cause)
	if err := s.Logout(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear session after refresh failure", "error", err)
	}
}

// Logout tells the backend on a best-effort basis, then clears the session
// regardless. Only a failure to purge durable storage is returned.
func (s *Service) Logout(ctx context.Context) error {
	hadSession := s.session.HasState()

	if s.session.Token() != "" {
		_, err := s.transport.Do(httpclient.Quiet(ctx), &httpclient.Request{Method: http.MethodPost, Path: pathLogout})
		if err != nil {
			s.logger.WarnContext(ctx, "backend logout failed", "error", err)
		}
	}

	if err := s.session.Invalidate(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to purge session", "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge session")
	}
	s.metrics.IncrementTeardowns("logout")

	if hadSession {
		notify.Success(ctx, s.notifier, MsgLoggedOut)
	}
	return nil
}

// CheckAuth reports whether the stored token is still accepted.
func (s *Service) CheckAuth(ctx context.Context) bool {
	if s.session.Token() == "" {
		return false
	}
	_, err := s.FetchCurrentUser(ctx)
	return err == nil
}

// Init rehydrates the session and validates a restored token. It runs once
// before any authenticated command. Only storage failures are returned; an
// invalid token simply leaves the caller logged out.
func (s *Service) Init(ctx context.Context) error {
	if err := s.session.Restore(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore session")
	}

	if s.session.Token() == "" {
		if s.session.HasState() {
			// profile without a token
			s.logger.WarnContext(ctx, "discarding incomplete session")
			if err := s.session.Invalidate(ctx); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to purge session")
			}
		}
		return nil
	}

	if s.CheckAuth(ctx) {
		return nil
	}
	s.logger.InfoContext(ctx, "stored token rejected, clearing session")
	return s.Logout(ctx)
}

// EnsureFresh refreshes the token when it expires within leeway. Tokens
// without a readable expiry are left alone.
func (s *Service) EnsureFresh(ctx context.Context, leeway time.Duration) error {
	if s.session.Token() == "" {
		return dErrors.New(dErrors.CodeUnauthorized, httpclient.MsgSessionExpired)
	}
	exp, ok := s.session.TokenExpiry()
	if !ok {
		return nil
	}
	if exp.Sub(requestcontext.Now(ctx)) > leeway {
		return nil
	}
	_, err := s.Refresh(ctx)
	return err
}
