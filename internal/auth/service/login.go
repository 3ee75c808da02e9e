package service

import (
	"context"
	"net/http"
	"net/url"

	"coursehub/internal/auth/models"
	"coursehub/internal/notify"
	"coursehub/internal/session"
	"coursehub/internal/transport/httpclient"
	dErrors "coursehub/pkg/domain-errors"
)

// Login exchanges credentials for a token and commits the session. A failed
// login leaves any existing session untouched.
func (s *Service) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	creds.Normalize()
	if err := creds.Validate(); err != nil {
		notify.Error(ctx, s.notifier, dErrors.MessageOf(err))
		return nil, err
	}

	req := &httpclient.Request{Method: http.MethodPost, Path: pathLogin, Anonymous: true}
	if s.loginForm {
		req.Form = url.Values{"username": {creds.Username}, "password": {creds.Password}}
	} else {
		req.Body = creds
	}

	payload, err := s.transport.Do(ctx, req)
	if err != nil {
		s.metrics.IncrementLogins("failure")
		s.logger.InfoContext(ctx, "login rejected", "username", creds.Username, "error", err)
		return nil, err
	}

	var result models.LoginResult
	if err := httpclient.Decode(payload, &result); err != nil {
		s.metrics.IncrementLogins("failure")
		notify.Error(ctx, s.notifier, MsgLoginFailed)
		return nil, err
	}
	if result.AccessToken == "" {
		s.metrics.IncrementLogins("failure")
		notify.Error(ctx, s.notifier, MsgLoginFailed)
		return nil, dErrors.New(dErrors.CodeRequestFailed, MsgLoginFailed)
	}

	user, err := s.commitLogin(ctx, &result)
	if err != nil {
		s.metrics.IncrementLogins("failure")
		return nil, err
	}
	result.User = user

	s.metrics.IncrementLogins("success")
	s.logger.InfoContext(ctx, "logged in", "user_id", user.UserID(), "role", user.Role())
	notify.Success(ctx, s.notifier, MsgLoginSuccessful)
	return &result, nil
}

// commitLogin persists the token and the profile. When the payload carries no
// profile it is fetched with the new token before anything is written, so a
// failure leaves the previous session as it was.
func (s *Service) commitLogin(ctx context.Context, result *models.LoginResult) (*session.Profile, error) {
	user := result.User
	if user == nil {
		fetched, err := s.fetchProfile(ctx, result.AccessToken)
		if err != nil {
			return nil, err
		}
		user = fetched
	}
	if user.UserType == "" {
		user.UserType = result.UserType
	}

	previous := s.session.Token()
	if err := s.session.SetToken(ctx, result.AccessToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist token", "error", err)
		notify.Error(ctx, s.notifier, MsgLoginFailed)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}
	if err := s.session.SetUser(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist profile", "error", err)
		s.restoreToken(ctx, previous)
		notify.Error(ctx, s.notifier, MsgLoginFailed)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}
	return s.session.User(), nil
}

// Register creates a student account. The session is not touched; the user
// logs in afterwards.
func (s *Service) Register(ctx context.Context, reg models.Registration) (*session.Profile, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		notify.Error(ctx, s.notifier, dErrors.MessageOf(err))
		return nil, err
	}

	payload, err := s.transport.Do(ctx, &httpclient.Request{
		Method:    http.MethodPost,
		Path:      pathRegister,
		Body:      reg,
		Anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	var profile *session.Profile
	if err := httpclient.Decode(payload, &profile); err != nil {
		s.logger.WarnContext(ctx, "unexpected register payload", "error", err)
		profile = nil
	}
	s.logger.InfoContext(ctx, "registered", "student_id", reg.StudentID)
	notify.Success(ctx, s.notifier, MsgRegistered)
	return profile, nil
}

// restoreToken puts back the token that was current before a login began.
// The profile needs no rollback: a failed SetUser leaves it unchanged.
func (s *Service) restoreToken(ctx context.Context, token string) {
	if err := s.session.SetToken(ctx, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to restore previous token", "error", err)
	}
}
