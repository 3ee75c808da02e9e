package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"coursehub/internal/auth/models"
	"coursehub/internal/stub/users"
	dErrors "coursehub/pkg/domain-errors"
	"coursehub/pkg/platform/httputil"
	authmw "coursehub/pkg/platform/middleware/auth"
	"coursehub/pkg/platform/middleware/device"
	"coursehub/pkg/platform/middleware/requesttime"
	"coursehub/pkg/requestcontext"
)

const tokenType = "bearer"

// handleLogin accepts JSON or the OAuth2 password form.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	creds, err := decodeCredentials(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	acct, err := h.accounts.Authenticate(ctx, creds.Username, creds.Password)
	h.accounts.RecordLogin(users.LoginRecord{
		Username:  creds.Username,
		UserID:    acct.ID,
		Success:   err == nil,
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    device.FromContext(ctx),
		Timestamp: requestcontext.Now(ctx),
	})
	if err != nil {
		h.metrics.IncrementLoginAttempts("invalid_credentials")
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", requestID,
			"username", creds.Username,
			"device", device.FromContext(ctx).Name,
		)
		httputil.WriteError(w, err)
		return
	}

	issued, err := h.tokens.GenerateAccessToken(acct.ID, acct.UserType, requestcontext.Now(ctx), h.tokenTTL)
	if err != nil {
		h.metrics.IncrementLoginAttempts("error")
		h.logger.ErrorContext(ctx, "failed to issue access token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}

	h.metrics.IncrementLoginAttempts("success")
	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestID,
		"user_id", acct.ID,
		"device", device.FromContext(ctx).Name,
		"clock_skew_ms", requesttime.Skew(ctx).Milliseconds(),
	)
	httputil.WriteData(w, models.LoginResult{
		AccessToken: issued.Token,
		TokenType:   tokenType,
		ExpiresIn:   int(h.tokenTTL.Seconds()),
		UserType:    acct.UserType,
		User:        acct.Profile(),
	})
}

func decodeCredentials(r *http.Request) (models.Credentials, error) {
	var creds models.Credentials
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return creds, dErrors.New(dErrors.CodeValidation, "invalid form body")
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return creds, dErrors.New(dErrors.CodeValidation, "invalid request body")
		}
	}
	creds.Normalize()
	if err := creds.Validate(); err != nil {
		return creds, err
	}
	return creds, nil
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	acct, err := h.accounts.Register(ctx, users.NewStudent{
		StudentID:    reg.StudentID,
		Name:         reg.Name,
		Password:     reg.Password,
		IDNumber:     reg.IDNumber,
		Email:        reg.Email,
		Phone:        reg.Phone,
		DepartmentID: reg.DepartmentID,
		Major:        reg.Major,
		Grade:        reg.Grade,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"request_id", requestID,
			"student_id", reg.StudentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "student registered",
		"request_id", requestID,
		"student_id", acct.ID,
	)
	httputil.WriteData(w, acct.Profile())
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, err := h.accounts.Lookup(ctx, authmw.GetUserID(ctx))
	if err != nil {
		// the token outlived its account
		httputil.WriteEnvelopeError(w, http.StatusUnauthorized, "User not found")
		return
	}
	httputil.WriteData(w, acct.Profile())
}

// handleRefresh issues a new token and revokes the presented one.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	claims := authmw.GetClaims(ctx)

	if _, err := h.accounts.Lookup(ctx, claims.UserID); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusUnauthorized, "User not found")
		return
	}

	issued, err := h.tokens.GenerateAccessToken(claims.UserID, claims.UserType, requestcontext.Now(ctx), h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue access token",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token"))
		return
	}
	if err := h.revoke(r, claims); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteData(w, models.RefreshResult{
		AccessToken: issued.Token,
		TokenType:   tokenType,
		ExpiresIn:   int(h.tokenTTL.Seconds()),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.revoke(r, authmw.GetClaims(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "logged out",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", authmw.GetUserID(ctx),
	)
	httputil.WriteData(w, nil)
}

// revoke keeps the jti listed until the token would have expired.
func (h *Handler) revoke(r *http.Request, claims *authmw.JWTClaims) error {
	ctx := r.Context()
	ttl := h.tokenTTL
	if !claims.ExpiresAt.IsZero() {
		ttl = claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	}
	if ttl <= 0 {
		return nil
	}
	// round up so the entry never expires before the token
	ttl = ttl.Truncate(time.Second) + time.Second

	if err := h.trl.RevokeToken(ctx, claims.JTI, ttl); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	h.metrics.IncrementRevocations()
	return nil
}
