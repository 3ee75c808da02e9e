package jwttoken

import (
	authmw "coursehub/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.JWTClaims {
	var expiresAt = claims.ExpiresAt
	out := &authmw.JWTClaims{
		UserID:   claims.UserID,
		UserType: claims.UserType,
		JTI:      claims.ID, // revocation key
	}
	if expiresAt != nil {
		out.ExpiresAt = expiresAt.Time
	}
	return out
}

// JWTServiceAdapter exposes JWTService to the auth middleware.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
