package auth

import "errors"

var (
	ErrTokenInvalid       = errors.New("auth: token invalid")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenRevoked       = errors.New("auth: token revoked")
	ErrPermissionDenied   = errors.New("auth: permission denied")
	ErrRateLimited        = errors.New("auth: rate limited")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrMembershipInactive = errors.New("auth: membership inactive")
	ErrNotFound           = errors.New("auth: not found")
	ErrConflict           = errors.New("auth: already exists")
	ErrInvalidInput       = errors.New("auth: invalid input")
)
