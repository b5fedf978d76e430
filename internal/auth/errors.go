package auth

import "errors"

var (
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrConflict           = errors.New("auth: resource conflict")
	ErrNotFound           = errors.New("auth: not found")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrAccountBlocked     = errors.New("auth: account blocked")
	ErrPermissionDenied   = errors.New("auth: permission denied")
)
