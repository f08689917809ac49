package domain

import "errors"

var (
	// ErrInvalidInput marks client input that failed validation.
	ErrInvalidInput = errors.New("invalid input")

	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
