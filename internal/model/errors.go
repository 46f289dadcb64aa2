package model

import "errors"

var (
	// Credential errors. Unknown identifier and wrong password are deliberately
	// the same error so responses cannot be used as an account-existence oracle.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	// Refresh token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrReusedTokenDetected = errors.New("reused token detected")
	ErrTokenNotFound       = errors.New("token not found")
	ErrFamilyNotFound      = errors.New("token family not found")

	// User errors.
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Collaborator failure. Never retried by the core; surfaced as-is.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Generic validation failure.
	ErrInvalidInput = errors.New("invalid input")
)
