package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: resource conflict")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")

	// ErrInvalidToken is returned for every token validation failure; callers
	// never learn whether the token was malformed, expired or badly signed.
	ErrInvalidToken = errors.New("auth: invalid token")

	// Registration conflicts carry their own identity so the HTTP layer can
	// surface the exact user-facing message.
	ErrSlugTaken  = errors.New("auth: slug already exists")
	ErrEmailTaken = errors.New("auth: email already registered")
)
