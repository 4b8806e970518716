// Package common defines shared helpers and sentinel errors used across the
// gopanel client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrInvalidToken is returned when an access token cannot be decoded.
	ErrInvalidToken = errors.New("invalid token")

	// ErrIncorrectAssignment is returned for console arguments not in name=value form.
	ErrIncorrectAssignment = errors.New("incorrect assignment")
)
