package auth

import "errors"

var (
	// ErrInvalidAPIKey is returned when the presented API key is unknown or revoked.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrMissingUserID is returned when the identity provider response lacks a user id.
	ErrMissingUserID = errors.New("user identification required")
)
