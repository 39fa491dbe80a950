package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrPremiumRequired gates features reserved for the premium tier.
	ErrPremiumRequired = errors.New("premium tier required")

	// ErrInsufficientData is returned when a reporting window holds no mood
	// entries and no chat sessions, so no reflection can be generated.
	ErrInsufficientData = errors.New("insufficient data")
)
