package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyWordID is returned for a word without an identifier.
	ErrEmptyWordID = errors.New("word ID cannot be empty")

	// ErrEmptyWordText is returned for a word without text.
	ErrEmptyWordText = errors.New("word text cannot be empty")

	// ErrMissingLanguage is returned when a word lacks its source or target language.
	ErrMissingLanguage = errors.New("word languages cannot be empty")

	// ErrInvalidWordStatus is returned when a word status is not valid.
	ErrInvalidWordStatus = errors.New("invalid word status")
)
