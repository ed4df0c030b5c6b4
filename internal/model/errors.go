package model

import (
	"errors"
	"sort"
	"strings"
)

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrNotRegistered   = errors.New("no registration submitted for session")

	// Game errors
	ErrGameInProgress    = errors.New("game is in progress")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrEngineStopped     = errors.New("game engine is not running")

	// Leaderboard errors
	ErrNotAWin = errors.New("only winning rounds are recorded")

	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")
)

// StartRejectedMessage is shown when a game cannot start because the registration is incomplete
const StartRejectedMessage = "Please fill in all form fields and correct errors before starting the game."

// FieldErrors maps a registration field name to a human-readable message
type FieldErrors map[string]string

// Field names used as FieldErrors keys
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldMobile     = "mobile"
	FieldDifficulty = "difficulty"
)

// ValidationError is returned when player input is rejected
type ValidationError struct {
	Message string
	Fields  FieldErrors
}

// NewValidationError creates a ValidationError for the given field errors
func NewValidationError(message string, fields FieldErrors) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
