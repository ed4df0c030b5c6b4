package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/greenlight/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeNotRegistered     = "NOT_REGISTERED"
	CodeGameInProgress    = "GAME_IN_PROGRESS"
	CodeUnknownDifficulty = "UNKNOWN_DIFFICULTY"
	CodeEngineStopped     = "ENGINE_STOPPED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error is written with
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return &httpError{http.StatusUnprocessableEntity, APIError{CodeValidationFailed, ve.Message, ve.Fields}}
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{Code: CodeSessionNotFound, Message: "Session not found"}}
	case errors.Is(err, model.ErrNotRegistered):
		return &httpError{http.StatusConflict, APIError{Code: CodeNotRegistered, Message: model.StartRejectedMessage}}
	case errors.Is(err, model.ErrGameInProgress):
		return &httpError{http.StatusConflict, APIError{Code: CodeGameInProgress, Message: "Game is in progress"}}
	case errors.Is(err, model.ErrUnknownDifficulty):
		return &httpError{http.StatusUnprocessableEntity, APIError{Code: CodeUnknownDifficulty, Message: "Unknown difficulty"}}
	case errors.Is(err, model.ErrEngineStopped):
		return &httpError{http.StatusServiceUnavailable, APIError{Code: CodeEngineStopped, Message: "Game engine is not running"}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{Code: CodeInvalidRequest, Message: message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{Code: CodeInternalError, Message: "Internal server error"}}
}
