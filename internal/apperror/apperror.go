// Package apperror defines the typed errors the HTTP layer turns into
// `{"error": ..., "userMessage": ...}` responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorType int

const (
	UnknownError ErrorType = iota
	ValidationError
	AuthError
	NotFoundError
	ConflictError
	ExternalServiceError
	InternalError
)

const defaultUserMessage = "Something went wrong. Please try again later."

// AppError carries a machine-readable message for logs and clients, and a
// human-readable message meant to be shown as-is.
type AppError struct {
	Type        ErrorType
	Message     string
	UserMessage string
	Err         error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	case ExternalServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the wire shape of every error response.
type ErrorResponse struct {
	Error       string `json:"error"`
	UserMessage string `json:"userMessage"`
}

func (e *AppError) ToResponse() ErrorResponse {
	userMessage := e.UserMessage
	if userMessage == "" {
		userMessage = defaultUserMessage
	}
	return ErrorResponse{Error: e.Message, UserMessage: userMessage}
}

func New(errType ErrorType, message, userMessage string, err error) *AppError {
	return &AppError{Type: errType, Message: message, UserMessage: userMessage, Err: err}
}

func NewValidationError(message, userMessage string) *AppError {
	return New(ValidationError, message, userMessage, nil)
}

func NewAuthError(message, userMessage string, err error) *AppError {
	return New(AuthError, message, userMessage, err)
}

func NewNotFoundError(message, userMessage string) *AppError {
	return New(NotFoundError, message, userMessage, nil)
}

func NewExternalServiceError(message, userMessage string, err error) *AppError {
	return New(ExternalServiceError, message, userMessage, err)
}

func NewInternalError(message string, err error) *AppError {
	return New(InternalError, message, "", err)
}

// From wraps any error that is not already an AppError as an internal error.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("internal_error", err)
}

// Write aborts the gin chain with the JSON representation of err.
func Write(c *gin.Context, err error) {
	appErr := From(err)
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.StatusCode(), appErr.ToResponse())
}
