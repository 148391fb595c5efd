package helper

import (
	"net/http"

	"github.com/google/uuid"
)

const (
	MsgInternalServerError = "Internal Server Error"
	MsgBadRequest          = "Bad Request"
	MsgNotFound            = "Not Found"
	MsgUnauthorized        = "Unauthorized"
	MsgForbidden           = "Forbidden"
	MsgConflict            = "Conflict"
	MsgMethodNotAllowed    = "Method Not Allowed"
	MsgTooManyRequests     = "Too Many Requests"
	MsgServiceUnavailable  = "Service Unavailable"
)

type AppError struct {
	Code    int
	Message string

	// ChatID points the caller at an existing chat, set on duplicate private chat conflicts.
	ChatID *uuid.UUID
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func newWithDefault(code int, message, fallback string) *AppError {
	if message == "" {
		message = fallback
	}
	return NewAppError(code, message)
}

func NewBadRequestError(message string) *AppError {
	return newWithDefault(http.StatusBadRequest, message, MsgBadRequest)
}

func NewInternalServerError(message string) *AppError {
	return newWithDefault(http.StatusInternalServerError, message, MsgInternalServerError)
}

func NewNotFoundError(message string) *AppError {
	return newWithDefault(http.StatusNotFound, message, MsgNotFound)
}

func NewUnauthorizedError(message string) *AppError {
	return newWithDefault(http.StatusUnauthorized, message, MsgUnauthorized)
}

func NewForbiddenError(message string) *AppError {
	return newWithDefault(http.StatusForbidden, message, MsgForbidden)
}

func NewConflictError(message string) *AppError {
	return newWithDefault(http.StatusConflict, message, MsgConflict)
}

func NewChatConflictError(message string, chatID uuid.UUID) *AppError {
	appErr := NewConflictError(message)
	appErr.ChatID = &chatID
	return appErr
}

func NewMethodNotAllowedError(message string) *AppError {
	return newWithDefault(http.StatusMethodNotAllowed, message, MsgMethodNotAllowed)
}

func NewTooManyRequestsError(message string) *AppError {
	return newWithDefault(http.StatusTooManyRequests, message, MsgTooManyRequests)
}

func NewServiceUnavailableError(message string) *AppError {
	return newWithDefault(http.StatusServiceUnavailable, message, MsgServiceUnavailable)
}

// AsAppError returns err as an AppError, mapping anything else to a 500.
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalServerError("")
}
