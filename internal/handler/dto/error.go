package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fixbot/fixbot/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code string, message string) {
	message = err.Error()

	switch {
	// Task errors
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, "TASK_NOT_FOUND", message
	case errors.Is(err, domain.ErrTaskConflict):
		return http.StatusConflict, "TASK_CONFLICT", message

	// User errors
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "USER_NOT_FOUND", message
	case errors.Is(err, domain.ErrUserNotLinked):
		return http.StatusUnprocessableEntity, "USER_NOT_LINKED", message
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized, "INVALID_SESSION", message
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "SESSION_EXPIRED", message

	// Workspace errors
	case errors.Is(err, domain.ErrWorkspaceNotFound):
		return http.StatusNotFound, "WORKSPACE_NOT_FOUND", message

	// Repository and channel errors
	case errors.Is(err, domain.ErrRepositoryNotFound):
		return http.StatusNotFound, "REPOSITORY_NOT_FOUND", message
	case errors.Is(err, domain.ErrRepositoryAlreadyLinked):
		return http.StatusConflict, "REPOSITORY_ALREADY_LINKED", message
	case errors.Is(err, domain.ErrChannelMappingNotFound):
		return http.StatusNotFound, "CHANNEL_MAPPING_NOT_FOUND", message
	case errors.Is(err, domain.ErrChannelAlreadyMapped):
		return http.StatusConflict, "CHANNEL_ALREADY_MAPPED", message

	// Validation errors
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrInvalidPriority):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrInvalidTaskType):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrEmptyTitle):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message
	case errors.Is(err, domain.ErrEmptyContent):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", message

	// Default: internal server error
	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}
