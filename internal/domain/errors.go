package domain

import "errors"

// Domain-specific errors for business logic validation.
var (
	// Task errors
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskConflict    = errors.New("task was modified concurrently")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidTaskType = errors.New("invalid task type")

	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrUserNotLinked = errors.New("user has not linked their Slack account")

	// Workspace errors
	ErrWorkspaceNotFound = errors.New("workspace not found")

	// Repository errors
	ErrRepositoryNotFound      = errors.New("repository not found")
	ErrRepositoryAlreadyLinked = errors.New("repository already linked")

	// Channel mapping errors
	ErrChannelMappingNotFound = errors.New("channel mapping not found")
	ErrChannelAlreadyMapped   = errors.New("channel already mapped")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Message errors
	ErrMessageExists = errors.New("message already recorded for this slack timestamp")

	// Validation errors
	ErrEmptyTitle   = errors.New("title is required")
	ErrEmptyContent = errors.New("content is required")
)
