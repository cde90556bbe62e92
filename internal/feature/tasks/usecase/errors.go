// Package usecase はtasksフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrTaskNotFound is returned when no task exists with the given ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrForbidden is returned when a task exists but belongs to another user.
	ErrForbidden = errors.New("task belongs to another user")
)
