// Package entity defines the domain entities for the tasks feature.
package entity

import (
	"time"

	authentity "taskly_backend/internal/feature/auth/domain/entity"
)

// Priority is the task priority level.
type Priority = string

// Fixed priority levels, in display order.
const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists all levels in their fixed display order.
// Aggregations report one row per level even when its count is zero.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ValidPriority reports whether p is one of the fixed levels.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task represents a single to-do item owned by exactly one user.
// It is visible and mutable only by its owner.
type Task struct {
	// ID is the unique identifier for the task.
	ID uint `gorm:"primaryKey" json:"id"`

	// UserID references the owning user. Deleting the user cascades.
	UserID uint `gorm:"index;not null" json:"user_id"`

	// User is the owner, eager-loaded for list responses.
	User *authentity.User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`

	// Title is the short task description shown in lists.
	Title string `gorm:"size:255;not null" json:"title"`

	// Description is optional free text.
	Description string `json:"description"`

	// DueDate is the optional date the task is due. nil means no deadline.
	DueDate *time.Time `json:"due_date"`

	// Completed marks the task as done.
	Completed bool `gorm:"default:false" json:"completed"`

	// Priority is one of Low, Medium, High.
	Priority Priority `gorm:"size:10;not null" json:"priority"`

	// CreatedAt is the timestamp when the task was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the task was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}
