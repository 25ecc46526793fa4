package model

import (
	"slices"
	"time"
)

// Todo is a task scheduled on a calendar date and assigned to users.
// Date is a YYYY-MM-DD string; range filters compare it lexically.
type Todo struct {
	ID          string    `json:"id"   validate:"required"`
	Date        string    `json:"date" validate:"required"`
	Task        string    `json:"task"`
	AssignedTo  []string  `json:"assignedTo"`
	CompletedBy []string  `json:"completedBy"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
}

// IsAssignedTo reports whether uid is one of the assignees.
func (t *Todo) IsAssignedTo(uid string) bool {
	return slices.Contains(t.AssignedTo, uid)
}

// IsCompletedBy reports whether uid has marked the todo done.
func (t *Todo) IsCompletedBy(uid string) bool {
	return slices.Contains(t.CompletedBy, uid)
}

// TodoInput is the body used to create or edit a todo.
type TodoInput struct {
	Date       string   `json:"date"`
	Task       string   `json:"task"`
	AssignedTo []string `json:"assignedTo"`
	UserID     string   `json:"userId,omitempty"`
}
