package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxTaskIDLength bounds the caller-supplied task identifier (tasks.task_id).
const MaxTaskIDLength = 64

// MaxTitleLength bounds tasks.title.
const MaxTitleLength = 255

// TaskStatus is the closed set of states a task can be in.
type TaskStatus string

const (
	StatusActive   TaskStatus = "Active"
	StatusOnHold   TaskStatus = "OnHold"
	StatusComplete TaskStatus = "Complete"
)

// DefaultTaskStatus is assigned when a task is created or fully replaced
// without a status.
const DefaultTaskStatus = StatusActive

// ParseTaskStatus accepts the canonical status names case-insensitively as
// well as the single letter codes A, H and C.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "a":
		return StatusActive, nil
	case "onhold", "on_hold", "h":
		return StatusOnHold, nil
	case "complete", "completed", "c":
		return StatusComplete, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

// Task represents a unit of work as stored in the `tasks` table. The
// identifier is chosen by the caller, not generated by the database.
//
// Fields:
//
//	ID          – caller-supplied unique identifier.
//	Title       – short summary, required.
//	Description – free text, may be empty.
//	Status      – one of the TaskStatus values.
//	OwnerID     – users.id of the owning user.
//	CreatedAt   – set by the store on insert.
//	UpdatedAt   – set by the store on every write.
type Task struct {
	ID          string     // tasks.task_id
	Title       string     // tasks.title
	Description string     // tasks.description
	Status      TaskStatus // tasks.status
	OwnerID     uint64     // tasks.owner_id
	CreatedAt   time.Time  // tasks.created_at
	UpdatedAt   time.Time  // tasks.updated_at
}

// TaskPatch carries the mutable fields of an update request. Nil fields
// were not supplied by the caller.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// ApplyPartial copies only the supplied fields onto t.
func (p TaskPatch) ApplyPartial(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}

// ApplyFull replaces every mutable field of t. Fields missing from the
// patch are reset to their zero value (DefaultTaskStatus for status).
func (p TaskPatch) ApplyFull(t *Task) {
	t.Title, t.Description, t.Status = "", "", DefaultTaskStatus
	p.ApplyPartial(t)
}

// ValidateTask checks the invariants every stored task must satisfy.
func ValidateTask(t *Task) error {
	id := strings.TrimSpace(t.ID)
	switch {
	case id == "":
		return &ValidationError{Field: "task_id", Message: "task_id is required"}
	case id != t.ID:
		return &ValidationError{Field: "task_id", Message: "task_id must not have surrounding whitespace"}
	case len(id) > MaxTaskIDLength:
		return &ValidationError{Field: "task_id", Message: fmt.Sprintf("task_id must be at most %d characters", MaxTaskIDLength)}
	}
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > MaxTitleLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("title must be at most %d characters", MaxTitleLength)}
	}
	if _, err := ParseTaskStatus(string(t.Status)); err != nil {
		return err
	}
	if t.OwnerID == 0 {
		return &ValidationError{Field: "owner", Message: "owner is required"}
	}
	return nil
}
