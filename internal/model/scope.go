package model

import (
	"fmt"
	"strings"
)

// TaskScope is the visibility predicate computed by the access policy and
// applied by task repositories to every listing. A zero TaskScope matches
// nothing.
type TaskScope struct {
	All     bool   // no owner filter
	OwnerID uint64 // only tasks owned by this user when All is false
}

// Matches reports whether a task owned by ownerID is inside the scope.
func (s TaskScope) Matches(ownerID uint64) bool {
	if s.All {
		return true
	}
	return s.OwnerID != 0 && s.OwnerID == ownerID
}

// TaskOrder names the sort applied to a task listing. A leading "-" means
// descending, mirroring the ?ordering= query parameter.
type TaskOrder string

// DefaultTaskOrder sorts by identifier descending.
const DefaultTaskOrder TaskOrder = "-task_id"

var orderColumns = map[string]bool{
	"task_id": true,
	"title":   true,
	"status":  true,
}

// ParseTaskOrder validates an ordering expression. The empty string yields
// DefaultTaskOrder.
func ParseTaskOrder(s string) (TaskOrder, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTaskOrder, nil
	}
	if !orderColumns[strings.TrimPrefix(s, "-")] {
		return "", &ValidationError{Field: "ordering", Message: fmt.Sprintf("cannot order by %q", s)}
	}
	return TaskOrder(s), nil
}

// Column returns the sort column without direction.
func (o TaskOrder) Column() string {
	if o == "" {
		o = DefaultTaskOrder
	}
	return strings.TrimPrefix(string(o), "-")
}

// Desc reports whether the order is descending.
func (o TaskOrder) Desc() bool {
	if o == "" {
		o = DefaultTaskOrder
	}
	return strings.HasPrefix(string(o), "-")
}
