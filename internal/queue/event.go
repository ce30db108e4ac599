// Package queue defines the domain events exchanged over the message broker
// and the consumer that turns them into an audit log.
package queue

import "time"

// EventType names a domain event. It doubles as the AMQP message type.
type EventType string

const (
	UserRegistered EventType = "user.registered"
	TaskCreated    EventType = "task.created"
	TaskUpdated    EventType = "task.updated"
	TaskDeleted    EventType = "task.deleted"
)

// Event is published after a successful write. It carries identifiers only;
// no secrets or free text beyond the task title.
type Event struct {
	Type       EventType `json:"type"`
	ActorID    uint64    `json:"actor_id"`
	UserID     uint64    `json:"user_id,omitempty"`
	TaskID     string    `json:"task_id,omitempty"`
	OwnerID    uint64    `json:"owner_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
