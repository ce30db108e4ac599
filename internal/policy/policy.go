// Package policy is the single place that decides who may do what to which
// record. Decide is a pure function: it performs no I/O and never fails;
// callers turn a denial into a response.
package policy

import "github.com/Prajwol-Chhetri/Task-REST-API/internal/model"

// Actor is the authenticated caller. The zero value is anonymous.
type Actor struct {
	UserID   uint64
	Elevated bool
}

// Anonymous is the actor for requests without valid credentials.
var Anonymous = Actor{}

// ActorFor builds the actor for an active user.
func ActorFor(u *model.User) Actor {
	if u == nil || !u.IsActive {
		return Anonymous
	}
	return Actor{UserID: u.ID, Elevated: u.IsElevated}
}

func (a Actor) Authenticated() bool { return a.UserID != 0 }

type Operation string

const (
	OpRead   Operation = "read"
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type Kind string

const (
	KindTask Kind = "task"
	KindUser Kind = "user"
)

// Target describes the record an operation addresses.
//
// For KindTask, OwnerID is the current owner of an existing task (zero for
// list and create) and RequestedOwner is the owner named in the request body,
// if any. For KindUser, UserID is the profile being addressed.
type Target struct {
	Kind           Kind
	OwnerID        uint64
	RequestedOwner uint64
	UserID         uint64
}

// Task returns a target for an existing task.
func Task(ownerID uint64) Target { return Target{Kind: KindTask, OwnerID: ownerID} }

// Tasks returns a target for the task collection.
func Tasks() Target { return Target{Kind: KindTask} }

// Profile returns a target for a user profile.
func Profile(userID uint64) Target { return Target{Kind: KindUser, UserID: userID} }

// WithOwner sets the owner requested by the caller.
func (t Target) WithOwner(owner uint64) Target {
	t.RequestedOwner = owner
	return t
}

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonNotVisible      Reason = "not_visible"
)

// Decision is the outcome of Decide.
//
// Scope is set for allowed list decisions. Owner is the effective owner for
// allowed task create and update decisions.
type Decision struct {
	Allowed bool
	Reason  Reason
	Scope   model.TaskScope
	Owner   uint64
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r Reason) Decision { return Decision{Reason: r} }

func allowOwner(o uint64) Decision { return Decision{Allowed: true, Owner: o} }

// Engine evaluates the access rules. It holds no state; the zero value is
// ready to use.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Decide applies the access rules to actor performing op on target.
func (e *Engine) Decide(actor Actor, op Operation, target Target) Decision {
	if !actor.Authenticated() {
		return deny(ReasonUnauthenticated)
	}
	switch target.Kind {
	case KindTask:
		return decideTask(actor, op, target)
	case KindUser:
		return decideUser(actor, op, target)
	}
	return deny(ReasonForbidden)
}

func decideTask(actor Actor, op Operation, t Target) Decision {
	if actor.Elevated {
		switch op {
		case OpList:
			return Decision{Allowed: true, Scope: model.TaskScope{All: true}}
		case OpRead, OpDelete:
			return allow()
		case OpCreate:
			return allowOwner(firstNonZero(t.RequestedOwner, actor.UserID))
		case OpUpdate:
			return allowOwner(firstNonZero(t.RequestedOwner, t.OwnerID))
		}
		return deny(ReasonForbidden)
	}

	owns := t.OwnerID == actor.UserID
	switch op {
	case OpList:
		return Decision{Allowed: true, Scope: model.TaskScope{OwnerID: actor.UserID}}
	case OpCreate:
		return allowOwner(actor.UserID)
	case OpRead:
		if owns {
			return allow()
		}
		return deny(ReasonNotVisible)
	case OpUpdate:
		if owns {
			return allowOwner(actor.UserID)
		}
		return deny(ReasonForbidden)
	case OpDelete:
		if owns {
			return allow()
		}
		return deny(ReasonForbidden)
	}
	return deny(ReasonForbidden)
}

func decideUser(actor Actor, op Operation, t Target) Decision {
	if op != OpRead && op != OpUpdate {
		return deny(ReasonForbidden)
	}
	if t.UserID != actor.UserID {
		return deny(ReasonForbidden)
	}
	return allow()
}

func firstNonZero(a, b uint64) uint64 {
	if a != 0 {
		return a
	}
	return b
}
