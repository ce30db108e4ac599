package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
)

var (
	alice = Actor{UserID: 1}
	bob   = Actor{UserID: 2}
	root  = Actor{UserID: 9, Elevated: true}
)

func TestDecide_Table(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name   string
		actor  Actor
		op     Operation
		target Target
		want   Decision
	}{
		{"anonymous list", Anonymous, OpList, Tasks(), Decision{Reason: ReasonUnauthenticated}},
		{"anonymous profile", Anonymous, OpRead, Profile(0), Decision{Reason: ReasonUnauthenticated}},

		{"owner list scoped", alice, OpList, Tasks(), Decision{Allowed: true, Scope: model.TaskScope{OwnerID: 1}}},
		{"owner read own", alice, OpRead, Task(1), Decision{Allowed: true}},
		{"read other is invisible", bob, OpRead, Task(1), Decision{Reason: ReasonNotVisible}},
		{"create forces owner", bob, OpCreate, Tasks().WithOwner(1), Decision{Allowed: true, Owner: 2}},
		{"update own", alice, OpUpdate, Task(1), Decision{Allowed: true, Owner: 1}},
		{"update own cannot reassign", alice, OpUpdate, Task(1).WithOwner(2), Decision{Allowed: true, Owner: 1}},
		{"update other forbidden", bob, OpUpdate, Task(1), Decision{Reason: ReasonForbidden}},
		{"delete own", alice, OpDelete, Task(1), Decision{Allowed: true}},
		{"delete other forbidden", bob, OpDelete, Task(1), Decision{Reason: ReasonForbidden}},

		{"elevated list all", root, OpList, Tasks(), Decision{Allowed: true, Scope: model.TaskScope{All: true}}},
		{"elevated read any", root, OpRead, Task(1), Decision{Allowed: true}},
		{"elevated create defaults to self", root, OpCreate, Tasks(), Decision{Allowed: true, Owner: 9}},
		{"elevated create for another", root, OpCreate, Tasks().WithOwner(2), Decision{Allowed: true, Owner: 2}},
		{"elevated update keeps owner", root, OpUpdate, Task(1), Decision{Allowed: true, Owner: 1}},
		{"elevated update reassigns", root, OpUpdate, Task(1).WithOwner(2), Decision{Allowed: true, Owner: 2}},
		{"elevated delete any", root, OpDelete, Task(1), Decision{Allowed: true}},

		{"read own profile", alice, OpRead, Profile(1), Decision{Allowed: true}},
		{"update own profile", alice, OpUpdate, Profile(1), Decision{Allowed: true}},
		{"update other profile", alice, OpUpdate, Profile(2), Decision{Reason: ReasonForbidden}},
		{"elevated other profile", root, OpRead, Profile(1), Decision{Reason: ReasonForbidden}},
		{"delete profile", alice, OpDelete, Profile(1), Decision{Reason: ReasonForbidden}},
		{"unknown kind", alice, OpRead, Target{Kind: "invoice"}, Decision{Reason: ReasonForbidden}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, e.Decide(tc.actor, tc.op, tc.target))
		})
	}
}

// Every pair of distinct non-elevated actors: the non-owner can neither see
// nor change the owner's task, and each list scope matches only its own.
func TestDecide_CrossOwnerProperty(t *testing.T) {
	e := NewEngine()
	for a := uint64(1); a <= 5; a++ {
		for b := uint64(1); b <= 5; b++ {
			if a == b {
				continue
			}
			owner, other := Actor{UserID: a}, Actor{UserID: b}

			assert.Equal(t, ReasonForbidden, e.Decide(other, OpUpdate, Task(owner.UserID)).Reason)
			assert.False(t, e.Decide(other, OpRead, Task(owner.UserID)).Allowed)

			scope := e.Decide(other, OpList, Tasks()).Scope
			assert.False(t, scope.Matches(owner.UserID))
			assert.True(t, scope.Matches(other.UserID))
		}
	}
}

func TestActorFor(t *testing.T) {
	assert.Equal(t, Anonymous, ActorFor(nil))
	assert.Equal(t, Anonymous, ActorFor(&model.User{ID: 3, IsActive: false}))
	assert.Equal(t, Actor{UserID: 3, Elevated: true}, ActorFor(&model.User{ID: 3, IsActive: true, IsElevated: true}))
	assert.False(t, Anonymous.Authenticated())
}
