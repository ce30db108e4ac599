package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
)

// The in-memory repositories mirror the MySQL ones method for method. They
// back STORAGE=memory and the handler tests. A single mutex per store gives
// the same uniqueness guarantees the MySQL unique keys provide.

// MemoryUserRepo stores users in a map keyed by id.
type MemoryUserRepo struct {
	mu      sync.RWMutex
	nextID  uint64
	byID    map[uint64]model.User
	byEmail map[string]uint64
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{byID: map[uint64]model.User{}, byEmail: map[string]uint64{}}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailExists
	}
	r.nextID++
	now := time.Now().UTC()
	u.ID, u.CreatedAt, u.UpdatedAt = r.nextID, now, now
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id uint64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepo) UpdateProfile(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[u.ID]
	if !ok {
		return ErrUserNotFound
	}
	cur.GivenName, cur.FamilyName, cur.PasswordHash = u.GivenName, u.FamilyName, u.PasswordHash
	cur.UpdatedAt = time.Now().UTC()
	r.byID[u.ID] = cur
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *MemoryUserRepo) exists(id uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// MemoryTaskRepo stores tasks in a map keyed by identifier. When users is
// set, owners are checked the way the MySQL foreign key checks them.
type MemoryTaskRepo struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	users *MemoryUserRepo
}

func NewMemoryTaskRepo(users *MemoryUserRepo) *MemoryTaskRepo {
	return &MemoryTaskRepo{tasks: map[string]model.Task{}, users: users}
}

func (r *MemoryTaskRepo) Create(_ context.Context, t *model.Task) error {
	if r.users != nil && !r.users.exists(t.OwnerID) {
		return ErrUnknownOwner
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return ErrDuplicateTaskID
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	r.tasks[t.ID] = *t
	return nil
}

func (r *MemoryTaskRepo) GetByID(_ context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

func (r *MemoryTaskRepo) Update(_ context.Context, t *model.Task) error {
	if r.users != nil && !r.users.exists(t.OwnerID) {
		return ErrUnknownOwner
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tasks[t.ID]
	if !ok {
		return ErrTaskNotFound
	}
	cur.OwnerID, cur.Title, cur.Description, cur.Status = t.OwnerID, t.Title, t.Description, t.Status
	cur.UpdatedAt = time.Now().UTC()
	r.tasks[t.ID] = cur
	t.CreatedAt, t.UpdatedAt = cur.CreatedAt, cur.UpdatedAt
	return nil
}

func (r *MemoryTaskRepo) List(_ context.Context, scope model.TaskScope, order model.TaskOrder) ([]*model.Task, error) {
	r.mu.RLock()
	out := []*model.Task{}
	for _, t := range r.tasks {
		if scope.Matches(t.OwnerID) {
			t := t
			out = append(out, &t)
		}
	}
	r.mu.RUnlock()

	col, desc := order.Column(), order.Desc()
	if _, ok := sortColumns[col]; !ok {
		col, desc = "task_id", true
	}
	key := func(t *model.Task) string {
		switch col {
		case "title":
			return t.Title
		case "status":
			return string(t.Status)
		}
		return t.ID
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if a == b {
			return out[i].ID > out[j].ID
		}
		if desc {
			return a > b
		}
		return a < b
	})
	return out, nil
}

func (r *MemoryTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

// MemoryTokenRepo is the in-memory refresh-token denylist.
type MemoryTokenRepo struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryTokenRepo() *MemoryTokenRepo {
	return &MemoryTokenRepo{revoked: map[string]time.Time{}}
}

func (r *MemoryTokenRepo) Revoke(_ context.Context, tokenHash string, _ uint64, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.revoked[tokenHash]; !ok {
		r.revoked[tokenHash] = exp
	}
	return nil
}

func (r *MemoryTokenRepo) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenHash]
	return ok, nil
}

func (r *MemoryTokenRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for h, exp := range r.revoked {
		if exp.Before(now) {
			delete(r.revoked, h)
			n++
		}
	}
	return n, nil
}
