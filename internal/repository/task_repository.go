package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/model"
)

const taskColumns = "task_id, owner_id, title, description, status, created_at, updated_at"

// sortColumns maps ordering names onto SQL identifiers. Anything not listed
// falls back to the default order so no caller input reaches the query text.
var sortColumns = map[string]string{
	"task_id": "task_id",
	"title":   "title",
	"status":  "status",
}

// TaskRepo encapsulates all database queries related to tasks. Ownership
// is never decided here: List applies the scope it is handed and the other
// methods operate on any task.
type TaskRepo struct {
	db *sql.DB
}

// NewTaskRepo constructs a TaskRepo with the provided DB handle.
func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// Create inserts a new task. The follow-up SELECT populates the
// server-assigned timestamps.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const qInsert = "INSERT INTO tasks (task_id, owner_id, title, description, status) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, qInsert, t.ID, t.OwnerID, t.Title, t.Description, string(t.Status)); err != nil {
		switch {
		case isDuplicateKey(err):
			return ErrDuplicateTaskID
		case isMissingReference(err):
			return ErrUnknownOwner
		}
		return err
	}
	const qSelect = "SELECT created_at, updated_at FROM tasks WHERE task_id = ?"
	return r.db.QueryRowContext(ctx, qSelect, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID fetches a task regardless of owner. It returns ErrTaskNotFound
// when no row matches.
func (r *TaskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	const q = "SELECT " + taskColumns + " FROM tasks WHERE task_id = ?"
	t, err := scanTask(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// Update replaces the mutable columns of the task identified by t.ID and
// refreshes t's timestamps from the stored row.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	const q = `UPDATE tasks
	           SET owner_id = ?, title = ?, description = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE task_id = ?`
	if _, err := r.db.ExecContext(ctx, q, t.OwnerID, t.Title, t.Description, string(t.Status), t.ID); err != nil {
		if isMissingReference(err) {
			return ErrUnknownOwner
		}
		return err
	}
	// Re-reading the timestamps also confirms the row exists when MySQL
	// reports zero affected rows for an unchanged task.
	const qSelect = "SELECT created_at, updated_at FROM tasks WHERE task_id = ?"
	if err := r.db.QueryRowContext(ctx, qSelect, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

// List returns the tasks inside scope, sorted by order. The owner filter is
// part of the WHERE clause so it applies before ordering.
func (r *TaskRepo) List(ctx context.Context, scope model.TaskScope, order model.TaskOrder) ([]*model.Task, error) {
	q := "SELECT " + taskColumns + " FROM tasks"
	var args []any
	switch {
	case scope.All:
	case scope.OwnerID != 0:
		q += " WHERE owner_id = ?"
		args = append(args, scope.OwnerID)
	default:
		return []*model.Task{}, nil
	}
	q += orderBy(order)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a task by identifier.
func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE task_id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func orderBy(order model.TaskOrder) string {
	col, ok := sortColumns[order.Column()]
	if !ok {
		return " ORDER BY task_id DESC"
	}
	clause := " ORDER BY " + col
	if order.Desc() {
		clause += " DESC"
	} else {
		clause += " ASC"
	}
	if col != "task_id" {
		clause += ", task_id DESC"
	}
	return clause
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(s rowScanner) (*model.Task, error) {
	var (
		t      model.Task
		status string
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = model.TaskStatus(status)
	return &t, nil
}
