package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

var _ repository.TodoRepository = (*TodoDB)(nil)

// TodoDB stores todos; assignee and completion sets are JSON arrays.
type TodoDB struct {
	conn *sql.DB
}

func scanTodo(row rowScanner) (*model.Todo, error) {
	var t model.Todo
	var assigned, completed string
	if err := row.Scan(&t.ID, &t.Date, &t.Task, &assigned, &completed, &t.CreatedBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(assigned), &t.AssignedTo); err != nil {
		return nil, fmt.Errorf("decoding assigned_to: %w", err)
	}
	if err := json.Unmarshal([]byte(completed), &t.CompletedBy); err != nil {
		return nil, fmt.Errorf("decoding completed_by: %w", err)
	}
	return &t, nil
}

func encodeSet(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func (d *TodoDB) Create(ctx context.Context, todo *model.Todo) error {
	todo.ID = xid.New().String()
	todo.CreatedAt = time.Now().UTC()
	if todo.CompletedBy == nil {
		todo.CompletedBy = []string{}
	}

	_, err := d.conn.ExecContext(ctx,
		`INSERT INTO todos (id, date, task, assigned_to, completed_by, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		todo.ID, todo.Date, todo.Task, encodeSet(todo.AssignedTo), encodeSet(todo.CompletedBy),
		todo.CreatedBy, todo.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting todo: %w", err)
	}
	return nil
}

func (d *TodoDB) GetByID(ctx context.Context, id string) (*model.Todo, error) {
	t, err := scanTodo(d.conn.QueryRowContext(ctx,
		`SELECT id, date, task, assigned_to, completed_by, created_by, created_at
		 FROM todos WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("todo", id)
		}
		return nil, fmt.Errorf("sqlite: getting todo %s: %w", id, err)
	}
	return t, nil
}

// ListRange returns todos whose date falls in [startDate, endDate]. An empty
// bound is open.
func (d *TodoDB) ListRange(ctx context.Context, startDate, endDate string) ([]model.Todo, error) {
	query := `SELECT id, date, task, assigned_to, completed_by, created_by, created_at FROM todos WHERE 1=1`
	var args []any
	if startDate != "" {
		query += ` AND date >= ?`
		args = append(args, startDate)
	}
	if endDate != "" {
		query += ` AND date <= ?`
		args = append(args, endDate)
	}
	query += ` ORDER BY date, created_at`

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning todo: %w", err)
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

func (d *TodoDB) Update(ctx context.Context, todo *model.Todo) error {
	res, err := d.conn.ExecContext(ctx,
		`UPDATE todos SET date = ?, task = ?, assigned_to = ?, completed_by = ? WHERE id = ?`,
		todo.Date, todo.Task, encodeSet(todo.AssignedTo), encodeSet(todo.CompletedBy), todo.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating todo %s: %w", todo.ID, err)
	}
	return requireAffected(res, "todo", todo.ID)
}

func (d *TodoDB) Delete(ctx context.Context, id string) error {
	res, err := d.conn.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting todo %s: %w", id, err)
	}
	return requireAffected(res, "todo", id)
}
