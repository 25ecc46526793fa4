package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
)

func newTodo(t *testing.T, f *fixture, actor, date string, assigned ...string) *model.Todo {
	t.Helper()
	todo, err := f.todoSvc.Create(context.Background(), actor, model.TodoInput{
		Date: date, Task: "Review " + date, AssignedTo: assigned,
	})
	require.NoError(t, err)
	return todo
}

func TestTodoService_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.todoSvc.List(ctx, "alice", "", "")
	assert.NoError(t, err, "canAccessTodos grants access")

	_, err = f.todoSvc.List(ctx, "admin", "", "")
	assert.NoError(t, err, "admins always have access")

	_, err = f.todoSvc.List(ctx, "bob", "", "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestTodoService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	todo, err := f.todoSvc.Create(ctx, "alice", model.TodoInput{
		Date: "2026-10-19", Task: "  ship it  ", AssignedTo: []string{"alice", "bob", "alice", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, "ship it", todo.Task)
	assert.Equal(t, []string{"alice", "bob"}, todo.AssignedTo)
	assert.Empty(t, todo.CompletedBy)
	assert.Equal(t, "alice", todo.CreatedBy)

	tests := []struct {
		name string
		in   model.TodoInput
	}{
		{"empty task", model.TodoInput{Date: "2026-10-19", Task: "  ", AssignedTo: []string{"alice"}}},
		{"no assignees", model.TodoInput{Date: "2026-10-19", Task: "x", AssignedTo: nil}},
		{"bad date", model.TodoInput{Date: "19/10/2026", Task: "x", AssignedTo: []string{"alice"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.todoSvc.Create(ctx, "alice", tt.in)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestTodoService_ListRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newTodo(t, f, "alice", "2026-10-18", "alice")
	newTodo(t, f, "alice", "2026-10-19", "alice")
	newTodo(t, f, "alice", "2026-10-25", "alice")
	newTodo(t, f, "alice", "2026-10-26", "alice")

	week, err := f.todoSvc.List(ctx, "alice", "2026-10-19", "2026-10-25")
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, "2026-10-19", week[0].Date)
	assert.Equal(t, "2026-10-25", week[1].Date)

	all, err := f.todoSvc.List(ctx, "alice", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = f.todoSvc.List(ctx, "alice", "2026-10-25", "2026-10-19")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.todoSvc.List(ctx, "alice", "yesterday", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestTodoService_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	todo := newTodo(t, f, "alice", "2026-10-19", "alice", "bob")

	got, err := f.todoSvc.Toggle(ctx, "alice", todo.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.CompletedBy)

	got, err = f.todoSvc.Toggle(ctx, "admin", todo.ID, "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, got.CompletedBy)

	got, err = f.todoSvc.Toggle(ctx, "alice", todo.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, got.CompletedBy)

	_, err = f.todoSvc.Toggle(ctx, "alice", todo.ID, "bob")
	assert.ErrorIs(t, err, apperror.ErrForbidden, "users only toggle their own mark")

	_, err = f.todoSvc.Toggle(ctx, "admin", todo.ID, "admin")
	assert.ErrorIs(t, err, apperror.ErrValidation, "admin is not assigned")

	_, err = f.todoSvc.Toggle(ctx, "alice", "todo-missing", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTodoService_UpdateDropsStaleCompletions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	todo := newTodo(t, f, "alice", "2026-10-19", "alice", "bob")

	_, err := f.todoSvc.Toggle(ctx, "admin", todo.ID, "bob")
	require.NoError(t, err)
	_, err = f.todoSvc.Toggle(ctx, "alice", todo.ID, "alice")
	require.NoError(t, err)

	got, err := f.todoSvc.Update(ctx, "alice", todo.ID, model.TodoInput{
		Date: "2026-10-20", Task: "Review again", AssignedTo: []string{"alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", got.Date)
	assert.Equal(t, []string{"alice"}, got.AssignedTo)
	assert.Equal(t, []string{"alice"}, got.CompletedBy)
}

func TestTodoService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.users.put(model.User{UID: "carol", Email: "carol@example.com", Role: model.RoleUser, IsActive: true, CanAccessTodos: true})

	todo := newTodo(t, f, "alice", "2026-10-19", "alice")
	assert.ErrorIs(t, f.todoSvc.Delete(ctx, "carol", todo.ID), apperror.ErrForbidden)
	assert.NoError(t, f.todoSvc.Delete(ctx, "alice", todo.ID))

	other := newTodo(t, f, "alice", "2026-10-19", "alice")
	assert.NoError(t, f.todoSvc.Delete(ctx, "admin", other.ID), "admins delete anything")
	assert.ErrorIs(t, f.todoSvc.Delete(ctx, "admin", other.ID), apperror.ErrNotFound)
}

func TestIPService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.ips.Record(ctx, &model.IPRecord{IPAddress: "192.0.2.1", UserID: "bob"}))

	recs, err := f.ipSvc.List(ctx, "admin", 50)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	_, err = f.ipSvc.List(ctx, "bob", 50)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, f.ipSvc.Delete(ctx, "bob", recs[0].ID), apperror.ErrForbidden)

	require.NoError(t, f.ipSvc.Delete(ctx, "admin", recs[0].ID))
	assert.ErrorIs(t, f.ipSvc.Delete(ctx, "admin", recs[0].ID), apperror.ErrNotFound)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultListLimit, normalizeLimit(0))
	assert.Equal(t, DefaultListLimit, normalizeLimit(-3))
	assert.Equal(t, 7, normalizeLimit(7))
	assert.Equal(t, MaxListLimit, normalizeLimit(MaxListLimit+1))
}
