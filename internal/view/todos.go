package view

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/notify"
	"github.com/sakif/trading-dashboard/internal/session"
)

const dateLayout = "2006-01-02"

// WeekDates returns the seven calendar dates starting at start, as
// YYYY-MM-DD in UTC.
func WeekDates(start time.Time) []string {
	start = start.UTC()
	dates := make([]string, 7)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format(dateLayout)
	}
	return dates
}

// TodoBackend is what the todo grid calls.
type TodoBackend interface {
	ListUsers(ctx context.Context, token string, limit int) ([]model.User, error)
	GetTodos(ctx context.Context, token, startDate, endDate string) ([]model.Todo, error)
	CreateTodo(ctx context.Context, token string, in model.TodoInput) (*model.Todo, error)
	UpdateTodo(ctx context.Context, token, id string, in model.TodoInput) (*model.Todo, error)
	ToggleTodo(ctx context.Context, token, id, userID string) (*model.Todo, error)
	DeleteTodo(ctx context.Context, token, id string) error
}

// Week is the grid's content: seven dates and the todos that fall in them.
type Week struct {
	Dates []string
	Todos []model.Todo
}

// On returns the todos dated d.
func (w *Week) On(d string) []model.Todo {
	var out []model.Todo
	for _, t := range w.Todos {
		if t.Date == d {
			out = append(out, t)
		}
	}
	return out
}

// TodoService backs the weekly todo grid. Every mutation re-fetches the
// week; local state is never patched in place.
type TodoService struct {
	backend  TodoBackend
	sessions *session.Manager
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewTodoService(backend TodoBackend, sessions *session.Manager, notifier notify.Notifier, logger *slog.Logger) *TodoService {
	return &TodoService{backend: backend, sessions: sessions, notifier: notifier, logger: logger}
}

// Assignees lists the users a todo can be assigned to.
func (s *TodoService) Assignees(ctx context.Context) ([]model.User, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	users, err := s.backend.ListUsers(ctx, sess.Token, adminUserLimit)
	if err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to load users")
	}
	return users, nil
}

// Load fetches the week starting at start.
func (s *TodoService) Load(ctx context.Context, start time.Time) (*Week, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	dates := WeekDates(start)
	todos, err := s.backend.GetTodos(ctx, sess.Token, dates[0], dates[len(dates)-1])
	if err != nil {
		s.logger.Warn("loading todos failed", slog.String("error", err.Error()))
		return nil, reportFailure(ctx, s.notifier, err, "Failed to load tasks")
	}
	return &Week{Dates: dates, Todos: todos}, nil
}

func validateTodo(in *model.TodoInput) error {
	in.Task = strings.TrimSpace(in.Task)
	if in.Task == "" || len(in.AssignedTo) == 0 {
		return apperror.ValidationFailed("task", "Please enter a task and select at least one person")
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return apperror.ValidationFailed("date", "Please select a valid date")
	}
	return nil
}

// Create adds a todo and returns the refreshed week. An empty task or an
// empty assignee set is rejected before any network call.
func (s *TodoService) Create(ctx context.Context, week time.Time, in model.TodoInput) (*Week, error) {
	if err := validateTodo(&in); err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "")
	}
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	in.UserID = sess.UserID
	if _, err := s.backend.CreateTodo(ctx, sess.Token, in); err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to add task")
	}
	s.notifier.Notify(ctx, notify.Info("Success", "Task added successfully"))
	return s.Load(ctx, week)
}

// Update edits a todo's date, task and assignees.
func (s *TodoService) Update(ctx context.Context, week time.Time, id string, in model.TodoInput) (*Week, error) {
	if err := validateTodo(&in); err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "")
	}
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	in.UserID = sess.UserID
	if _, err := s.backend.UpdateTodo(ctx, sess.Token, id, in); err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to update task")
	}
	s.notifier.Notify(ctx, notify.Info("Success", "Task updated successfully"))
	return s.Load(ctx, week)
}

// Toggle flips userID's completion mark. Admins may toggle for anyone.
func (s *TodoService) Toggle(ctx context.Context, week time.Time, id, userID string) (*Week, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		userID = sess.UserID
	}
	if _, err := s.backend.ToggleTodo(ctx, sess.Token, id, userID); err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to update task")
	}
	return s.Load(ctx, week)
}

func (s *TodoService) Delete(ctx context.Context, week time.Time, id string) (*Week, error) {
	sess, err := currentSession(s.sessions)
	if err != nil {
		return nil, err
	}
	if err := s.backend.DeleteTodo(ctx, sess.Token, id); err != nil {
		return nil, reportFailure(ctx, s.notifier, err, "Failed to delete task")
	}
	s.notifier.Notify(ctx, notify.Info("Success", "Task deleted successfully"))
	return s.Load(ctx, week)
}
