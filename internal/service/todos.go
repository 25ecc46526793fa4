package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/trading-dashboard/internal/apperror"
	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/repository"
)

// DateLayout is the wire format of todo dates.
const DateLayout = "2006-01-02"

const MaxTaskLength = 500

// TodoService runs the shared weekly todo board. Only users with
// canAccessTodos (and admins) may see or touch it.
type TodoService struct {
	access
	todos  repository.TodoRepository
	logger *slog.Logger
}

func NewTodoService(users repository.UserRepository, todos repository.TodoRepository, logger *slog.Logger) *TodoService {
	return &TodoService{access: access{users: users}, todos: todos, logger: logger}
}

func validDate(field, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be a YYYY-MM-DD date", field))
	}
	return nil
}

// List returns todos dated within [startDate, endDate]. Either bound may be
// empty to leave that side open.
func (s *TodoService) List(ctx context.Context, actorID, startDate, endDate string) ([]model.Todo, error) {
	if _, err := s.requireTodoAccess(ctx, actorID); err != nil {
		return nil, err
	}
	if startDate != "" {
		if err := validDate("startDate", startDate); err != nil {
			return nil, err
		}
	}
	if endDate != "" {
		if err := validDate("endDate", endDate); err != nil {
			return nil, err
		}
	}
	if startDate != "" && endDate != "" && endDate < startDate {
		return nil, apperror.ValidationFailed("endDate", "endDate must not be before startDate")
	}

	todos, err := s.todos.ListRange(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("service/todos: listing %s..%s: %w", startDate, endDate, err)
	}
	return todos, nil
}

// cleanInput trims the task, validates the date and de-duplicates assignees.
func cleanInput(in model.TodoInput) (model.TodoInput, error) {
	in.Task = strings.TrimSpace(in.Task)
	if in.Task == "" {
		return in, apperror.ValidationFailed("task", "Task is required")
	}
	if len(in.Task) > MaxTaskLength {
		return in, apperror.ValidationFailed("task", fmt.Sprintf("Task must be %d characters or fewer", MaxTaskLength))
	}
	if err := validDate("date", in.Date); err != nil {
		return in, err
	}

	assigned := make([]string, 0, len(in.AssignedTo))
	for _, id := range in.AssignedTo {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(assigned, id) {
			assigned = append(assigned, id)
		}
	}
	if len(assigned) == 0 {
		return in, apperror.ValidationFailed("assignedTo", "Select at least one person")
	}
	in.AssignedTo = assigned
	return in, nil
}

func (s *TodoService) Create(ctx context.Context, actorID string, in model.TodoInput) (*model.Todo, error) {
	actor, err := s.requireTodoAccess(ctx, actorID)
	if err != nil {
		return nil, err
	}
	in, err = cleanInput(in)
	if err != nil {
		return nil, err
	}

	todo := &model.Todo{
		Date:        in.Date,
		Task:        in.Task,
		AssignedTo:  in.AssignedTo,
		CompletedBy: []string{},
		CreatedBy:   actor.UID,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("service/todos: creating: %w", err)
	}

	s.logger.Info("todo created", slog.String("todoID", todo.ID), slog.String("by", actor.UID))
	return todo, nil
}

// Update rewrites date, task and assignees. Completion marks of people who
// are no longer assigned are dropped.
func (s *TodoService) Update(ctx context.Context, actorID, id string, in model.TodoInput) (*model.Todo, error) {
	if _, err := s.requireTodoAccess(ctx, actorID); err != nil {
		return nil, err
	}
	in, err := cleanInput(in)
	if err != nil {
		return nil, err
	}

	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/todos: fetching %s: %w", id, err)
	}

	todo.Date = in.Date
	todo.Task = in.Task
	todo.AssignedTo = in.AssignedTo
	todo.CompletedBy = slices.DeleteFunc(todo.CompletedBy, func(uid string) bool {
		return !slices.Contains(in.AssignedTo, uid)
	})

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("service/todos: updating %s: %w", id, err)
	}
	return todo, nil
}

// Toggle flips userID's completion mark. Users may only toggle their own
// mark; admins may toggle anyone's. An empty userID means the caller.
func (s *TodoService) Toggle(ctx context.Context, actorID, id, userID string) (*model.Todo, error) {
	actor, err := s.requireTodoAccess(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		userID = actor.UID
	}
	if userID != actor.UID && !actor.IsAdmin() {
		return nil, apperror.Forbidden("You can only complete your own tasks")
	}

	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/todos: fetching %s: %w", id, err)
	}
	if !todo.IsAssignedTo(userID) {
		return nil, apperror.ValidationFailed("userId", "User is not assigned to this task")
	}

	if todo.IsCompletedBy(userID) {
		todo.CompletedBy = slices.DeleteFunc(todo.CompletedBy, func(uid string) bool { return uid == userID })
	} else {
		todo.CompletedBy = append(todo.CompletedBy, userID)
	}

	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("service/todos: toggling %s: %w", id, err)
	}
	return todo, nil
}

// Delete removes a todo. Only its creator or an admin may do so.
func (s *TodoService) Delete(ctx context.Context, actorID, id string) error {
	actor, err := s.requireTodoAccess(ctx, actorID)
	if err != nil {
		return err
	}

	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service/todos: fetching %s: %w", id, err)
	}
	if todo.CreatedBy != actor.UID && !actor.IsAdmin() {
		return apperror.Forbidden("Only the creator can delete this task")
	}

	if err := s.todos.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/todos: deleting %s: %w", id, err)
	}
	return nil
}
