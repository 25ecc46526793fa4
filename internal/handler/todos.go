package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/service"
)

type TodoHandler struct {
	todos  *service.TodoService
	logger *slog.Logger
}

func NewTodoHandler(todos *service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{todos: todos, logger: logger}
}

// HandleList → GET /api/todos?startDate=YYYY-MM-DD&endDate=YYYY-MM-DD
func (h *TodoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	todos, err := h.todos.List(r.Context(), actorID(r), q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	writeOK(w, http.StatusOK, todos, "")
}

// HandleCreate → POST /api/todos {date, task, assignedTo}
func (h *TodoHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.TodoInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	todo, err := h.todos.Create(r.Context(), actorID(r), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusCreated, todo, "Todo created")
}

// HandleUpdate → PUT /api/todos/{id}
func (h *TodoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.TodoInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	todo, err := h.todos.Update(r.Context(), actorID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, todo, "Todo updated")
}

type toggleRequest struct {
	UserID string `json:"userId"`
}

// HandleToggle → PATCH /api/todos/{id}/complete {userId}
func (h *TodoHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	todo, err := h.todos.Toggle(r.Context(), actorID(r), chi.URLParam(r, "id"), req.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, todo, "")
}

// HandleDelete → DELETE /api/todos/{id}
func (h *TodoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.todos.Delete(r.Context(), actorID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, nil, "Todo deleted")
}
