package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/trading-dashboard/internal/model"
	"github.com/sakif/trading-dashboard/internal/service"
)

// UserHandler serves /api/user/*. All routes sit behind auth.RequireAuth;
// the service decides whether the caller may act on {id}.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList → GET /api/user?limit=N
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	users, err := h.users.List(r.Context(), actorID(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, users, "")
}

// HandleGet → GET /api/user/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), actorID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, u, "")
}

// HandleUpdate → PUT /api/user/{id} {displayName, phoneNumber}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	u, err := h.users.UpdateProfile(r.Context(), actorID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, u, "Profile updated")
}

// HandleDelete → DELETE /api/user/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), actorID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, nil, "User deleted")
}

// HandleGetRole → GET /api/user/{id}/role
func (h *UserHandler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	st, err := h.users.Role(r.Context(), actorID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, st, "")
}

// HandleUpdateRole → PATCH /api/user/{id}/role {role, isActive}
func (h *UserHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req model.RoleStatus
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	u, err := h.users.SetRole(r.Context(), actorID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, u, "Role updated")
}

type todoAccessRequest struct {
	CanAccessTodos bool `json:"canAccessTodos"`
}

// HandleTodoAccess → PATCH /api/user/{id}/todo-access {canAccessTodos}
func (h *UserHandler) HandleTodoAccess(w http.ResponseWriter, r *http.Request) {
	var req todoAccessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	u, err := h.users.SetTodoAccess(r.Context(), actorID(r), chi.URLParam(r, "id"), req.CanAccessTodos)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, u, "Todo access updated")
}
