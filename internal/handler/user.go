package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/service"
)

// UserHandler serves the user directory.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// UserListResponse is returned by GET /users. Passwords never appear: the
// model tags that field json:"-".
type UserListResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Users   []model.User `json:"users"`
}

type UserResponse struct {
	Success bool        `json:"success"`
	User    *model.User `json:"user"`
}

// HandleList returns every user, or the ones matching ?q=.
//
// HTTP: GET /users?q=ali&limit=10&offset=0
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var users []model.User
	if q, ok := searchParam(r); ok {
		users, err = h.users.Search(r.Context(), q, opts)
	} else {
		users, err = h.users.List(r.Context(), opts)
	}
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{Success: true, Count: len(users), Users: users})
}

// HandleGet returns one user.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{Success: true, User: user})
}

// HandleDelete removes a user.
//
// HTTP: DELETE /users/{id}
//
// Not session-gated. The user's posts and other users' follow entries
// naming them are left in place.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}
