package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/service"
)

// AuthHandler covers registration and the login session.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account
//   - HandleLogin    → check credentials, open a session, set the cookie
//   - HandleStatus   → report who the cookie belongs to
//   - HandleLogout   → delete the session and clear the cookie
//
// The gate owns the cookie format; the service owns the session record.
type AuthHandler struct {
	auth   *service.AuthService
	gate   *auth.Gate
	logger *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, gate *auth.Gate, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, gate: gate, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountResponse is returned by register and login.
type AccountResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// StatusResponse is returned by GET /login.
type StatusResponse struct {
	Success  bool   `json:"success"`
	LoggedIn bool   `json:"loggedIn"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message,omitempty"`
}

// HandleRegister creates an account.
//
// HTTP: POST /users
// REQUEST BODY: {"username": "...", "email": "...", "password": "...", "fullName": "..."}
//
// Registering does not log the caller in.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{
		Success:  true,
		Message:  "User registered successfully",
		UserID:   user.ID,
		Username: user.Username,
	})
}

// HandleLogin opens a session.
//
// HTTP: POST /login
// REQUEST BODY: {"email": "...", "password": "..."}
//
// On success the response sets the session cookie. Any session the caller
// already had is left alone; it simply stops being referenced by the browser.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.gate.Issue(w, res.Session); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{
		Success:  true,
		Message:  "Login successful",
		UserID:   res.User.ID,
		Username: res.User.Username,
	})
}

// HandleStatus reports whether the request carries a live session.
//
// HTTP: GET /login
func (h *AuthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.auth.Status(auth.IdentityFromContext(r.Context()))
	if !st.LoggedIn {
		writeJSON(w, http.StatusOK, StatusResponse{Success: true, Message: "Not logged in"})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Success:  true,
		LoggedIn: true,
		UserID:   st.UserID,
		Username: st.Username,
	})
}

// HandleLogout deletes the session record and clears the cookie.
//
// HTTP: DELETE /login
//
// Logging out without a session succeeds too. The record is deleted
// server-side, so a copied cookie stops working immediately.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), h.gate.SessionID(r)); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Error during logout",
		})
		return
	}

	h.gate.Clear(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}
