package handler

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/sakif/trading-dashboard/internal/service"
)

// AuthHandler serves the two public account endpoints.
//
//	POST /api/user/signup → create account, return {uid, token, email, role}
//	POST /api/user/signin → verify credentials, same payload
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// HandleSignUp creates an account and logs the caller's address.
//
// chi's RealIP middleware has already replaced RemoteAddr with the
// X-Forwarded-For / X-Real-IP value when one is present.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := h.auth.SignUp(r.Context(), service.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		IPAddress:   clientIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeOK(w, http.StatusCreated, data, "Account created")
}

func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	data, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeOK(w, http.StatusOK, data, "Signed in")
}

// clientIP strips the port from RemoteAddr. RealIP leaves a bare address,
// the default RemoteAddr is host:port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
