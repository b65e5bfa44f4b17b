package api

import (
	"net/http"

	"github.com/statushub/statushub/internal/auth"
)

// AuthHandler handles login
type AuthHandler struct {
	deps *Dependencies
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(deps *Dependencies) *AuthHandler {
	return &AuthHandler{deps: deps}
}

// Login handles POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[auth.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.deps.Auth.Login(req.Username, req.Password)
	if err != nil {
		sendError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
		return
	}

	sendJSON(w, http.StatusOK, resp)
}
