package handler

import "github.com/securenexus/identity-api/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	AgentID     string `json:"agent_id"     validate:"required"`
	Password    string `json:"password"     validate:"required"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	About       string `json:"about"`
}

type loginRequest struct {
	AgentID  string `json:"agent_id" validate:"required"`
	Password string `json:"password"`
}

type impersonateRequest struct {
	// ID is the target agent's record id, not the handle.
	ID string `json:"id" validate:"required"`
}

type authResponse struct {
	Token string        `json:"token,omitempty"`
	Agent *domain.Agent `json:"agent,omitempty"`
}
