package ports

import (
	"context"

	"github.com/securenexus/identity-api/internal/core/domain"
)

// RegisterInput carries everything needed to create a new account.
type RegisterInput struct {
	AgentID     string
	Secret      string
	DisplayName string
	Avatar      string
	About       string
}

// AuthService is the single entry point for session-changing operations.
// Login and Register touch the durable store; the rest are synchronous
// session transitions.
type AuthService interface {
	// Login authenticates an agent and opens a session. The guest sentinel
	// id enters guest mode without touching the vault or the store.
	Login(ctx context.Context, agentID, secret string) (string, *domain.Agent, error)
	// Register creates the agent and its credential, then opens a session.
	// Either both records are written or neither is.
	Register(ctx context.Context, input RegisterInput) (string, *domain.Agent, error)
	Logout(ctx context.Context) error
	// Impersonate swaps the effective session identity for the target's.
	// Only an agent with IsCEO may call it; the actual identity is retained.
	Impersonate(ctx context.Context, targetID string) (*domain.Agent, error)
	StopImpersonating(ctx context.Context) error
	Session(ctx context.Context) domain.SessionSnapshot
}
