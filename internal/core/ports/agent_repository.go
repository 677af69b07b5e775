package ports

import (
	"context"
	"time"

	"github.com/securenexus/identity-api/internal/core/domain"
)

// AgentPatch is a partial update; nil fields are left untouched.
type AgentPatch struct {
	DisplayName           *string
	About                 *string
	Avatar                *string
	Banner                *string
	Customization         *domain.Customization
	Roles                 *[]string
	LastDisplayNameChange *time.Time
}

// StatsDelta carries increments applied to an agent's activity counters.
// Zero-valued fields are no-ops; a zero LastActive leaves the stamp alone.
type StatsDelta struct {
	PostsCount    int
	LikesReceived int
	LikesGiven    int
	LastActive    time.Time
	Achievements  []string
}

// AgentRepository is the durable identity store.
//
// Insert must be atomic with respect to concurrent inserts for the same
// handle: the store enforces case-insensitive agent-id uniqueness itself
// (unique index or equivalent) and reports a collision as ErrAgentIDTaken.
type AgentRepository interface {
	Insert(ctx context.Context, agent *domain.Agent) error
	Update(ctx context.Context, id string, patch AgentPatch) (*domain.Agent, error)
	UpdateStats(ctx context.Context, id string, delta StatsDelta) error
	FindByID(ctx context.Context, id string) (*domain.Agent, error)
	// FindByAgentID matches the handle case-insensitively.
	FindByAgentID(ctx context.Context, agentID string) (*domain.Agent, error)
	Remove(ctx context.Context, id string) error
	// SeedReserved creates the system account when absent. Idempotent:
	// calling it against a store that already holds the account is a no-op.
	SeedReserved(ctx context.Context) error
}
