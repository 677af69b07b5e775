package ports

import (
	"context"

	"github.com/securenexus/identity-api/internal/core/domain"
)

// ProfilePatch is the caller-facing partial profile update. Nil fields are
// left untouched. Display-name changes are subject to the cooldown policy.
type ProfilePatch struct {
	DisplayName   *string
	About         *string
	Avatar        *string
	Banner        *string
	Customization *domain.Customization
}

// ProfileService enforces account-lifecycle policy: the display-name change
// cooldown, the protected system account, password changes, and deletion.
type ProfileService interface {
	Get(ctx context.Context, id string) (*domain.Agent, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*domain.Agent, error)
	ChangePassword(ctx context.Context, id, current, next, confirm string) error
	DeleteAccount(ctx context.Context, id string) error
	AssignRole(ctx context.Context, agentID, roleID string) error
	RevokeRole(ctx context.Context, agentID, roleID string) error
	// ResolveRoles returns the agent's roles, skipping ids whose role no
	// longer exists.
	ResolveRoles(ctx context.Context, id string) ([]*domain.Role, error)
}
