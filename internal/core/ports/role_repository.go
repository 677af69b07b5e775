package ports

import (
	"context"

	"github.com/securenexus/identity-api/internal/core/domain"
)

// RoleRepository manages the independent role collection. Deleting a role
// does not touch agents that reference it; dangling ids are resolved to
// nothing at read time.
type RoleRepository interface {
	Insert(ctx context.Context, role *domain.Role) error
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Remove(ctx context.Context, id string) error
}
