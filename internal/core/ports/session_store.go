package ports

import (
	"context"

	"github.com/securenexus/identity-api/internal/core/domain"
)

// SessionStore persists the single current-session descriptor across process
// restarts.
//
// Load returns (nil, nil) when no descriptor is stored and
// domain.ErrCorruptState when the stored value cannot be parsed; the caller
// recovers from corruption by clearing and falling back to logged-out.
type SessionStore interface {
	Save(ctx context.Context, desc domain.SessionDescriptor) error
	Load(ctx context.Context) (*domain.SessionDescriptor, error)
	Clear(ctx context.Context) error
}
