package domain

import "errors"

var (
	ErrAgentNotFound      = errors.New("agent not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAgentIDTaken       = errors.New("agent id already exists")
	ErrDuplicateID        = errors.New("duplicate agent record id")
	ErrNameCooldown       = errors.New("display name changed within the last 30 days")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordMismatch   = errors.New("new passwords do not match")
	ErrProtectedAgent     = errors.New("the system account cannot be modified this way")
	ErrForbidden          = errors.New("access forbidden")
	ErrNotAuthenticated   = errors.New("no active session")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrRoleNotFound       = errors.New("role not found")

	// ErrCorruptState marks unparsable persisted state. It is recovered
	// locally by resetting to a safe empty state, never surfaced to callers.
	ErrCorruptState = errors.New("corrupt persisted state")
)
