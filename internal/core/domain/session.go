package domain

// SessionKind enumerates the three base session states.
type SessionKind string

const (
	SessionNone          SessionKind = "none"
	SessionAuthenticated SessionKind = "authenticated"
	SessionGuest         SessionKind = "guest"
)

// SessionDescriptor is the persisted shape of the current session. Only the
// base state survives a restart; an impersonation overlay never does.
type SessionDescriptor struct {
	Kind    SessionKind `json:"kind"`
	AgentID string      `json:"agent_id,omitempty"`
}

// SessionSnapshot is the read-only view handed to collaborators.
//
// Effective is the identity the rest of the system should observe: the
// impersonation overlay when one is set, otherwise the authenticated or guest
// agent, otherwise nil. Actual is always the non-overlay identity and is the
// one privilege checks run against.
type SessionSnapshot struct {
	Kind          SessionKind `json:"kind"`
	Effective     *Agent      `json:"effective,omitempty"`
	Actual        *Agent      `json:"actual,omitempty"`
	Impersonating bool        `json:"impersonating"`
}
