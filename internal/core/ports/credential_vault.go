package ports

import "context"

// CredentialVault stores one secret per lower-cased agent id, independent of
// the identity record.
//
// Verify treats "no stored secret" as a match only when the secret is empty
// and the id is the reserved system handle (the bootstrap/recovery path).
// For every other id an absent entry never matches.
type CredentialVault interface {
	Set(ctx context.Context, agentIDLower, secret string) error
	Verify(ctx context.Context, agentIDLower, secret string) (bool, error)
	Remove(ctx context.Context, agentIDLower string) error
}
