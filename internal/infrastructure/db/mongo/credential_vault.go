package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/securenexus/identity-api/internal/core/domain"
)

const credentialCollection = "credentials"

// CredentialVault stores one bcrypt hash per lower-cased agent handle,
// independent of the agent record itself.
type CredentialVault struct {
	coll *mongo.Collection
}

func NewCredentialVault(db *mongo.Database) *CredentialVault {
	return &CredentialVault{coll: db.Collection(credentialCollection)}
}

type credentialDoc struct {
	AgentIDLower string    `bson:"_id"`
	SecretHash   string    `bson:"secret_hash"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// Set overwrites the stored secret unconditionally.
func (v *CredentialVault) Set(ctx context.Context, agentIDLower, secret string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash secret: %w", err)
	}

	doc := credentialDoc{
		AgentIDLower: agentIDLower,
		SecretHash:   string(hash),
		UpdatedAt:    time.Now().UTC(),
	}
	_, err = v.coll.ReplaceOne(
		ctx,
		bson.M{"_id": agentIDLower},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// Verify compares secret against the stored hash. An absent entry matches
// only an empty secret for the reserved handle: that is the bootstrap path
// for the seeded system account, which starts with no credential at all.
func (v *CredentialVault) Verify(ctx context.Context, agentIDLower, secret string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc credentialDoc
	err := v.coll.FindOne(ctx, bson.M{"_id": agentIDLower}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return agentIDLower == domain.ReservedAgentID && secret == "", nil
	}
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}

	return bcrypt.CompareHashAndPassword([]byte(doc.SecretHash), []byte(secret)) == nil, nil
}

// Remove deletes the entry. Removing an absent entry is not an error.
func (v *CredentialVault) Remove(ctx context.Context, agentIDLower string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := v.coll.DeleteOne(ctx, bson.M{"_id": agentIDLower}); err != nil {
		return fmt.Errorf("remove credential: %w", err)
	}
	return nil
}
