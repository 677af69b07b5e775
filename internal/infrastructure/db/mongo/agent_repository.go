package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

const agentCollection = "agents"

// AgentRepository is the MongoDB identity store.
type AgentRepository struct {
	coll *mongo.Collection
}

func NewAgentRepository(db *mongo.Database) *AgentRepository {
	return &AgentRepository{coll: db.Collection(agentCollection)}
}

// agentDoc mirrors domain.Agent plus the lower-cased handle the unique index
// lives on.
type agentDoc struct {
	ID                    string               `bson:"_id"`
	AgentID               string               `bson:"agent_id"`
	AgentIDLower          string               `bson:"agent_id_lower"`
	DisplayName           string               `bson:"display_name"`
	About                 string               `bson:"about,omitempty"`
	Avatar                string               `bson:"avatar,omitempty"`
	Banner                string               `bson:"banner,omitempty"`
	IsCEO                 bool                 `bson:"is_ceo"`
	Roles                 []string             `bson:"roles"`
	LastDisplayNameChange time.Time            `bson:"last_display_name_change"`
	Stats                 domain.AgentStats    `bson:"stats"`
	Customization         domain.Customization `bson:"customization"`
	CreatedAt             time.Time            `bson:"created_at"`
	UpdatedAt             time.Time            `bson:"updated_at"`
}

func toAgentDoc(a *domain.Agent) agentDoc {
	return agentDoc{
		ID:                    a.ID,
		AgentID:               a.AgentID,
		AgentIDLower:          domain.NormalizeAgentID(a.AgentID),
		DisplayName:           a.DisplayName,
		About:                 a.About,
		Avatar:                a.Avatar,
		Banner:                a.Banner,
		IsCEO:                 a.IsCEO,
		Roles:                 a.Roles,
		LastDisplayNameChange: a.LastDisplayNameChange,
		Stats:                 a.Stats,
		Customization:         a.Customization,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func (d *agentDoc) toDomain() *domain.Agent {
	return &domain.Agent{
		ID:                    d.ID,
		AgentID:               d.AgentID,
		DisplayName:           d.DisplayName,
		About:                 d.About,
		Avatar:                d.Avatar,
		Banner:                d.Banner,
		IsCEO:                 d.IsCEO,
		Roles:                 d.Roles,
		LastDisplayNameChange: d.LastDisplayNameChange,
		Stats:                 d.Stats,
		Customization:         d.Customization,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

// Insert writes a new agent. The unique index on agent_id_lower makes
// check-then-insert safe: a concurrent registration for the same handle
// surfaces here as a duplicate-key error.
func (r *AgentRepository) Insert(ctx context.Context, agent *domain.Agent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, toAgentDoc(agent))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAgentIDTaken
		}
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// Update applies a partial merge and returns the updated record.
func (r *AgentRepository) Update(ctx context.Context, id string, patch ports.AgentPatch) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.DisplayName != nil {
		set["display_name"] = *patch.DisplayName
	}
	if patch.About != nil {
		set["about"] = *patch.About
	}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}
	if patch.Banner != nil {
		set["banner"] = *patch.Banner
	}
	if patch.Customization != nil {
		set["customization"] = *patch.Customization
	}
	if patch.Roles != nil {
		set["roles"] = *patch.Roles
	}
	if patch.LastDisplayNameChange != nil {
		set["last_display_name_change"] = *patch.LastDisplayNameChange
	}

	var doc agentDoc
	err := r.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("update agent: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateStats applies counter increments atomically.
func (r *AgentRepository) UpdateStats(ctx context.Context, id string, delta ports.StatsDelta) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{}
	inc := bson.M{}
	if delta.PostsCount != 0 {
		inc["stats.posts_count"] = delta.PostsCount
	}
	if delta.LikesReceived != 0 {
		inc["stats.likes_received"] = delta.LikesReceived
	}
	if delta.LikesGiven != 0 {
		inc["stats.likes_given"] = delta.LikesGiven
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if !delta.LastActive.IsZero() {
		update["$set"] = bson.M{"stats.last_active": delta.LastActive}
	}
	if len(delta.Achievements) > 0 {
		update["$addToSet"] = bson.M{"stats.achievements_unlocked": bson.M{"$each": delta.Achievements}}
	}
	if len(update) == 0 {
		return nil
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *AgentRepository) FindByID(ctx context.Context, id string) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc agentDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("find agent: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByAgentID matches the handle case-insensitively via agent_id_lower.
func (r *AgentRepository) FindByAgentID(ctx context.Context, agentID string) (*domain.Agent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc agentDoc
	filter := bson.M{"agent_id_lower": domain.NormalizeAgentID(agentID)}
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("find agent by handle: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AgentRepository) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("remove agent: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

// SeedReserved creates the system account when absent. The $setOnInsert
// upsert makes the seed idempotent: a second run matches the existing record
// and writes nothing.
func (r *AgentRepository) SeedReserved(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	seed := toAgentDoc(domain.ReservedAgent(time.Now().UTC()))
	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"_id": domain.ReservedID},
		bson.M{"$setOnInsert": seed},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("seed reserved agent: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique handle index registration relies on.
func (r *AgentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "agent_id_lower", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
