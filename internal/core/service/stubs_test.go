package service

import (
	"context"
	"errors"
	"time"

	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

type memAgents struct {
	byID map[string]*domain.Agent
}

func newMemAgents() *memAgents {
	return &memAgents{byID: make(map[string]*domain.Agent)}
}

func cloneAgent(a *domain.Agent) *domain.Agent {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Roles = append([]string{}, a.Roles...)
	return &clone
}

func (r *memAgents) Insert(_ context.Context, agent *domain.Agent) error {
	if _, exists := r.byID[agent.ID]; exists {
		return domain.ErrDuplicateID
	}
	lower := domain.NormalizeAgentID(agent.AgentID)
	for _, a := range r.byID {
		if domain.NormalizeAgentID(a.AgentID) == lower {
			return domain.ErrAgentIDTaken
		}
	}
	r.byID[agent.ID] = cloneAgent(agent)
	return nil
}

func (r *memAgents) Update(_ context.Context, id string, patch ports.AgentPatch) (*domain.Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	if patch.DisplayName != nil {
		a.DisplayName = *patch.DisplayName
	}
	if patch.About != nil {
		a.About = *patch.About
	}
	if patch.Avatar != nil {
		a.Avatar = *patch.Avatar
	}
	if patch.Banner != nil {
		a.Banner = *patch.Banner
	}
	if patch.Customization != nil {
		a.Customization = *patch.Customization
	}
	if patch.Roles != nil {
		a.Roles = append([]string{}, (*patch.Roles)...)
	}
	if patch.LastDisplayNameChange != nil {
		a.LastDisplayNameChange = *patch.LastDisplayNameChange
	}
	return cloneAgent(a), nil
}

func (r *memAgents) UpdateStats(_ context.Context, id string, delta ports.StatsDelta) error {
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAgentNotFound
	}
	a.Stats.PostsCount += delta.PostsCount
	a.Stats.LikesReceived += delta.LikesReceived
	a.Stats.LikesGiven += delta.LikesGiven
	if !delta.LastActive.IsZero() {
		a.Stats.LastActive = delta.LastActive
	}
	a.Stats.AchievementsUnlocked = append(a.Stats.AchievementsUnlocked, delta.Achievements...)
	return nil
}

func (r *memAgents) FindByID(_ context.Context, id string) (*domain.Agent, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAgentNotFound
	}
	return cloneAgent(a), nil
}

func (r *memAgents) FindByAgentID(_ context.Context, agentID string) (*domain.Agent, error) {
	lower := domain.NormalizeAgentID(agentID)
	for _, a := range r.byID {
		if domain.NormalizeAgentID(a.AgentID) == lower {
			return cloneAgent(a), nil
		}
	}
	return nil, domain.ErrAgentNotFound
}

func (r *memAgents) Remove(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrAgentNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memAgents) SeedReserved(_ context.Context) error {
	if _, ok := r.byID[domain.ReservedID]; ok {
		return nil
	}
	r.byID[domain.ReservedID] = domain.ReservedAgent(time.Now().UTC())
	return nil
}

// memVault stores plaintext secrets; hashing belongs to the Mongo adapter.
type memVault struct {
	secrets map[string]string
	setErr  error // if set, Set returns this error
}

func newMemVault() *memVault {
	return &memVault{secrets: make(map[string]string)}
}

func (v *memVault) Set(_ context.Context, agentIDLower, secret string) error {
	if v.setErr != nil {
		return v.setErr
	}
	v.secrets[agentIDLower] = secret
	return nil
}

func (v *memVault) Verify(_ context.Context, agentIDLower, secret string) (bool, error) {
	stored, ok := v.secrets[agentIDLower]
	if !ok {
		return agentIDLower == domain.ReservedAgentID && secret == "", nil
	}
	return stored == secret, nil
}

func (v *memVault) Remove(_ context.Context, agentIDLower string) error {
	delete(v.secrets, agentIDLower)
	return nil
}

// memSessionStore persists the descriptor in memory; corrupt simulates an
// unparsable payload.
type memSessionStore struct {
	desc    *domain.SessionDescriptor
	corrupt bool
}

func (s *memSessionStore) Save(_ context.Context, desc domain.SessionDescriptor) error {
	d := desc
	s.desc = &d
	return nil
}

func (s *memSessionStore) Load(_ context.Context) (*domain.SessionDescriptor, error) {
	if s.corrupt {
		return nil, domain.ErrCorruptState
	}
	if s.desc == nil {
		return nil, nil
	}
	d := *s.desc
	return &d, nil
}

func (s *memSessionStore) Clear(_ context.Context) error {
	s.desc = nil
	s.corrupt = false
	return nil
}

type memRoles struct {
	byID map[string]*domain.Role
}

func newMemRoles() *memRoles {
	return &memRoles{byID: make(map[string]*domain.Role)}
}

func (r *memRoles) Insert(_ context.Context, role *domain.Role) error {
	clone := *role
	r.byID[role.ID] = &clone
	return nil
}

func (r *memRoles) FindByID(_ context.Context, id string) (*domain.Role, error) {
	role, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	clone := *role
	return &clone, nil
}

func (r *memRoles) List(_ context.Context) ([]*domain.Role, error) {
	roles := make([]*domain.Role, 0, len(r.byID))
	for _, role := range r.byID {
		clone := *role
		roles = append(roles, &clone)
	}
	return roles, nil
}

func (r *memRoles) Remove(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrRoleNotFound
	}
	delete(r.byID, id)
	return nil
}

// stubThrottle counts failures in memory.
type stubThrottle struct {
	fails   map[string]int
	blocked map[string]bool
}

func newStubThrottle() *stubThrottle {
	return &stubThrottle{fails: make(map[string]int), blocked: make(map[string]bool)}
}

func (t *stubThrottle) Blocked(_ context.Context, id string) (bool, error) {
	return t.blocked[id], nil
}

func (t *stubThrottle) Fail(_ context.Context, id string) error {
	t.fails[id]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, id string) error {
	delete(t.fails, id)
	t.blocked[id] = false
	return nil
}

// captureQueue records enqueued activity events.
type captureQueue struct {
	events []ports.ActivityEvent
}

func (q *captureQueue) Enqueue(event ports.ActivityEvent) {
	q.events = append(q.events, event)
}

var errVaultDown = errors.New("vault unavailable")
