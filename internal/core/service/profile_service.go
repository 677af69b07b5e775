package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

// ProfileService enforces account-lifecycle policy on top of the identity
// store and credential vault: display-name cooldown, the protected system
// account, password rules, deletion, and role assignment.
type ProfileService struct {
	mu       sync.Mutex
	agents   ports.AgentRepository
	roles    ports.RoleRepository
	vault    ports.CredentialVault
	sessions *SessionManager
	log      zerolog.Logger
	now      func() time.Time
}

func NewProfileService(
	agents ports.AgentRepository,
	roles ports.RoleRepository,
	vault ports.CredentialVault,
	sessions *SessionManager,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		agents:   agents,
		roles:    roles,
		vault:    vault,
		sessions: sessions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get fetches an agent by record id.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Agent, error) {
	return s.agents.FindByID(ctx, id)
}

// UpdateProfile merges patch into the agent record.
//
// A display-name change is allowed only when the name is unchanged or the
// cooldown has elapsed; a rejected change mutates nothing. A permitted
// change stamps the cooldown clock.
func (s *ProfileService) UpdateProfile(ctx context.Context, id string, patch ports.ProfilePatch) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.agents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	repoPatch := ports.AgentPatch{
		DisplayName:   patch.DisplayName,
		About:         patch.About,
		Avatar:        patch.Avatar,
		Banner:        patch.Banner,
		Customization: patch.Customization,
	}

	if patch.DisplayName != nil && *patch.DisplayName != agent.DisplayName {
		if s.now().Sub(agent.LastDisplayNameChange) < domain.DisplayNameCooldown {
			return nil, domain.ErrNameCooldown
		}
		stamp := s.now()
		repoPatch.LastDisplayNameChange = &stamp
	}

	updated, err := s.agents.Update(ctx, id, repoPatch)
	if err != nil {
		return nil, err
	}

	s.sessions.Refresh(updated)
	return updated, nil
}

// ChangePassword overwrites the vault entry for the agent after verifying
// the current secret and the new-password rules. Nothing else is touched.
func (s *ProfileService) ChangePassword(ctx context.Context, id, current, next, confirm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.agents.FindByID(ctx, id)
	if err != nil {
		return err
	}

	lower := domain.NormalizeAgentID(agent.AgentID)
	ok, err := s.vault.Verify(ctx, lower, current)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidCredentials
	}
	if next != confirm {
		return domain.ErrPasswordMismatch
	}
	if len(next) < domain.MinPasswordLength {
		return domain.ErrPasswordTooShort
	}

	return s.vault.Set(ctx, lower, next)
}

// DeleteAccount removes the agent and its credential. The system account is
// protected regardless of caller privilege. Any session state referencing the
// deleted agent ends with it: an authenticated session is logged out, an
// impersonation overlay is cleared.
func (s *ProfileService) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.agents.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if agent.IsReserved() {
		return domain.ErrProtectedAgent
	}

	if err := s.agents.Remove(ctx, id); err != nil {
		return err
	}
	if err := s.vault.Remove(ctx, domain.NormalizeAgentID(agent.AgentID)); err != nil {
		s.log.Error().Err(err).Str("agent_id", agent.AgentID).Msg("credential removal after account deletion")
	}

	if actual := s.sessions.Actual(); actual != nil && actual.ID == id {
		if err := s.sessions.Logout(ctx); err != nil {
			s.log.Error().Err(err).Msg("session teardown after account deletion")
		}
	} else if eff := s.sessions.Effective(); eff != nil && eff.ID == id {
		s.sessions.StopImpersonation()
	}

	s.log.Info().Str("agent_id", agent.AgentID).Msg("account deleted")
	return nil
}

// AssignRole adds the role id to the agent's role list. The role must exist
// at assignment time; it may be deleted afterwards and the reference simply
// dangles.
func (s *ProfileService) AssignRole(ctx context.Context, agentID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.roles.FindByID(ctx, roleID); err != nil {
		return err
	}

	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return err
	}

	for _, r := range agent.Roles {
		if r == roleID {
			return nil
		}
	}
	updatedRoles := append(append([]string{}, agent.Roles...), roleID)

	updated, err := s.agents.Update(ctx, agentID, ports.AgentPatch{Roles: &updatedRoles})
	if err != nil {
		return err
	}
	s.sessions.Refresh(updated)
	return nil
}

// RevokeRole removes the role id from the agent's list. Idempotent.
func (s *ProfileService) RevokeRole(ctx context.Context, agentID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(agent.Roles))
	for _, r := range agent.Roles {
		if r != roleID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(agent.Roles) {
		return nil
	}

	updated, err := s.agents.Update(ctx, agentID, ports.AgentPatch{Roles: &kept})
	if err != nil {
		return err
	}
	s.sessions.Refresh(updated)
	return nil
}

// ResolveRoles returns the agent's roles. Ids whose role was deleted are
// treated as "no such role" and skipped, never surfaced as an error.
func (s *ProfileService) ResolveRoles(ctx context.Context, id string) ([]*domain.Role, error) {
	agent, err := s.agents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resolved := make([]*domain.Role, 0, len(agent.Roles))
	for _, roleID := range agent.Roles {
		role, err := s.roles.FindByID(ctx, roleID)
		if errors.Is(err, domain.ErrRoleNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, role)
	}
	return resolved, nil
}
