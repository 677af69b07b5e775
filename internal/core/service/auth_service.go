package service

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/securenexus/identity-api/internal/core/domain"
	"github.com/securenexus/identity-api/internal/core/ports"
)

// ActivityQueue accepts activity events for asynchronous application.
type ActivityQueue interface {
	Enqueue(event ports.ActivityEvent)
}

// LoginThrottle abstracts the consecutive-failure tracker (Redis).
type LoginThrottle interface {
	Blocked(ctx context.Context, agentIDLower string) (bool, error)
	Fail(ctx context.Context, agentIDLower string) error
	Reset(ctx context.Context, agentIDLower string) error
}

// AuthService orchestrates the identity store, credential vault and session
// manager. It is the only path by which session state changes.
//
// All mutating operations are serialized through one mutex: the
// check-then-insert sequence in Register must not race another registration
// for the same handle. The store's unique index is the backstop for writers
// outside this process.
type AuthService struct {
	mu       sync.Mutex
	agents   ports.AgentRepository
	vault    ports.CredentialVault
	sessions *SessionManager
	throttle LoginThrottle // optional; nil disables throttling
	activity ActivityQueue // optional; nil disables stat stamping

	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	agents ports.AgentRepository,
	vault ports.CredentialVault,
	sessions *SessionManager,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		agents:    agents,
		vault:     vault,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithThrottle enables consecutive-failure login throttling.
func (s *AuthService) WithThrottle(t LoginThrottle) *AuthService {
	s.throttle = t
	return s
}

// WithActivityQueue enables asynchronous last-active stamping on login.
func (s *AuthService) WithActivityQueue(q ActivityQueue) *AuthService {
	s.activity = q
	return s
}

// Login authenticates agentID and opens a session.
//
// The guest sentinel fabricates an ephemeral guest identity without touching
// the vault or the store. The reserved handle may log in with an empty
// secret as long as no credential was ever set for it.
func (s *AuthService) Login(ctx context.Context, agentID, secret string) (string, *domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agentID == domain.GuestSentinel {
		guest := domain.GuestAgent(s.now())
		if err := s.sessions.SetGuest(ctx, guest); err != nil {
			return "", nil, err
		}
		token, err := s.generateToken(guest)
		if err != nil {
			return "", nil, err
		}
		return token, guest, nil
	}

	lower := domain.NormalizeAgentID(agentID)

	if s.throttle != nil {
		blocked, err := s.throttle.Blocked(ctx, lower)
		if err != nil {
			s.log.Warn().Err(err).Str("agent_id", lower).Msg("throttle check failed, allowing attempt")
		} else if blocked {
			return "", nil, domain.ErrTooManyAttempts
		}
	}

	agent, err := s.agents.FindByAgentID(ctx, agentID)
	if err != nil {
		return "", nil, err
	}

	ok, err := s.vault.Verify(ctx, lower, secret)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		if s.throttle != nil {
			if err := s.throttle.Fail(ctx, lower); err != nil {
				s.log.Warn().Err(err).Str("agent_id", lower).Msg("throttle update failed")
			}
		}
		return "", nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, lower); err != nil {
			s.log.Warn().Err(err).Str("agent_id", lower).Msg("throttle reset failed")
		}
	}

	if err := s.sessions.SetAuthenticated(ctx, agent); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(agent)
	if err != nil {
		return "", nil, err
	}

	if s.activity != nil {
		s.activity.Enqueue(ports.ActivityEvent{
			AgentRecordID: agent.ID,
			Delta:         ports.StatsDelta{LastActive: s.now()},
			OccurredAt:    s.now(),
		})
	}

	return token, agent, nil
}

// Register creates a new agent plus its credential and opens a session.
// Either both records land or neither does: a failed credential write rolls
// the identity record back.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (string, *domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if input.AgentID == "" || input.Secret == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	lower := domain.NormalizeAgentID(input.AgentID)
	if lower == domain.ReservedAgentID {
		return "", nil, domain.ErrAgentIDTaken
	}

	if _, err := s.agents.FindByAgentID(ctx, input.AgentID); err == nil {
		return "", nil, domain.ErrAgentIDTaken
	} else if err != domain.ErrAgentNotFound {
		return "", nil, err
	}

	now := s.now()
	displayName := input.DisplayName
	if displayName == "" {
		displayName = input.AgentID
	}
	agent := &domain.Agent{
		ID:                    uuid.NewString(),
		AgentID:               input.AgentID,
		DisplayName:           displayName,
		Avatar:                input.Avatar,
		About:                 input.About,
		Roles:                 []string{},
		LastDisplayNameChange: now,
		Stats: domain.AgentStats{
			LastActive:           now,
			JoinDate:             now,
			AchievementsUnlocked: []string{},
		},
		Customization: domain.DefaultCustomization(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.agents.Insert(ctx, agent); err != nil {
		return "", nil, err
	}

	if err := s.vault.Set(ctx, lower, input.Secret); err != nil {
		// Roll the identity record back so no agent exists without its
		// credential.
		if rmErr := s.agents.Remove(ctx, agent.ID); rmErr != nil {
			s.log.Error().Err(rmErr).Str("id", agent.ID).Msg("rollback after credential write failure")
		}
		return "", nil, err
	}

	if err := s.sessions.SetAuthenticated(ctx, agent); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(agent)
	if err != nil {
		return "", nil, err
	}

	return token, agent, nil
}

// Logout ends the current session. Idempotent.
func (s *AuthService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Logout(ctx)
}

// Impersonate installs the target agent as the effective session identity.
// Requires an authenticated CEO session.
func (s *AuthService) Impersonate(ctx context.Context, targetID string) (*domain.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actual := s.sessions.Actual()
	if actual == nil {
		return nil, domain.ErrNotAuthenticated
	}

	target, err := s.agents.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.StartImpersonation(target); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("actual", actual.AgentID).
		Str("target", target.AgentID).
		Msg("impersonation started")
	return target, nil
}

// StopImpersonating restores the authenticated agent as effective identity.
func (s *AuthService) StopImpersonating(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions.Actual() == nil {
		return domain.ErrNotAuthenticated
	}
	s.sessions.StopImpersonation()
	return nil
}

// Session returns the current session snapshot.
func (s *AuthService) Session(_ context.Context) domain.SessionSnapshot {
	return s.sessions.Snapshot()
}

func (s *AuthService) generateToken(agent *domain.Agent) (string, error) {
	claims := jwt.MapClaims{
		"sub":          agent.ID,
		"agent_id":     agent.AgentID,
		"display_name": agent.DisplayName,
		"is_ceo":       agent.IsCEO,
		"is_guest":     agent.IsGuest,
		"exp":          s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
