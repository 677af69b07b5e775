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

const subscriberBuffer = 8

// SessionManager owns the single current session: logged-out, authenticated
// as an agent, or guest, optionally with an impersonation overlay on top.
//
// The overlay is the effective identity exposed to collaborators while the
// real authenticated agent stays underneath for privilege checks. Base state
// is persisted through a SessionStore and rehydrated on startup; the overlay
// never survives a restart.
type SessionManager struct {
	store ports.SessionStore
	log   zerolog.Logger

	mu      sync.RWMutex
	kind    domain.SessionKind
	current *domain.Agent
	overlay *domain.Agent
	subs    []chan domain.SessionSnapshot
}

func NewSessionManager(store ports.SessionStore, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		store: store,
		log:   log,
		kind:  domain.SessionNone,
	}
}

// Rehydrate restores the last persisted session. A corrupt descriptor, or
// one pointing at an agent that no longer exists, is discarded and the
// session resets to logged-out; startup never fails on bad session state.
func (m *SessionManager) Rehydrate(ctx context.Context, agents ports.AgentRepository) error {
	desc, err := m.store.Load(ctx)
	if errors.Is(err, domain.ErrCorruptState) {
		m.log.Warn().Msg("discarding corrupt persisted session")
		_ = m.store.Clear(ctx)
		return nil
	}
	if err != nil {
		return err
	}
	if desc == nil {
		return nil
	}

	switch desc.Kind {
	case domain.SessionAuthenticated:
		agent, err := agents.FindByAgentID(ctx, desc.AgentID)
		if errors.Is(err, domain.ErrAgentNotFound) {
			m.log.Warn().Str("agent_id", desc.AgentID).Msg("persisted session references deleted agent")
			_ = m.store.Clear(ctx)
			return nil
		}
		if err != nil {
			return err
		}
		m.set(domain.SessionAuthenticated, agent)
	case domain.SessionGuest:
		m.set(domain.SessionGuest, domain.GuestAgent(time.Now().UTC()))
	default:
		_ = m.store.Clear(ctx)
	}
	return nil
}

// SetAuthenticated opens an authenticated session for agent. The descriptor
// is persisted before the in-memory state changes so a failed write leaves
// the session untouched.
func (m *SessionManager) SetAuthenticated(ctx context.Context, agent *domain.Agent) error {
	desc := domain.SessionDescriptor{Kind: domain.SessionAuthenticated, AgentID: agent.AgentID}
	if err := m.store.Save(ctx, desc); err != nil {
		return err
	}
	m.set(domain.SessionAuthenticated, agent)
	return nil
}

// SetGuest opens a guest session. The guest agent is never written to the
// identity store; only the descriptor kind is persisted.
func (m *SessionManager) SetGuest(ctx context.Context, guest *domain.Agent) error {
	if err := m.store.Save(ctx, domain.SessionDescriptor{Kind: domain.SessionGuest}); err != nil {
		return err
	}
	m.set(domain.SessionGuest, guest)
	return nil
}

// Logout ends the session and clears any impersonation overlay. Calling it
// with no active session is a no-op.
func (m *SessionManager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.kind = domain.SessionNone
	m.current = nil
	m.overlay = nil
	m.mu.Unlock()
	m.notify()
	return nil
}

// StartImpersonation installs target as the effective identity. Only an
// authenticated agent with the CEO flag may impersonate.
func (m *SessionManager) StartImpersonation(target *domain.Agent) error {
	m.mu.Lock()
	if m.kind != domain.SessionAuthenticated || m.current == nil || !m.current.IsCEO {
		m.mu.Unlock()
		return domain.ErrForbidden
	}
	m.overlay = target
	m.mu.Unlock()
	m.notify()
	return nil
}

// StopImpersonation clears the overlay, restoring the authenticated agent as
// the effective identity. No-op when nothing is overlaid.
func (m *SessionManager) StopImpersonation() {
	m.mu.Lock()
	changed := m.overlay != nil
	m.overlay = nil
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// Refresh swaps in an updated copy of the session agent after a profile
// mutation so collaborators observe current data.
func (m *SessionManager) Refresh(agent *domain.Agent) {
	m.mu.Lock()
	changed := false
	if m.current != nil && m.current.ID == agent.ID {
		m.current = agent
		changed = true
	}
	if m.overlay != nil && m.overlay.ID == agent.ID {
		m.overlay = agent
		changed = true
	}
	m.mu.Unlock()
	if changed {
		m.notify()
	}
}

// Snapshot returns the externally visible session view.
func (m *SessionManager) Snapshot() domain.SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := domain.SessionSnapshot{
		Kind:          m.kind,
		Actual:        m.current,
		Impersonating: m.overlay != nil,
	}
	if m.overlay != nil {
		snap.Effective = m.overlay
	} else {
		snap.Effective = m.current
	}
	return snap
}

// Effective returns the identity the rest of the system should observe, or
// nil when logged out.
func (m *SessionManager) Effective() *domain.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.overlay != nil {
		return m.overlay
	}
	return m.current
}

// Actual returns the non-overlay identity privilege checks run against.
func (m *SessionManager) Actual() *domain.Agent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe registers a collaborator for session-change notifications. Each
// change delivers a snapshot; slow subscribers miss intermediate states
// rather than blocking transitions.
func (m *SessionManager) Subscribe() <-chan domain.SessionSnapshot {
	ch := make(chan domain.SessionSnapshot, subscriberBuffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *SessionManager) set(kind domain.SessionKind, agent *domain.Agent) {
	m.mu.Lock()
	m.kind = kind
	m.current = agent
	m.overlay = nil
	m.mu.Unlock()
	m.notify()
}

func (m *SessionManager) notify() {
	snap := m.Snapshot()
	m.mu.RLock()
	subs := m.subs
	m.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
