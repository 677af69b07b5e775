package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/securenexus/identity-api/internal/core/ports"
)

type activityService struct {
	agents ports.AgentRepository
	log    zerolog.Logger
}

// NewActivityService returns an ActivityService that applies counter deltas
// to the identity store.
func NewActivityService(agents ports.AgentRepository, log zerolog.Logger) ports.ActivityService {
	return &activityService{agents: agents, log: log}
}

// Process applies a single activity event. Events without an agent record id
// are dropped.
func (s *activityService) Process(ctx context.Context, in ports.ActivityEvent) error {
	if in.AgentRecordID == "" {
		return nil
	}

	if err := s.agents.UpdateStats(ctx, in.AgentRecordID, in.Delta); err != nil {
		return fmt.Errorf("apply activity: %w", err)
	}

	s.log.Debug().
		Str("agent", in.AgentRecordID).
		Time("occurred_at", in.OccurredAt).
		Msg("activity applied")
	return nil
}
