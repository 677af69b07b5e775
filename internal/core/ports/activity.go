package ports

import (
	"context"
	"time"
)

// ActivityEvent is a single counter update for an agent, queued for
// asynchronous application.
type ActivityEvent struct {
	AgentRecordID string
	Delta         StatsDelta
	OccurredAt    time.Time
}

// ActivityService applies queued activity events to the identity store.
type ActivityService interface {
	Process(ctx context.Context, event ActivityEvent) error
}
