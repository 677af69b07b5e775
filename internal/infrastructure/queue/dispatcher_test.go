package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/securenexus/identity-api/internal/core/ports"
)

// recordingService captures processed events in arrival order.
type recordingService struct {
	mu     sync.Mutex
	events []ports.ActivityEvent
}

func (s *recordingService) Process(_ context.Context, event ports.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingService) snapshot() []ports.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ActivityEvent{}, s.events...)
}

func waitForEvents(t *testing.T, svc *recordingService, want int) []ports.ActivityEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		got := svc.snapshot()
		if len(got) == want {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d processed events, got %d", want, len(got))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_PerAgentOrdering(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := &recordingService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	d.Start(ctx)

	// Interleave two agents; each agent's events carry a strictly
	// increasing counter.
	const perAgent = 25
	for i := 1; i <= perAgent; i++ {
		d.Enqueue(ports.ActivityEvent{
			AgentRecordID: "agent-a",
			Delta:         ports.StatsDelta{PostsCount: i},
		})
		d.Enqueue(ports.ActivityEvent{
			AgentRecordID: "agent-b",
			Delta:         ports.StatsDelta{PostsCount: i},
		})
	}

	got := waitForEvents(t, svc, 2*perAgent)

	seen := map[string]int{}
	for _, ev := range got {
		if ev.Delta.PostsCount != seen[ev.AgentRecordID]+1 {
			t.Fatalf("events for %s out of order: got counter %d after %d",
				ev.AgentRecordID, ev.Delta.PostsCount, seen[ev.AgentRecordID])
		}
		seen[ev.AgentRecordID] = ev.Delta.PostsCount
	}
	for agent, last := range seen {
		if last != perAgent {
			t.Fatalf("agent %s: expected %d events, saw %d", agent, perAgent, last)
		}
	}
}

func TestDispatcher_ShardStability(t *testing.T) {
	d := NewDispatcher(4, &recordingService{}, zerolog.Nop())

	for _, id := range []string{"agent-a", "agent-b", "rune-1234-5678"} {
		first := d.shardIndex(id)
		for i := 0; i < 10; i++ {
			if got := d.shardIndex(id); got != first {
				t.Fatalf("shard for %s drifted: %d then %d", id, first, got)
			}
		}
	}
}

func TestDispatcher_DefaultWorkerCount(t *testing.T) {
	d := NewDispatcher(0, &recordingService{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers for non-positive count, got %d", defaultWorkers, len(d.workers))
	}
}
