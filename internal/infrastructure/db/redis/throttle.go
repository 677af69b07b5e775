package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	throttleWindow = 15 * time.Minute
	throttleLimit  = 10
)

// LoginThrottle tracks consecutive failed login attempts per agent handle.
// Key format: login_fail:<agent_id_lower>
type LoginThrottle struct {
	client *redis.Client
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
func NewLoginThrottle(client *redis.Client) *LoginThrottle {
	return &LoginThrottle{client: client}
}

// Blocked reports whether the handle has exhausted its attempt budget within
// the current window.
func (t *LoginThrottle) Blocked(ctx context.Context, agentIDLower string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(agentIDLower)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n >= throttleLimit, nil
}

// Fail records one failed attempt and refreshes the window.
func (t *LoginThrottle) Fail(ctx context.Context, agentIDLower string) error {
	key := t.key(agentIDLower)
	if err := t.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("throttle incr: %w", err)
	}
	return t.client.Expire(ctx, key, throttleWindow).Err()
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, agentIDLower string) error {
	return t.client.Del(ctx, t.key(agentIDLower)).Err()
}

func (t *LoginThrottle) key(agentIDLower string) string {
	return "login_fail:" + agentIDLower
}
