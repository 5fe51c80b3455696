// Package cache wraps the Redis instance shared with the authentication
// service. The journal only reads from it: session keys are written and
// expired by the auth service, and this side resolves bearer tokens to
// user ids. Computed metrics are never cached here or anywhere else.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"trading-journal/internal/config"
)

// ErrSessionNotFound is returned for tokens with no live session key,
// either never issued or already expired.
var ErrSessionNotFound = errors.New("session not found")

type Redis struct {
	client        *redis.Client
	sessionPrefix string
}

func New(cfg *config.Config) (*Redis, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Redis{
		client:        client,
		sessionPrefix: cfg.SessionPrefix,
	}, nil
}

// ResolveSession returns the user id a bearer token belongs to. The auth
// service stores either the raw user id or a small JSON document under
// the session key; both forms are accepted.
func (r *Redis) ResolveSession(ctx context.Context, token string) (string, error) {
	val, err := r.client.Get(ctx, r.sessionPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}

	var session struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal([]byte(val), &session); err == nil && session.UserID != "" {
		return session.UserID, nil
	}
	return val, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
