// Package session keeps the upstream screener cookies of logged-in users,
// keyed by an opaque session id handed to the client.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trogers1052/stock-insights/internal/config"
)

// ErrNotFound is returned when a session id is unknown or has expired
var ErrNotFound = errors.New("session not found")

// Entry is one logged-in upstream session
type Entry struct {
	ID        string    `json:"id"`
	Cookie    string    `json:"cookie"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the session registry used by the screener service
type Store interface {
	Get(ctx context.Context, id string) (Entry, error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id string) error
}

// NewID returns a random 256-bit session id, hex encoded
func NewID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// New builds the store selected by cfg.Backend. The redis client is only
// required for the redis backend.
func New(cfg config.SessionConfig, client *redis.Client) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "redis":
		if client == nil {
			return nil, errors.New("redis session backend requires a redis client")
		}
		return NewRedisStore(client, cfg.KeyPrefix, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Backend)
	}
}
