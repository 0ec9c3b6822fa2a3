package state

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Options selects and configures a draft store backend.
type Options struct {
	// Backend is one of "memory", "postgres", "nats" or "auto".
	Backend     string
	DatabaseURL string
	NATSURL     string
	NATSBucket  string
	NATSTTL     time.Duration
}

// NewStore builds the configured draft store. "auto" prefers postgres, then
// NATS, then falls back to in-memory (drafts then do not survive restarts).
func NewStore(ctx context.Context, opts Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = "auto"
	}

	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, opts.DatabaseURL)
	case "nats":
		return NewNATSStore(ctx, opts.NATSURL, opts.NATSBucket, opts.NATSTTL)
	case "auto":
		if strings.TrimSpace(opts.DatabaseURL) != "" {
			return NewPostgresStore(ctx, opts.DatabaseURL)
		}
		if strings.TrimSpace(opts.NATSURL) != "" {
			return NewNATSStore(ctx, opts.NATSURL, opts.NATSBucket, opts.NATSTTL)
		}
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q (expected auto|memory|postgres|nats)", opts.Backend)
	}
}
