package state

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("draft not found")

// Store holds the in-flight draft for each chat session. Reads are directly
// consistent with the latest Put; no caching staleness is tolerated.
type Store interface {
	Get(ctx context.Context, sessionID string) (Draft, error)
	Put(ctx context.Context, draft Draft) error
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
