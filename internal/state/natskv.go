package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStore keeps drafts in a JetStream key-value bucket. Useful when the
// deployment already runs NATS and wants draft TTLs handled by the bucket.
type NATSStore struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

func NewNATSStore(ctx context.Context, natsURL, bucket string, ttl time.Duration) (*NATSStore, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("workbot-state"),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    ttl,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("open kv bucket %q: %w", bucket, err)
	}

	return &NATSStore{nc: nc, kv: kv}, nil
}

func (s *NATSStore) Get(ctx context.Context, sessionID string) (Draft, error) {
	entry, err := s.kv.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return Draft{}, ErrNotFound
		}
		return Draft{}, fmt.Errorf("get draft: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(entry.Value(), &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

func (s *NATSStore) Put(ctx context.Context, draft Draft) error {
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if _, err := s.kv.Put(ctx, draft.SessionID, raw); err != nil {
		return fmt.Errorf("put draft: %w", err)
	}
	return nil
}

func (s *NATSStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Purge(ctx, sessionID); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func (s *NATSStore) Close() error {
	s.nc.Close()
	return nil
}
