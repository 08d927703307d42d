package flash

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is a one-shot notice carried across a redirect.
type Message struct {
	Kind string `json:"kind"` // "success" or "error"
	Text string `json:"text"`
}

// Store keeps flash messages in Redis, keyed per partner and scope.
// A message survives exactly one Pop, mirroring session-carried flags.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a flash store with the given retention.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

func key(scope, partnerID string) string {
	return "flash:" + scope + ":" + partnerID
}

// Set stores a flash message, replacing any pending one.
func (s *Store) Set(ctx context.Context, scope, partnerID string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(scope, partnerID), data, s.ttl).Err()
}

// Pop returns and clears the pending message, if any.
func (s *Store) Pop(ctx context.Context, scope, partnerID string) (*Message, error) {
	data, err := s.client.GetDel(ctx, key(scope, partnerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
