// File: services/intelligence/contextStore.go
package ai

import (
	"context"
	"encoding/json"
	"time"

	"kvrdesk/models"
	"kvrdesk/utils"

	"github.com/go-redis/redis/v8"
)

const sessionSnapshotPrefix = "kvr:session:"

// SnapshotStore receives the conversation state after every completed turn.
type SnapshotStore interface {
	Save(ctx context.Context, snap *models.ConversationSnapshot) error
}

type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) Get(ctx context.Context, sessionID string) (*models.ConversationSnapshot, error) {
	data, err := s.client.Get(ctx, sessionSnapshotPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, utils.NewAppError(utils.KindNotFound, "Session snapshot not found")
	}
	if err != nil {
		return nil, err
	}
	var snap models.ConversationSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *RedisContextStore) Save(ctx context.Context, snap *models.ConversationSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionSnapshotPrefix+snap.SessionID, b, s.ttl).Err()
}

func (s *RedisContextStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionSnapshotPrefix+sessionID).Err()
}
