package chatinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/chat"
	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

const sessionTTL = 24 * time.Hour

// RedisSessionCache keeps recent session metadata with a TTL
type RedisSessionCache struct {
	client *redis.Client
}

// NewRedisSessionCache creates the cache over an existing client
func NewRedisSessionCache(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{client: client}
}

func sessionKey(id kernel.SessionID) string {
	return "chatstream:session:" + id.String()
}

// Touch stores the session metadata and refreshes its TTL
func (c *RedisSessionCache) Touch(ctx context.Context, meta chat.SessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(meta.SessionID), data, sessionTTL).Err()
}

// Get loads the session metadata; the second return is false on a miss
func (c *RedisSessionCache) Get(ctx context.Context, sessionID kernel.SessionID) (chat.SessionMeta, bool, error) {
	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chat.SessionMeta{}, false, nil
	}
	if err != nil {
		return chat.SessionMeta{}, false, err
	}

	var meta chat.SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return chat.SessionMeta{}, false, err
	}
	return meta, true, nil
}
