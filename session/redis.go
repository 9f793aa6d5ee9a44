package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the shared [Cache] for horizontally scaled deployments: a
// session started on one instance is immediately visible to every other
// instance. Records are JSON-encoded with a TTL matching session expiry, and
// an index set tracks live session IDs for listing.
type RedisCache struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisCache creates a shared cache backed by the given Redis client.
// prefix sets the key namespace.
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "imp"
	}
	return &RedisCache{
		redis:  client,
		prefix: prefix,
	}
}

func (c *RedisCache) key(sessionID string) string {
	return c.prefix + ":" + sessionID
}

func (c *RedisCache) indexKey() string {
	return c.prefix + ":index"
}

// Put implements [Cache]. Already-expired sessions are not written.
func (c *RedisCache) Put(ctx context.Context, sess *Session) error {
	if sess == nil || sess.SessionID == "" {
		return nil
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	_, err = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.key(sess.SessionID), data, ttl)
		pipe.SAdd(ctx, c.indexKey(), sess.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Get implements [Cache].
func (c *RedisCache) Get(ctx context.Context, sessionID string) (*Session, bool, error) {
	data, err := c.redis.Get(ctx, c.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, false, err
	}
	sess.SessionID = sessionID
	return &sess, true, nil
}

// Remove implements [Cache].
func (c *RedisCache) Remove(ctx context.Context, sessionID string) (bool, error) {
	var delCmd *redis.IntCmd
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		delCmd = pipe.Del(ctx, c.key(sessionID))
		pipe.SRem(ctx, c.indexKey(), sessionID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return delCmd.Val() > 0, nil
}

// Touch implements [Cache]. The record TTL is preserved.
func (c *RedisCache) Touch(ctx context.Context, sessionID string, at time.Time) error {
	key := c.key(sessionID)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return err
	}
	if !at.After(sess.LastActivity) {
		return nil
	}
	sess.LastActivity = at

	updated, err := json.Marshal(&sess)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, key, updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// List implements [Cache]. Index entries whose records have expired are
// pruned as a side effect.
func (c *RedisCache) List(ctx context.Context) ([]*Session, error) {
	ids, err := c.redis.SMembers(ctx, c.indexKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if len(ids) == 0 {
		return []*Session{}, nil
	}

	pipe := c.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, c.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	sessions := make([]*Session, 0, len(ids))
	var stale []any
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, ids[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, cmdErr)
		}

		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, err
		}
		sess.SessionID = ids[i]
		sessions = append(sessions, &sess)
	}

	if len(stale) > 0 {
		_ = c.redis.SRem(ctx, c.indexKey(), stale...).Err()
	}
	return sessions, nil
}
