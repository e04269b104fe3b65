package draft

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/model"
)

const keyPrefix = "pitchscore:draft:"

// RedisStore keeps drafts in Redis as JSON values with a sliding TTL:
// Save and Load both reset the expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient builds a go-redis client with the module's timeouts.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// NewRedisStore wraps client. A non-positive ttl keeps drafts forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.client.Ping(ctx).Err(), "draft: redis ping")
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Load(ctx context.Context, key string) (*model.Draft, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	// Reading a draft restarts its TTL.
	var cmd *redis.StringCmd
	if s.ttl > 0 {
		cmd = s.client.GetEx(ctx, keyPrefix+key, s.ttl)
	} else {
		cmd = s.client.Get(ctx, keyPrefix+key)
	}
	raw, err := cmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "draft: redis get %s", key)
	}

	var d model.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, eris.Wrapf(err, "draft: decode %s", key)
	}
	return &d, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, d model.Draft) error {
	if err := checkKey(key); err != nil {
		return err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return eris.Wrapf(err, "draft: encode %s", key)
	}
	if err := s.client.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return eris.Wrapf(err, "draft: redis set %s", key)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return eris.Wrapf(err, "draft: redis del %s", key)
	}
	return nil
}
