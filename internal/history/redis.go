package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces the history lists in Redis.
const DefaultKeyPrefix = "carfit:history:"

// RedisConfig holds the Redis connection settings of the history store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisRepository keeps each session as a Redis list, newest entry first.
// The list is trimmed to length and expires ttl after its last append.
type RedisRepository struct {
	client *redis.Client
	prefix string
	length int
	ttl    time.Duration
}

// NewRedisRepository connects to Redis and checks the connection.
func NewRedisRepository(ctx context.Context, cfg RedisConfig, length int, ttl time.Duration) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	repo := newRedisRepository(client, cfg.Prefix, length, ttl)
	if err := repo.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return repo, nil
}

func newRedisRepository(client *redis.Client, prefix string, length int, ttl time.Duration) *RedisRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisRepository{client: client, prefix: prefix, length: length, ttl: ttl}
}

func (r *RedisRepository) key(session string) string {
	return r.prefix + session
}

// Append pushes e, trims the list and refreshes its expiry in one transaction.
func (r *RedisRepository) Append(ctx context.Context, session string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	key := r.key(session)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(r.length-1))
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// Last returns the newest entry of session.
func (r *RedisRepository) Last(ctx context.Context, session string) (Entry, error) {
	data, err := r.client.LIndex(ctx, r.key(session), 0).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("redis last: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("unmarshal history entry: %w", err)
	}
	return e, nil
}

// List returns the entries of session from oldest to newest.
func (r *RedisRepository) List(ctx context.Context, session string) ([]Entry, error) {
	items, err := r.client.LRange(ctx, r.key(session), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}

	entries := make([]Entry, len(items))
	for i, item := range items {
		if err := json.Unmarshal([]byte(item), &entries[len(items)-1-i]); err != nil {
			return nil, fmt.Errorf("unmarshal history entry: %w", err)
		}
	}
	return entries, nil
}

// Ping checks the connection.
func (r *RedisRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
