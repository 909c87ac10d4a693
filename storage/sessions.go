package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var (
	ErrSessionMissing = errors.New("session not found")
	ErrLocked         = errors.New("session locked")
)

// SessionStore keeps booking wizard state between requests.
type SessionStore interface {
	Load(ctx context.Context, id string, v interface{}) error
	Save(ctx context.Context, id string, v interface{}, ttl time.Duration) error
	// SaveExisting writes only while the session still exists and returns
	// ErrSessionMissing once it was deleted.
	SaveExisting(ctx context.Context, id string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// Lock takes the per-session submit lock. The returned func releases it
	// and is safe to call after the lock expired.
	Lock(ctx context.Context, id string, ttl time.Duration) (func(), error)
}

type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "booking:session:"
	}
	return &RedisSessionStore{client: client, prefix: prefix}
}

func (s *RedisSessionStore) key(id string) string     { return s.prefix + id }
func (s *RedisSessionStore) lockKey(id string) string { return s.prefix + id + ":lock" }

func (s *RedisSessionStore) Load(ctx context.Context, id string, v interface{}) error {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrSessionMissing
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (s *RedisSessionStore) Save(ctx context.Context, id string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), raw, ttl).Err()
}

func (s *RedisSessionStore) SaveExisting(ctx context.Context, id string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, s.key(id), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionMissing
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id), s.lockKey(id)).Err()
}

// deletes the lock only while it still carries our token
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *RedisSessionStore) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.lockKey(id), token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	key := s.lockKey(id)
	return func() {
		releaseLock.Run(context.Background(), s.client, []string{key}, token)
	}, nil
}
