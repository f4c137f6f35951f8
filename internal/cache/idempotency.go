package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyIdemOrderCreate maps a caller's Idempotency-Key to the response body of
// the order it created. Keys are scoped by caller id, then client key.
const KeyIdemOrderCreate = "idem:order:create:%s:%s"

// pendingMarker holds a key while the first request is in flight. Stored
// bodies are JSON objects and never equal it.
const pendingMarker = "pending"

const defaultPendingTTL = time.Minute

type KeyState int

const (
	// KeyReserved means the caller now owns the key and must Complete or Release it.
	KeyReserved KeyState = iota
	// KeyPending means another request with the same key has not finished.
	KeyPending
	// KeyCompleted means the key already has a stored response body.
	KeyCompleted
)

// IdempotencyStore remembers the outcome of a write so a retried request can
// be answered without repeating it.
type IdempotencyStore interface {
	Reserve(ctx context.Context, owner, key string) (KeyState, []byte, error)
	Complete(ctx context.Context, owner, key string, body []byte) error
	Release(ctx context.Context, owner, key string) error
}

// Commands is the subset of *redis.Client the store needs.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisIdempotencyStore struct {
	rdb        Commands
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewRedisIdempotencyStore(rdb Commands, ttl time.Duration) IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisIdempotencyStore{rdb: rdb, ttl: ttl, pendingTTL: defaultPendingTTL}
}

func idemKey(owner, key string) string {
	return fmt.Sprintf(KeyIdemOrderCreate, owner, key)
}

// Reserve claims key with a short-lived pending marker. The marker expires on
// its own if the owner dies before completing.
func (s *redisIdempotencyStore) Reserve(ctx context.Context, owner, key string) (KeyState, []byte, error) {
	k := idemKey(owner, key)
	ok, err := s.rdb.SetNX(ctx, k, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return KeyPending, nil, err
	}
	if ok {
		return KeyReserved, nil, nil
	}

	body, err := s.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between the two calls; the client can retry.
		return KeyPending, nil, nil
	}
	if err != nil {
		return KeyPending, nil, err
	}
	if string(body) == pendingMarker {
		return KeyPending, nil, nil
	}
	return KeyCompleted, body, nil
}

func (s *redisIdempotencyStore) Complete(ctx context.Context, owner, key string, body []byte) error {
	return s.rdb.Set(ctx, idemKey(owner, key), body, s.ttl).Err()
}

// Release drops a reservation whose request failed so the key can be reused.
func (s *redisIdempotencyStore) Release(ctx context.Context, owner, key string) error {
	return s.rdb.Del(ctx, idemKey(owner, key)).Err()
}
