package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/redis/go-redis/v9"

	"github.com/HSousa1987/Lavandaria-sub001/internal/auth"
)

// DefaultRedisKeyPrefix namespaces session hashes.
const DefaultRedisKeyPrefix = "lavandaria:session:"

// touchScript moves expiry only when the hash still exists, so a refresh
// racing a logout never resurrects the session.
var touchScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'expires_at', ARGV[1])
redis.call('PEXPIREAT', KEYS[1], ARGV[2])
return 1
`)

// RedisBackend stores each session as a hash with a native expiry. Writes go
// through MULTI/EXEC or a Lua script so every operation is atomic per key.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBackend wraps an existing client. An empty prefix uses
// DefaultRedisKeyPrefix.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) key(tokenHash string) string {
	return b.prefix + tokenHash
}

// redisSession mirrors the hash fields.
type redisSession struct {
	PrincipalID   string    `mapstructure:"principal_id"`
	PrincipalType string    `mapstructure:"principal_type"`
	DisplayName   string    `mapstructure:"display_name"`
	ContactHandle string    `mapstructure:"contact_handle"`
	CreatedAt     time.Time `mapstructure:"created_at"`
	ExpiresAt     time.Time `mapstructure:"expires_at"`
}

func (b *RedisBackend) Put(ctx context.Context, rec *Record) error {
	key := b.key(rec.TokenHash)
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"principal_id":   rec.Principal.ID,
			"principal_type": string(rec.Principal.Type),
			"display_name":   rec.Principal.DisplayName,
			"contact_handle": rec.Principal.ContactHandle,
			"created_at":     rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			"expires_at":     rec.ExpiresAt.UTC().Format(time.RFC3339Nano),
		})
		pipe.PExpireAt(ctx, key, rec.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put session: %w", err)
	}
	return nil
}

func (b *RedisBackend) Get(ctx context.Context, tokenHash string) (*Record, error) {
	vals, err := b.client.HGetAll(ctx, b.key(tokenHash)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}

	var raw redisSession
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		Result:     &raw,
	})
	if err != nil {
		return nil, fmt.Errorf("redis session decoder: %w", err)
	}
	if err := dec.Decode(vals); err != nil {
		return nil, fmt.Errorf("decode redis session: %w", err)
	}
	if raw.PrincipalID == "" {
		return nil, ErrNotFound
	}

	return &Record{
		TokenHash: tokenHash,
		Principal: auth.Principal{
			ID:            raw.PrincipalID,
			Type:          auth.PrincipalType(raw.PrincipalType),
			DisplayName:   raw.DisplayName,
			ContactHandle: raw.ContactHandle,
		},
		CreatedAt: raw.CreatedAt,
		ExpiresAt: raw.ExpiresAt,
	}, nil
}

func (b *RedisBackend) Touch(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error) {
	n, err := touchScript.Run(ctx, b.client, []string{b.key(tokenHash)},
		expiresAt.UTC().Format(time.RFC3339Nano),
		expiresAt.UnixMilli(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis touch session: %w", err)
	}
	return n == 1, nil
}

func (b *RedisBackend) Delete(ctx context.Context, tokenHash string) error {
	if err := b.client.Del(ctx, b.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts expired hashes itself.
func (b *RedisBackend) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
