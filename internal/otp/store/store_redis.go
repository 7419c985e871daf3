package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"turnstile/internal/otp/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
)

const challengeKeyPrefix = "otp:challenge:"

// incrAttemptsScript increments the attempt counter only while the challenge
// key still exists. A plain HINCRBY would resurrect an expired or deleted
// challenge as a TTL-less partial hash.
var incrAttemptsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
end
return -1
`)

// RedisStore persists OTP challenges as TTL'd Redis hashes. Redis expiry
// implements the time-based challenge lifecycle; HINCRBY gives the durable
// attempt counting the gate needs before comparing codes.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func challengeKey(email domain.Email) string {
	return challengeKeyPrefix + email.String()
}

// Put stores the challenge, replacing any previous challenge for the same
// email, and arms the expiry.
func (s *RedisStore) Put(ctx context.Context, ch models.Challenge) error {
	key := challengeKey(ch.Email)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"code_hash", ch.CodeHash,
		"expires_at", ch.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"attempts", ch.Attempts,
	)
	pipe.ExpireAt(ctx, key, ch.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, email domain.Email) (*models.Challenge, error) {
	fields, err := s.client.HGetAll(ctx, challengeKey(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("parse challenge expiry: %w", err)
	}
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("parse challenge attempts: %w", err)
	}

	return &models.Challenge{
		Email:     email,
		CodeHash:  fields["code_hash"],
		ExpiresAt: expiresAt,
		Attempts:  attempts,
	}, nil
}

// IncrementAttempts durably bumps the attempt counter and returns the new
// value. Returns sentinel.ErrNotFound when no live challenge exists.
func (s *RedisStore) IncrementAttempts(ctx context.Context, email domain.Email) (int, error) {
	n, err := incrAttemptsScript.Run(ctx, s.client, []string{challengeKey(email)}).Int()
	if err != nil {
		return 0, fmt.Errorf("increment challenge attempts: %w", err)
	}
	if n < 0 {
		return 0, sentinel.ErrNotFound
	}
	return n, nil
}

func (s *RedisStore) Delete(ctx context.Context, email domain.Email) error {
	if err := s.client.Del(ctx, challengeKey(email)).Err(); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}
