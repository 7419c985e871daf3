//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"turnstile/internal/otp/models"
	"turnstile/internal/otp/store"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
	"turnstile/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
	email domain.Email
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedisStore(s.redis.Client)

	email, err := domain.ParseEmail("visitor@example.com")
	s.Require().NoError(err)
	s.email = email
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) challenge(ttl time.Duration) models.Challenge {
	return models.Challenge{
		Email:     s.email,
		CodeHash:  "$2a$10$hash",
		ExpiresAt: time.Now().Add(ttl),
		Attempts:  0,
	}
}

func (s *RedisStoreSuite) TestPutGetRoundTrip() {
	ctx := context.Background()
	ch := s.challenge(time.Minute)

	s.Require().NoError(s.store.Put(ctx, ch))

	got, err := s.store.Get(ctx, s.email)
	s.Require().NoError(err)
	s.Equal(ch.CodeHash, got.CodeHash)
	s.Zero(got.Attempts)
	s.WithinDuration(ch.ExpiresAt, got.ExpiresAt, time.Millisecond)
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), s.email)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestPutReplacesAndResetsAttempts() {
	ctx := context.Background()

	s.Require().NoError(s.store.Put(ctx, s.challenge(time.Minute)))
	_, err := s.store.IncrementAttempts(ctx, s.email)
	s.Require().NoError(err)

	replacement := s.challenge(time.Minute)
	replacement.CodeHash = "$2a$10$other"
	s.Require().NoError(s.store.Put(ctx, replacement))

	got, err := s.store.Get(ctx, s.email)
	s.Require().NoError(err)
	s.Equal("$2a$10$other", got.CodeHash)
	s.Zero(got.Attempts, "replacing a challenge must reset the attempt budget")
}

func (s *RedisStoreSuite) TestIncrementAttemptsDurable() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, s.challenge(time.Minute)))

	for want := 1; want <= 3; want++ {
		got, err := s.store.IncrementAttempts(ctx, s.email)
		s.Require().NoError(err)
		s.Equal(want, got)
	}

	ch, err := s.store.Get(ctx, s.email)
	s.Require().NoError(err)
	s.Equal(3, ch.Attempts)
}

func (s *RedisStoreSuite) TestIncrementMissingChallenge() {
	_, err := s.store.IncrementAttempts(context.Background(), s.email)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestIncrementDoesNotResurrectDeletedChallenge() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, s.challenge(time.Minute)))
	s.Require().NoError(s.store.Delete(ctx, s.email))

	_, err := s.store.IncrementAttempts(ctx, s.email)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Get(ctx, s.email)
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "increment must not recreate the key")
}

func (s *RedisStoreSuite) TestExpiredChallengeDisappears() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, s.challenge(100*time.Millisecond)))

	time.Sleep(200 * time.Millisecond)

	_, err := s.store.Get(ctx, s.email)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestConcurrentIncrementsAreAtomic() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, s.challenge(time.Minute)))

	const goroutines = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.store.IncrementAttempts(ctx, s.email)
			s.NoError(err)
			mu.Lock()
			defer mu.Unlock()
			s.False(seen[n], "attempt counter value %d handed out twice", n)
			seen[n] = true
		}()
	}
	wg.Wait()

	s.Len(seen, goroutines)
}

func (s *RedisStoreSuite) TestDeleteIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(s.store.Put(ctx, s.challenge(time.Minute)))
	s.Require().NoError(s.store.Delete(ctx, s.email))
	s.Require().NoError(s.store.Delete(ctx, s.email))
}
