package store

import (
	"context"
	"sync"
	"time"

	"turnstile/internal/otp/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
)

// InMemoryStore is the process-local challenge store used in unit tests and
// single-instance development. Expiry is enforced lazily on access rather
// than by a reaper goroutine.
type InMemoryStore struct {
	mu         sync.Mutex
	challenges map[domain.Email]*models.Challenge
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{challenges: make(map[domain.Email]*models.Challenge)}
}

func (s *InMemoryStore) Put(_ context.Context, ch models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := ch
	s.challenges[ch.Email] = &c
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, email domain.Email) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.live(email)
	if ch == nil {
		return nil, sentinel.ErrNotFound
	}
	c := *ch
	return &c, nil
}

func (s *InMemoryStore) IncrementAttempts(_ context.Context, email domain.Email) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.live(email)
	if ch == nil {
		return 0, sentinel.ErrNotFound
	}
	ch.Attempts++
	return ch.Attempts, nil
}

func (s *InMemoryStore) Delete(_ context.Context, email domain.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, email)
	return nil
}

// live returns the stored challenge, dropping it if expired. Callers hold
// the lock.
func (s *InMemoryStore) live(email domain.Email) *models.Challenge {
	ch, ok := s.challenges[email]
	if !ok {
		return nil
	}
	if ch.Expired(time.Now()) {
		delete(s.challenges, email)
		return nil
	}
	return ch
}
