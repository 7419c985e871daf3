package notify

import (
	"context"
	"sync"

	"turnstile/pkg/domain"
)

// Recorded is a captured message for test assertions.
type Recorded struct {
	To      domain.Email
	Subject string
	Body    string
}

// FakeSender records messages and can be told to fail, for exercising the
// OTP gate's rollback path.
type FakeSender struct {
	mu       sync.Mutex
	messages []Recorded
	failWith error
}

func NewFakeSender() *FakeSender { return &FakeSender{} }

// FailWith makes every subsequent Send return err (nil restores success).
func (f *FakeSender) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *FakeSender) Send(_ context.Context, to domain.Email, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.messages = append(f.messages, Recorded{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of everything sent so far.
func (f *FakeSender) Messages() []Recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Recorded{}, f.messages...)
}
