package contact

import (
	"context"
	"errors"
	"sync"
	"time"

	"contact-relay-go/internal/captcha"
	"contact-relay-go/internal/mailer"
	"contact-relay-go/internal/token"
)

type fakeBroker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeBroker) Token(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "access-token", nil
}

func (f *fakeBroker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSender struct {
	mu    sync.Mutex
	calls int
	token string
	last  *mailer.Message
	err   error
}

func (f *fakeSender) Send(_ context.Context, accessToken string, msg *mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.token = accessToken
	f.last = msg
	return f.err
}

func (f *fakeSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// brokenStore fails every operation.
type brokenStore struct {
	mu   sync.Mutex
	puts int
}

var errStoreDown = errors.New("store unavailable")

func (b *brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errStoreDown
}

func (b *brokenStore) Put(context.Context, string, string, time.Duration) error {
	b.mu.Lock()
	b.puts++
	b.mu.Unlock()
	return errStoreDown
}

func (b *brokenStore) Ping(context.Context) error { return errStoreDown }
func (b *brokenStore) Close() error               { return nil }

// slowStore blocks puts until the context expires.
type slowStore struct {
	brokenStore
}

func (s *slowStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (s *slowStore) Put(ctx context.Context, _, _ string, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

type fakeCaptcha struct {
	err error
}

func (f *fakeCaptcha) Verify(context.Context, string, string) error { return f.err }

var (
	_ token.Broker     = (*fakeBroker)(nil)
	_ mailer.Sender    = (*fakeSender)(nil)
	_ captcha.Verifier = (*fakeCaptcha)(nil)
)
