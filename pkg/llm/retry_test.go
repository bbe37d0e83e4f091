package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// instantTimer fires immediately and records every requested delay.
type instantTimer struct {
	c      chan time.Time
	delays *[]time.Duration
}

func (t *instantTimer) Start(d time.Duration) {
	*t.delays = append(*t.delays, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

var errRateLimited = errors.New("googleapi: Error 429: Resource exhausted")

type scriptedClient struct {
	errs  []error
	calls int
}

func (s *scriptedClient) next() (string, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return "", s.errs[s.calls-1]
	}
	return "ok", nil
}

func (s *scriptedClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	return s.next()
}

func (s *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return s.next()
}

func (s *scriptedClient) IsRateLimited(err error) bool { return matchesRateLimitText(err) }

func (s *scriptedClient) GetModelInfo() ModelInfo { return ModelInfo{Name: "scripted"} }

func newTestRetrying(inner Client, maxRetries int, delays *[]time.Duration) *RetryingClient {
	return NewRetryingClient(inner, RetryPolicy{
		MaxRetries:   maxRetries,
		InitialDelay: 2 * time.Second,
		NewTimer: func() backoff.Timer {
			return &instantTimer{delays: delays}
		},
	})
}

func TestRetryingClient_DoublesDelayUntilSuccess(t *testing.T) {
	var delays []time.Duration
	inner := &scriptedClient{errs: []error{errRateLimited, errRateLimited}}
	client := newTestRetrying(inner, 3, &delays)

	got, err := client.Chat(context.Background(), ChatRequest{Message: "hola"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if got != "ok" {
		t.Fatalf("Chat() = %q, want ok", got)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if fmt.Sprint(delays) != fmt.Sprint(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
}

func TestRetryingClient_ExhaustsRetries(t *testing.T) {
	var delays []time.Duration
	inner := &scriptedClient{errs: []error{errRateLimited, errRateLimited, errRateLimited, errRateLimited, errRateLimited}}
	client := newTestRetrying(inner, 3, &delays)

	_, err := client.Complete(context.Background(), "resume")
	if !errors.Is(err, errRateLimited) {
		t.Fatalf("error = %v, want last rate-limit error", err)
	}
	if inner.calls != 4 {
		t.Fatalf("calls = %d, want 4", inner.calls)
	}
	if len(delays) != 3 || delays[2] != 8*time.Second {
		t.Fatalf("delays = %v, want [2s 4s 8s]", delays)
	}
}

func TestRetryingClient_DoesNotRetryOtherErrors(t *testing.T) {
	var delays []time.Duration
	boom := errors.New("invalid API key")
	inner := &scriptedClient{errs: []error{boom}}
	client := newTestRetrying(inner, 3, &delays)

	_, err := client.Chat(context.Background(), ChatRequest{})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	if inner.calls != 1 || len(delays) != 0 {
		t.Fatalf("calls = %d delays = %v, want a single attempt", inner.calls, delays)
	}
}

func TestRetryingClient_ZeroRetries(t *testing.T) {
	var delays []time.Duration
	inner := &scriptedClient{errs: []error{errRateLimited}}
	client := newTestRetrying(inner, 0, &delays)

	if _, err := client.Chat(context.Background(), ChatRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1", inner.calls)
	}
}

func TestRetryingClient_OnRetryHook(t *testing.T) {
	var delays []time.Duration
	var attempts []int
	inner := &scriptedClient{errs: []error{errRateLimited}}
	client := NewRetryingClient(inner, RetryPolicy{
		MaxRetries:   2,
		InitialDelay: time.Second,
		NewTimer:     func() backoff.Timer { return &instantTimer{delays: &delays} },
		OnRetry: func(op string, attempt int, delay time.Duration, err error) {
			if op != "chat" {
				t.Errorf("op = %q, want chat", op)
			}
			attempts = append(attempts, attempt)
		},
	})

	if _, err := client.Chat(context.Background(), ChatRequest{}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(attempts) != 1 || attempts[0] != 1 {
		t.Fatalf("attempts = %v, want [1]", attempts)
	}
}

func TestRetryingClient_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &scriptedClient{errs: []error{errRateLimited, errRateLimited}}
	client := NewRetryingClient(inner, RetryPolicy{MaxRetries: 3, InitialDelay: time.Hour})

	_, err := client.Chat(ctx, ChatRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want 1", inner.calls)
	}
}
