package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// RetryPolicy retries rate-limited calls with a doubling delay.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt. Zero disables retrying.
	MaxRetries   int
	InitialDelay time.Duration
	// NewTimer builds the timer used for one call. Nil means wall-clock time.
	NewTimer func() backoff.Timer
	// OnRetry observes every scheduled retry.
	OnRetry func(op string, attempt int, delay time.Duration, err error)
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = p.InitialDelay << uint(p.MaxRetries)
	b.MaxElapsedTime = 0
	b.Reset()

	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// RetryingClient decorates a Client so that rate-limited Chat and Complete
// calls are retried. Other failures are returned immediately, as is the last
// rate-limit error once the retries run out.
type RetryingClient struct {
	Client
	policy RetryPolicy
}

func NewRetryingClient(client Client, policy RetryPolicy) *RetryingClient {
	return &RetryingClient{Client: client, policy: policy}
}

func (c *RetryingClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	return c.do(ctx, "chat", func() (string, error) {
		return c.Client.Chat(ctx, req)
	})
}

func (c *RetryingClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.do(ctx, "complete", func() (string, error) {
		return c.Client.Complete(ctx, prompt)
	})
}

func (c *RetryingClient) do(ctx context.Context, op string, call func() (string, error)) (string, error) {
	var out string
	operation := func() error {
		res, err := call()
		if err == nil {
			out = res
			return nil
		}
		if c.Client.IsRateLimited(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	attempt := 0
	notify := func(err error, delay time.Duration) {
		attempt++
		log.Warn().
			Str("component", "llm").
			Str("op", op).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("rate limited, retrying")
		if c.policy.OnRetry != nil {
			c.policy.OnRetry(op, attempt, delay, err)
		}
	}

	var timer backoff.Timer
	if c.policy.NewTimer != nil {
		timer = c.policy.NewTimer()
	}
	if err := backoff.RetryNotifyWithTimer(operation, c.policy.backOff(ctx), notify, timer); err != nil {
		return "", err
	}
	return out, nil
}
