package oracle

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultRetryBackoff = 500 * time.Millisecond
)

// ScoreContext is the store/card pair handed to the model.
type ScoreContext struct {
	StoreName      string
	StoreCategory  string
	Keywords       []string
	CardID         int64
	CardName       string
	Issuer         string
	CardCategories []string
}

type Score struct {
	Score     int
	Rationale string
}

// Transport performs one completion round-trip and returns the raw model text.
type Transport interface {
	Complete(ctx context.Context, sc ScoreContext) (string, error)
}

type Config struct {
	APIKey       string
	Timeout      time.Duration
	RetryBackoff time.Duration
}

// Client wraps a Transport with a hard per-attempt timeout, one retry for
// transient failures and lenient response parsing.
type Client struct {
	apiKey    string
	transport Transport
	timeout   time.Duration
	backoff   time.Duration
}

func NewClient(cfg Config, transport Transport) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}

	return &Client{
		apiKey:    cfg.APIKey,
		transport: transport,
		timeout:   timeout,
		backoff:   backoff,
	}
}

// ScoreCard asks the model for a 0-100 score. Failures are always *Error.
func (c *Client) ScoreCard(ctx context.Context, sc ScoreContext) (Score, error) {
	if c == nil || c.apiKey == "" || c.transport == nil {
		observeCall(KindConfiguration)
		return Score{}, newError(KindConfiguration, ErrNotConfigured)
	}

	score, err := c.attempt(ctx, sc)
	if err == nil || !IsRetryable(err) {
		observeOutcome(err)
		return score, err
	}
	observeOutcome(err)

	timer := time.NewTimer(c.backoff)
	select {
	case <-ctx.Done():
		timer.Stop()
		cancelled := newError(KindCancelled, ctx.Err())
		observeOutcome(cancelled)
		return Score{}, cancelled
	case <-timer.C:
	}

	score, err = c.attempt(ctx, sc)
	observeOutcome(err)
	return score, err
}

// attempt races the transport against the per-call timeout and the caller's
// cancellation. An abandoned transport call finishes into a buffered channel.
func (c *Client) attempt(ctx context.Context, sc ScoreContext) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, newError(KindCancelled, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		text, err := c.transport.Complete(callCtx, sc)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Score{}, classify(ctx, callCtx, r.err)
		}
		return parseScore(r.text)
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return Score{}, newError(KindCancelled, err)
		}
		return Score{}, newError(KindTimeout, ErrTimeout)
	}
}

func classify(parent, call context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return newError(KindCancelled, perr)
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return newError(KindTimeout, ErrTimeout)
	}

	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}
	return newError(KindNetwork, err)
}
