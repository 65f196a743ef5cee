package generation

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"route-forge/internal/config"
	"route-forge/internal/logger"
	"route-forge/internal/prompt"
)

// CallObserver is notified after every backend attempt; err is nil on success
type CallObserver func(ctx context.Context, p *prompt.Payload, attempt int, err error)

// Options controls the Resilient decorator
type Options struct {
	MaxRetries        int           // retries after the first attempt
	RetryDelay        time.Duration // backoff base
	Timeout           time.Duration // per attempt; 0 disables
	BreakerThreshold  int           // consecutive failed attempts before the breaker opens; 0 disables
	RequestsPerMinute int           // 0 disables pacing
	StripFences       bool
	Observe           CallObserver
}

// OptionsFrom maps generation config to decorator options
func OptionsFrom(cfg config.GenerationConfig) Options {
	return Options{
		MaxRetries:        cfg.MaxRetries,
		RetryDelay:        cfg.RetryDelay,
		Timeout:           cfg.Timeout,
		BreakerThreshold:  cfg.BreakerThreshold,
		RequestsPerMinute: cfg.RequestsPerMinute,
		StripFences:       cfg.StripFences,
	}
}

// Resilient wraps a Client with bounded retry, a per-attempt timeout,
// request pacing and a circuit breaker scoped to one specification entry.
// It is not safe for concurrent use.
type Resilient struct {
	next    Client
	opts    Options
	limiter *rate.Limiter

	failures int
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewResilient wraps next
func NewResilient(next Client, opts Options) *Resilient {
	r := &Resilient{
		next:  next,
		opts:  opts,
		sleep: sleepContext,
	}
	if opts.RequestsPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return r
}

// Reset closes the breaker. Called at the start of every entry.
func (r *Resilient) Reset() {
	r.failures = 0
}

// Open reports whether the breaker is open
func (r *Resilient) Open() bool {
	return r.opts.BreakerThreshold > 0 && r.failures >= r.opts.BreakerThreshold
}

// Generate calls the wrapped client, retrying transient failures. Every
// failed attempt counts toward the breaker, so retries stop once it opens.
func (r *Resilient) Generate(ctx context.Context, p *prompt.Payload) (string, error) {
	if r.Open() {
		return "", &Error{
			Kind:    KindCircuitOpen,
			Profile: p.Profile,
			Err:     fmt.Errorf("%d consecutive failed attempts for this entry", r.failures),
		}
	}

	for attempt := 0; ; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return "", &Error{Kind: KindCanceled, Profile: p.Profile, Attempts: attempt, Err: err}
			}
		}

		text, err := r.attempt(ctx, p)
		if r.opts.Observe != nil {
			r.opts.Observe(ctx, p, attempt+1, err)
		}
		if err == nil {
			r.failures = 0
			return text, nil
		}
		r.failures++

		gerr := asError(err, p.Profile)
		gerr.Attempts = attempt + 1

		if ctx.Err() != nil {
			gerr.Kind = KindCanceled
			return "", gerr
		}
		if !gerr.Retryable() || attempt >= r.opts.MaxRetries {
			return "", gerr
		}
		if r.Open() {
			return "", &Error{
				Kind:     KindCircuitOpen,
				Profile:  gerr.Profile,
				Model:    gerr.Model,
				Attempts: gerr.Attempts,
				Err:      fmt.Errorf("%d consecutive failed attempts for this entry: %w", r.failures, gerr),
			}
		}

		delay := backoffDelay(r.opts.RetryDelay, attempt)
		logger.Warn("%s call failed (attempt %d/%d): %v; retrying in %s",
			p.Stage, attempt+1, r.opts.MaxRetries+1, err, delay.Round(time.Millisecond))
		if err := r.sleep(ctx, delay); err != nil {
			gerr.Kind = KindCanceled
			gerr.Err = err
			return "", gerr
		}
	}
}

func (r *Resilient) attempt(ctx context.Context, p *prompt.Payload) (string, error) {
	callCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	text, err := r.next.Generate(callCtx, p)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			gerr := asError(err, p.Profile)
			gerr.Kind = KindTimeout
			gerr.Err = fmt.Errorf("no reply within %s: %w", r.opts.Timeout, err)
			return "", gerr
		}
		return "", err
	}

	if r.opts.StripFences {
		text = StripFences(text)
	}
	if strings.TrimSpace(text) == "" {
		return "", emptyReply(p.Profile, "")
	}
	return text, nil
}

func asError(err error, profile prompt.Profile) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		cp := *gerr
		return &cp
	}
	return classify(err, profile, "", func(error) int { return 0 })
}

// backoffDelay returns base * 2^attempt capped at 30s, with full jitter
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if attempt > 20 {
		attempt = 20
	}
	d := base * time.Duration(1<<attempt)
	const maxBackoff = 30 * time.Second
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(d)))
	if err != nil {
		return d
	}
	return time.Duration(n.Int64())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
