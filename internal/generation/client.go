// Package generation sends assembled prompts to a hosted text-generation
// backend and returns the reply text.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"route-forge/internal/config"
	"route-forge/internal/prompt"
)

// Client generates text for a prompt payload
type Client interface {
	Generate(ctx context.Context, p *prompt.Payload) (string, error)
}

// ClientFunc adapts a function to the Client interface
type ClientFunc func(ctx context.Context, p *prompt.Payload) (string, error)

// Generate calls f
func (f ClientFunc) Generate(ctx context.Context, p *prompt.Payload) (string, error) {
	return f(ctx, p)
}

// ErrorKind classifies a generation failure
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindStatus      ErrorKind = "status"
	KindEmpty       ErrorKind = "empty"
	KindTimeout     ErrorKind = "timeout"
	KindCanceled    ErrorKind = "canceled"
	KindCircuitOpen ErrorKind = "circuit_open"
	KindConfig      ErrorKind = "config"
)

// Error is returned for every failed generation call
type Error struct {
	Kind       ErrorKind
	Profile    prompt.Profile
	Model      string
	StatusCode int // HTTP status for KindStatus
	Attempts   int
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "generation failed (%s", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " %d", e.StatusCode)
	}
	if e.Model != "" {
		fmt.Fprintf(&b, ", model %s", e.Model)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, ", %d attempts", e.Attempts)
	}
	b.WriteString(")")
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed:
// transport failures, timeouts, 429 and 5xx responses.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport, KindTimeout:
		return true
	case KindStatus:
		return e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode < 600)
	}
	return false
}

// Models maps profiles to configured model names
type Models struct {
	Primary   string
	Auxiliary string
}

// For returns the model name for profile
func (m Models) For(p prompt.Profile) string {
	if p == prompt.ProfileAuxiliary && m.Auxiliary != "" {
		return m.Auxiliary
	}
	return m.Primary
}

// NewProvider creates the backend adapter named by cfg.Provider
func NewProvider(ctx context.Context, cfg config.GenerationConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, &Error{Kind: KindConfig, Err: fmt.Errorf("no API key configured for provider %q", cfg.Provider)}
	}
	models := Models{Primary: cfg.PrimaryModel, Auxiliary: cfg.AuxiliaryModel}

	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAI(cfg.APIKey, cfg.BaseURL, models, cfg.Temperature, cfg.MaxTokens), nil
	case "gemini", "google":
		return NewGemini(ctx, cfg.APIKey, cfg.BaseURL, models, cfg.Temperature, cfg.MaxTokens)
	default:
		return nil, &Error{Kind: KindConfig, Err: fmt.Errorf("unsupported provider %q", cfg.Provider)}
	}
}

// New creates the configured provider wrapped with retry, timeout,
// pacing and the per-entry circuit breaker
func New(ctx context.Context, cfg config.GenerationConfig, observe CallObserver) (*Resilient, error) {
	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := OptionsFrom(cfg)
	opts.Observe = observe
	return NewResilient(provider, opts), nil
}

// classify turns a transport-level error into an *Error.
// statusOf extracts an HTTP status from provider-specific error types.
func classify(err error, profile prompt.Profile, model string, statusOf func(error) int) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}

	e := &Error{Profile: profile, Model: model, Err: err}
	switch {
	case errors.Is(err, context.Canceled):
		e.Kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = KindTimeout
	default:
		if code := statusOf(err); code != 0 {
			e.Kind = KindStatus
			e.StatusCode = code
			break
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			e.Kind = KindTimeout
		} else {
			e.Kind = KindTransport
		}
	}
	return e
}

func emptyReply(profile prompt.Profile, model string) *Error {
	return &Error{Kind: KindEmpty, Profile: profile, Model: model, Err: errors.New("backend returned empty content")}
}
