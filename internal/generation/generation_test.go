package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"route-forge/internal/config"
	"route-forge/internal/model"
	"route-forge/internal/prompt"
)

func payload(profile prompt.Profile) *prompt.Payload {
	return &prompt.Payload{Stage: model.StageRoute, Profile: profile, System: "sys", User: "user"}
}

// scripted returns the queued replies in order
type scripted struct {
	replies []reply
	calls   int
}

type reply struct {
	text string
	err  error
}

func (s *scripted) Generate(ctx context.Context, p *prompt.Payload) (string, error) {
	r := s.replies[len(s.replies)-1]
	if s.calls < len(s.replies) {
		r = s.replies[s.calls]
	}
	s.calls++
	return r.text, r.err
}

func status(code int) error {
	return &Error{Kind: KindStatus, StatusCode: code, Err: errors.New(http.StatusText(code))}
}

func newTestResilient(next Client, opts Options) *Resilient {
	r := NewResilient(next, opts)
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func TestRetriesTransientFailures(t *testing.T) {
	next := &scripted{replies: []reply{
		{err: status(503)},
		{err: status(429)},
		{err: &Error{Kind: KindTransport, Err: errors.New("connection reset")}},
		{text: "router.get('/users')"},
	}}
	var observed []int
	r := newTestResilient(next, Options{
		MaxRetries: 3,
		Observe: func(_ context.Context, _ *prompt.Payload, attempt int, _ error) {
			observed = append(observed, attempt)
		},
	})

	text, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.NoError(t, err)
	assert.Equal(t, "router.get('/users')", text)
	assert.Equal(t, 4, next.calls)
	assert.Equal(t, []int{1, 2, 3, 4}, observed)
}

func TestRetriesAreBounded(t *testing.T) {
	next := &scripted{replies: []reply{{err: status(500)}}}
	r := newTestResilient(next, Options{MaxRetries: 2})

	_, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindStatus, gerr.Kind)
	assert.Equal(t, 500, gerr.StatusCode)
	assert.Equal(t, 3, gerr.Attempts)
	assert.Equal(t, 3, next.calls)
}

func TestNoRetryOnPermanentFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply reply
		kind  ErrorKind
	}{
		{"bad request", reply{err: status(400)}, KindStatus},
		{"unauthorized", reply{err: status(401)}, KindStatus},
		{"empty content", reply{text: "  \n"}, KindEmpty},
		{"empty after fences", reply{text: "```js\n```"}, KindEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &scripted{replies: []reply{tt.reply}}
			r := newTestResilient(next, Options{MaxRetries: 3, StripFences: true})

			_, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))

			var gerr *Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.kind, gerr.Kind)
			assert.Equal(t, 1, next.calls)
		})
	}
}

func TestBreakerOpensAndResets(t *testing.T) {
	next := &scripted{replies: []reply{{err: status(400)}}}
	r := newTestResilient(next, Options{BreakerThreshold: 2})

	for i := 0; i < 2; i++ {
		_, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))
		require.Error(t, err)
	}
	assert.True(t, r.Open())

	_, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindCircuitOpen, gerr.Kind)
	assert.Equal(t, 2, next.calls, "open breaker does not call the backend")

	r.Reset()
	assert.False(t, r.Open())
	_, err = r.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindStatus, gerr.Kind)
}

func TestSuccessClosesBreaker(t *testing.T) {
	next := &scripted{replies: []reply{{err: status(400)}, {text: "ok"}, {err: status(400)}}}
	r := newTestResilient(next, Options{BreakerThreshold: 2})

	_, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.Error(t, err)
	_, err = r.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.NoError(t, err)
	_, err = r.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.Error(t, err)
	assert.False(t, r.Open())
}

func TestBreakerStopsRetries(t *testing.T) {
	next := &scripted{replies: []reply{{err: status(503)}}}
	r := newTestResilient(next, Options{MaxRetries: 4, BreakerThreshold: 2})

	_, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindCircuitOpen, gerr.Kind)
	assert.Equal(t, 2, gerr.Attempts)
	assert.Equal(t, 2, next.calls)
	assert.Contains(t, err.Error(), "status 503")
	assert.True(t, r.Open())

	_, err = r.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindCircuitOpen, gerr.Kind)
	assert.Equal(t, 2, next.calls)
}

func TestPerAttemptTimeout(t *testing.T) {
	slow := ClientFunc(func(ctx context.Context, p *prompt.Payload) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := newTestResilient(slow, Options{Timeout: 10 * time.Millisecond})

	_, err := r.Generate(context.Background(), payload(prompt.ProfilePrimary))

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindTimeout, gerr.Kind)
	assert.True(t, gerr.Retryable())
}

func TestCanceledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	next := ClientFunc(func(context.Context, *prompt.Payload) (string, error) {
		cancel()
		return "", status(503)
	})
	r := newTestResilient(next, Options{MaxRetries: 5})

	_, err := r.Generate(ctx, payload(prompt.ProfilePrimary))

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindCanceled, gerr.Kind)
	assert.Equal(t, 1, gerr.Attempts)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```js\nconst a = 1;\n```", "const a = 1;\n"},
		{"```\n{\"openapi\": \"3.0.0\"}\n```\n", "{\"openapi\": \"3.0.0\"}\n"},
		{"const a = 1;\n", "const a = 1;\n"},
		{"Here you go:\n```js\nx\n```", "Here you go:\n```js\nx\n```"},
		{"```js\na\n```\nmore\n```js\nb\n```", "```js\na\n```\nmore\n```js\nb\n```"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFences(tt.in), tt.in)
	}
}

func TestBackoffDelay(t *testing.T) {
	for attempt := 0; attempt < 30; attempt++ {
		d := backoffDelay(100*time.Millisecond, attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 30*time.Second)
	}
	assert.Less(t, backoffDelay(0, 0), 50*time.Millisecond)
}

func TestErrorRetryable(t *testing.T) {
	assert.True(t, (&Error{Kind: KindStatus, StatusCode: 502}).Retryable())
	assert.True(t, (&Error{Kind: KindStatus, StatusCode: 429}).Retryable())
	assert.False(t, (&Error{Kind: KindStatus, StatusCode: 404}).Retryable())
	assert.False(t, (&Error{Kind: KindEmpty}).Retryable())
	assert.False(t, (&Error{Kind: KindCircuitOpen}).Retryable())
}

func TestClassifyProviderErrors(t *testing.T) {
	e := classify(&openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}, prompt.ProfilePrimary, "gpt-4o-mini", openAIStatus)
	assert.Equal(t, KindStatus, e.Kind)
	assert.Equal(t, 503, e.StatusCode)
	assert.Equal(t, "gpt-4o-mini", e.Model)

	e = classify(genai.APIError{Code: 429, Message: "quota"}, prompt.ProfileAuxiliary, "gemini-2.5-flash", geminiStatus)
	assert.Equal(t, KindStatus, e.Kind)
	assert.Equal(t, 429, e.StatusCode)

	e = classify(context.DeadlineExceeded, prompt.ProfilePrimary, "m", openAIStatus)
	assert.Equal(t, KindTimeout, e.Kind)

	e = classify(errors.New("dial tcp: connection refused"), prompt.ProfilePrimary, "m", openAIStatus)
	assert.Equal(t, KindTransport, e.Kind)
}

func TestModelsFor(t *testing.T) {
	m := Models{Primary: "gpt-4o-mini", Auxiliary: "gpt-3.5-turbo"}
	assert.Equal(t, "gpt-4o-mini", m.For(prompt.ProfilePrimary))
	assert.Equal(t, "gpt-3.5-turbo", m.For(prompt.ProfileAuxiliary))
	assert.Equal(t, "gpt-4o-mini", Models{Primary: "gpt-4o-mini"}.For(prompt.ProfileAuxiliary))
}

func TestNewProviderConfigErrors(t *testing.T) {
	_, err := NewProvider(context.Background(), config.GenerationConfig{Provider: "openai"})
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindConfig, gerr.Kind)

	_, err = NewProvider(context.Background(), config.GenerationConfig{Provider: "bard", APIKey: "k"})
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestOpenAIAdapter(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		if got.Model == "gpt-3.5-turbo" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"module.exports = router;"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", srv.URL+"/v1", Models{Primary: "gpt-4o-mini", Auxiliary: "gpt-3.5-turbo"}, 0.2, 512)

	text, err := c.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.NoError(t, err)
	assert.Equal(t, "module.exports = router;", text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Content)

	_, err = c.Generate(context.Background(), payload(prompt.ProfileAuxiliary))
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindStatus, gerr.Kind)
	assert.Equal(t, 503, gerr.StatusCode)
	assert.Equal(t, "gpt-3.5-turbo", gerr.Model)
}

func TestOpenAIEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", srv.URL+"/v1", Models{Primary: "gpt-4o-mini"}, 0, 0)
	_, err := c.Generate(context.Background(), payload(prompt.ProfilePrimary))

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindEmpty, gerr.Kind)
}

func TestGeminiAdapter(t *testing.T) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role"`
		Parts []part `json:"parts"`
	}
	var got struct {
		SystemInstruction content   `json:"systemInstruction"`
		Contents          []content `json:"contents"`
	}
	var paths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "gemini-flash"):
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`))
		case len(got.Contents) > 0 && len(got.Contents[0].Parts) > 0 && got.Contents[0].Parts[0].Text == "nothing":
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]}}]}`))
		default:
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"module.exports = router;"}]}}]}`))
		}
	}))
	defer srv.Close()

	c, err := NewGemini(context.Background(), "test-key", srv.URL, Models{Primary: "gemini-pro", Auxiliary: "gemini-flash"}, 0.2, 512)
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), payload(prompt.ProfilePrimary))
	require.NoError(t, err)
	assert.Equal(t, "module.exports = router;", text)
	require.Len(t, paths, 1)
	assert.True(t, strings.HasSuffix(paths[0], "models/gemini-pro:generateContent"), paths[0])
	require.Len(t, got.SystemInstruction.Parts, 1)
	assert.Equal(t, "sys", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "user", got.Contents[0].Parts[0].Text)

	empty := payload(prompt.ProfilePrimary)
	empty.User = "nothing"
	_, err = c.Generate(context.Background(), empty)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindEmpty, gerr.Kind)
	assert.Equal(t, "gemini-pro", gerr.Model)

	_, err = c.Generate(context.Background(), payload(prompt.ProfileAuxiliary))
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, KindStatus, gerr.Kind)
	assert.Equal(t, 503, gerr.StatusCode)
	assert.Equal(t, "gemini-flash", gerr.Model)
	assert.True(t, gerr.Retryable())
}
