package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/marcobahe/quiz-maker-fullfunnel-sub001/pkg/domain"
)

const (
	DefaultMaxAttempts = 5
	DefaultTimeout     = 10 * time.Second

	// HeaderDeliveryID carries a per-submission id receivers can use to
	// discard retried duplicates.
	HeaderDeliveryID = "X-Quizflow-Delivery"
)

var tracer = otel.Tracer("quizflow/dispatch")

// StatusError is returned for a non-2xx webhook response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded %d: %s", e.Code, e.Body)
}

// Webhook POSTs each submission as JSON. Server errors, 429 and transport
// failures are retried with exponential backoff; other 4xx are final.
type Webhook struct {
	url         string
	client      *http.Client
	limiter     *rate.Limiter
	maxAttempts uint
	initial     time.Duration
	headers     http.Header
	logger      *slog.Logger
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.client = c
		}
	}
}

// WithRateLimit caps outgoing requests per second, retries included.
// Zero disables the limit.
func WithRateLimit(perSecond float64, burst int) WebhookOption {
	return func(w *Webhook) {
		if perSecond <= 0 {
			w.limiter = nil
			return
		}
		w.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithMaxAttempts sets the number of tries, the first one included.
func WithMaxAttempts(n int) WebhookOption {
	return func(w *Webhook) {
		if n > 0 {
			w.maxAttempts = uint(n)
		}
	}
}

// WithInitialBackoff sets the first retry interval.
func WithInitialBackoff(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			w.initial = d
		}
	}
}

// WithHeader adds a header to every request, e.g. an auth token.
func WithHeader(key, value string) WebhookOption {
	return func(w *Webhook) {
		w.headers.Add(key, value)
	}
}

// WithWebhookLogger sets the logger for retries.
func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(w *Webhook) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWebhook creates a deliverer posting to url.
func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		url:         url,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		initial:     backoff.DefaultInitialInterval,
		headers:     http.Header{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Deliver sends sub, retrying transient failures. Every attempt carries
// the same delivery id.
func (w *Webhook) Deliver(ctx context.Context, sub domain.Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}
	deliveryID := uuid.NewString()

	ctx, span := tracer.Start(ctx, "dispatch.webhook",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("quizflow.run_id", sub.RunID),
			attribute.String("quizflow.quiz_id", sub.QuizID),
			attribute.String("quizflow.delivery_id", deliveryID),
		),
	)
	defer span.End()

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = w.initial

	attempts := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		return struct{}{}, w.post(ctx, body, deliveryID, attempts)
	},
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(w.maxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			w.logger.Warn("webhook attempt failed", "run", sub.RunID, "attempt", attempts, "retry_in", next, "err", err)
		}),
	)
	span.SetAttributes(attribute.Int("quizflow.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		return fmt.Errorf("webhook delivery for run %s: %w", sub.RunID, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (w *Webhook) post(ctx context.Context, body []byte, deliveryID string, attempt int) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	for k, vs := range w.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderDeliveryID, deliveryID)
	req.Header.Set("X-Quizflow-Attempt", strconv.Itoa(attempt))

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		serr := &StatusError{Code: resp.StatusCode, Body: string(snippet)}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return fmt.Errorf("%w: %w", serr, backoff.RetryAfter(secs))
		}
		return serr
	case resp.StatusCode >= 500:
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}
	return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: string(snippet)})
}
