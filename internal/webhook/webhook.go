// ABOUTME: Webhook delivery for meeting bot events with retry, circuit breaker, and rate limiting.
// ABOUTME: Posts bot responses and session lifecycle events to Slack, Discord, or custom endpoints.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/777genius/standupbot/internal/config"
	"github.com/777genius/standupbot/internal/logging"
)

// Event identifies what happened in the meeting session.
type Event string

const (
	EventResponse       Event = "bot_response"
	EventError          Event = "bot_error"
	EventSessionStarted Event = "session_started"
	EventSessionStopped Event = "session_stopped"
)

// Title returns a human-readable heading for the event.
func (e Event) Title() string {
	switch e {
	case EventResponse:
		return "Bot Response"
	case EventError:
		return "Bot Error"
	case EventSessionStarted:
		return "Meeting Started"
	case EventSessionStopped:
		return "Meeting Ended"
	default:
		return "Standup Bot"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrRateLimitExceeded is returned when the rate limit is exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// HTTPError represents a non-2xx response from the webhook endpoint.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func NewHTTPError(resp *http.Response, body string) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("webhook returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Metrics is a snapshot of delivery counters.
type Metrics struct {
	TotalRequests       int64
	SuccessfulRequests  int64
	FailedRequests      int64
	CircuitOpenRequests int64
	RateLimitedRequests int64
	AverageLatencyMs    float64
}

type senderMetrics struct {
	total        atomic.Int64
	success      atomic.Int64
	failed       atomic.Int64
	circuitOpen  atomic.Int64
	rateLimited  atomic.Int64
	latencyNanos atomic.Int64
	latencyCount atomic.Int64
}

// Sender delivers bot events to a configured webhook endpoint.
type Sender struct {
	cfg     *config.Config
	client  *http.Client
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	breaker *circuitBreaker
	limiter *rateLimiter
	metrics *senderMetrics
}

// New creates a sender from the webhook section of the config. The circuit
// breaker and rate limiter are only armed when enabled there.
func New(cfg *config.Config) *Sender {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Sender{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		ctx:     ctx,
		cancel:  cancel,
		metrics: &senderMetrics{},
	}

	wh := cfg.Notifications.Webhook
	if wh.CircuitBreaker.Enabled {
		s.breaker = newCircuitBreaker(
			wh.CircuitBreaker.FailureThreshold,
			wh.CircuitBreaker.SuccessThreshold,
			parseDurationDefault(wh.CircuitBreaker.Timeout, 30*time.Second),
		)
	}
	if wh.RateLimit.Enabled {
		s.limiter = newRateLimiter(wh.RateLimit.RequestsPerMinute)
	}
	return s
}

// Send delivers one event synchronously, retrying per the config. It returns
// nil without touching the network when webhooks are disabled.
func (s *Sender) Send(event Event, message, sessionID string) error {
	if !s.cfg.IsWebhookEnabled() {
		logging.Debug("Webhook disabled, skipping %s", event)
		return nil
	}
	wh := s.cfg.Notifications.Webhook
	if err := validateURL(wh.URL); err != nil {
		return err
	}

	s.metrics.total.Add(1)

	if s.limiter != nil && !s.limiter.allow() {
		s.metrics.rateLimited.Add(1)
		logging.Warn("Webhook rate limit hit, dropping %s", event)
		return ErrRateLimitExceeded
	}
	if s.breaker != nil && !s.breaker.allow() {
		s.metrics.circuitOpen.Add(1)
		logging.Warn("Webhook circuit open, dropping %s", event)
		return ErrCircuitOpen
	}

	body, contentType, err := buildPayload(wh, event, message, sessionID)
	if err != nil {
		s.metrics.failed.Add(1)
		return err
	}

	if err := s.sendWithRetry(body, contentType); err != nil {
		s.metrics.failed.Add(1)
		if s.breaker != nil {
			s.breaker.recordFailure()
		}
		logging.Warn("Webhook delivery failed for %s: %v", event, err)
		return err
	}

	s.metrics.success.Add(1)
	if s.breaker != nil {
		s.breaker.recordSuccess()
	}
	logging.Debug("Webhook delivered %s (session %s)", event, sessionID)
	return nil
}

// SendAsync delivers the event in the background. Failures are logged, not
// returned. Shutdown waits for all async deliveries started before it.
func (s *Sender) SendAsync(event Event, message, sessionID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.Send(event, message, sessionID)
	}()
}

// Shutdown waits for in-flight deliveries, then cancels any stragglers.
func (s *Sender) Shutdown(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("webhook shutdown timed out after %v", timeout)
	}
}

// GetMetrics returns a snapshot of the delivery counters.
func (s *Sender) GetMetrics() Metrics {
	m := Metrics{
		TotalRequests:       s.metrics.total.Load(),
		SuccessfulRequests:  s.metrics.success.Load(),
		FailedRequests:      s.metrics.failed.Load(),
		CircuitOpenRequests: s.metrics.circuitOpen.Load(),
		RateLimitedRequests: s.metrics.rateLimited.Load(),
	}
	if count := s.metrics.latencyCount.Load(); count > 0 {
		m.AverageLatencyMs = float64(s.metrics.latencyNanos.Load()) / float64(count) / float64(time.Millisecond)
	}
	return m
}

func (s *Sender) sendWithRetry(body []byte, contentType string) error {
	retry := s.cfg.Notifications.Webhook.Retry
	attempts := 1
	if retry.Enabled && retry.MaxAttempts > 1 {
		attempts = retry.MaxAttempts
	}
	backoff := parseDurationDefault(retry.InitialBackoff, time.Second)
	maxBackoff := parseDurationDefault(retry.MaxBackoff, 30*time.Second)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logging.Debug("Webhook retry %d/%d after %v", attempt, attempts, backoff)
			select {
			case <-time.After(backoff):
			case <-s.ctx.Done():
				return s.ctx.Err()
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := s.doRequest(body, contentType)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

func (s *Sender) doRequest(body []byte, contentType string) error {
	wh := s.cfg.Notifications.Webhook

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "standupbot/1.0")
	req.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range wh.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	s.metrics.latencyNanos.Add(int64(time.Since(start)))
	s.metrics.latencyCount.Add(1)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return NewHTTPError(resp, strings.TrimSpace(string(data)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// retryable reports whether the delivery is worth retrying. Network errors
// and 5xx/429 responses are transient; other HTTP errors are not.
func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("webhook URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("webhook URL has no host")
	}
	return nil
}

func parseDurationDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logging.Warn("Invalid duration %q in webhook config, using %v", s, def)
		return def
	}
	return d
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// circuitBreaker stops hammering a dead endpoint. After failureThreshold
// consecutive failures it opens; after timeout it lets probes through and
// closes again once successThreshold of them succeed.
type circuitBreaker struct {
	mu               sync.Mutex
	state            breakerState
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	openedAt         time.Time
}

func newCircuitBreaker(failureThreshold, successThreshold int, timeout time.Duration) *circuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if successThreshold < 1 {
		successThreshold = 1
	}
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
	}
}

func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerOpen {
		if time.Since(b.openedAt) < b.timeout {
			return false
		}
		b.state = breakerHalfOpen
		b.successes = 0
	}
	return true
}

func (b *circuitBreaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = breakerClosed
			b.failures = 0
			logging.Debug("Webhook circuit closed")
		}
	case breakerClosed:
		b.failures = 0
	}
}

func (b *circuitBreaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerHalfOpen:
		b.state = breakerOpen
		b.openedAt = time.Now()
	case breakerClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = breakerOpen
			b.openedAt = time.Now()
			logging.Warn("Webhook circuit opened after %d failures", b.failures)
		}
	}
}

// rateLimiter is a token bucket sized to requestsPerMinute, refilled
// continuously.
type rateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	perSecond  float64
	lastRefill time.Time
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	return &rateLimiter{
		tokens:     float64(requestsPerMinute),
		capacity:   float64(requestsPerMinute),
		perSecond:  float64(requestsPerMinute) / 60.0,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.tokens = math.Min(r.capacity, r.tokens+now.Sub(r.lastRefill).Seconds()*r.perSecond)
	r.lastRefill = now

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
