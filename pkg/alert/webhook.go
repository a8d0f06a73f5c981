package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

var _ rollout.Alerter = (*Webhook)(nil)

// Webhook posts alerts to an HTTP endpoint.
type Webhook struct {
	url         string
	client      *http.Client
	secret      string
	headers     map[string]string
	timeout     time.Duration
	maxElapsed  time.Duration
	maxAttempts uint64
	now         func() time.Time
}

// WebhookOption configures a Webhook.
type WebhookOption func(*Webhook)

// WithHTTPClient replaces the default client. Nil is ignored.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) {
		if c != nil {
			w.client = c
		}
	}
}

// WithSecret signs every request body; see Sign.
func WithSecret(secret string) WebhookOption {
	return func(w *Webhook) { w.secret = secret }
}

// WithHeader adds a static request header.
func WithHeader(key, value string) WebhookOption {
	return func(w *Webhook) { w.headers[key] = value }
}

// WithAttemptTimeout bounds a single delivery attempt.
func WithAttemptTimeout(d time.Duration) WebhookOption {
	return func(w *Webhook) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithRetry limits retries by attempt count and total elapsed time.
func WithRetry(maxAttempts uint64, maxElapsed time.Duration) WebhookOption {
	return func(w *Webhook) {
		w.maxAttempts = maxAttempts
		w.maxElapsed = maxElapsed
	}
}

// NewWebhook validates rawURL and returns a webhook alerter. Only http and
// https endpoints are accepted.
func NewWebhook(rawURL string, opts ...WebhookOption) (*Webhook, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidURL)
	}

	w := &Webhook{
		url:         rawURL,
		client:      &http.Client{},
		headers:     map[string]string{},
		timeout:     5 * time.Second,
		maxElapsed:  30 * time.Second,
		maxAttempts: 3,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Alert delivers a with retries. 4xx responses other than 408, 425 and 429
// are not retried.
func (w *Webhook) Alert(ctx context.Context, a rollout.Alert) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = w.maxElapsed

	var policy backoff.BackOff = bo
	if w.maxAttempts > 0 {
		policy = backoff.WithMaxRetries(bo, w.maxAttempts-1)
	}

	var attempts int
	err = backoff.Retry(func() error {
		attempts++
		status, err := w.deliver(ctx, payload)
		if err != nil && isPermanent(status) {
			return backoff.Permanent(fmt.Errorf("%w: %w", ErrPermanentFailure, err))
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrDeliveryFailed, attempts, err)
	}
	return nil
}

func (w *Webhook) deliver(ctx context.Context, payload []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "trackflag-alert/1.0")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}
	if w.secret != "" {
		ts := w.now().Unix()
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderSignature, Sign(w.secret, ts, payload))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	msg := strings.TrimSpace(strings.ReplaceAll(string(body), "\n", " "))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return resp.StatusCode, fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, msg)
}

func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}
