package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Xreatlabs/Helium-sub000/internal/backoff"
)

const maxResponseSummary = 512

// SenderOptions configures a WebhookSender.
type SenderOptions struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
	HTTPClient  *http.Client
	Sleep       backoff.Sleeper
}

// DeliveryResult is the outcome of posting one payload. Send reports failures
// here instead of returning an error.
type DeliveryResult struct {
	Success    bool
	Attempts   int
	StatusCode int // 0 when no response was received
	Err        error
}

// WebhookSender posts JSON payloads to notification endpoints with bounded retries.
type WebhookSender struct {
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	sleep       backoff.Sleeper
}

func NewWebhookSender(opts SenderOptions) *WebhookSender {
	s := &WebhookSender{
		client:      opts.HTTPClient,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		sleep:       opts.Sleep,
	}
	if s.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		s.client = &http.Client{Timeout: timeout}
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 4
	}
	if s.retryDelay <= 0 {
		s.retryDelay = time.Second
	}
	if s.sleep == nil {
		s.sleep = backoff.Sleep
	}
	return s
}

// rateLimitBody is the JSON body Discord sends with a 429
type rateLimitBody struct {
	RetryAfter float64 `json:"retry_after"`
}

// Send posts payload to url. 429 honours the server's retry hint, 5xx and
// network errors back off exponentially, any other status fails at once.
func (s *WebhookSender) Send(ctx context.Context, url string, payload any) DeliveryResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return DeliveryResult{Err: fmt.Errorf("failed to marshal webhook payload: %w", err)}
	}

	var result DeliveryResult
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		result.Attempts = attempt + 1

		status, header, respBody, err := s.post(ctx, url, body)
		result.StatusCode = status

		var delay time.Duration
		switch {
		case err != nil:
			result.Err = err
			if ctx.Err() != nil {
				return result
			}
			delay = backoff.Exponential(s.retryDelay, attempt)

		case status >= 200 && status < 300:
			result.Success = true
			result.Err = nil
			return result

		case status == http.StatusTooManyRequests:
			result.Err = fmt.Errorf("rate limited (429)")
			delay = retryHint(header, respBody)
			if delay <= 0 {
				delay = backoff.Exponential(s.retryDelay, attempt)
			}

		case status >= 500:
			result.Err = fmt.Errorf("HTTP %d: %s", status, respBody)
			delay = backoff.Exponential(s.retryDelay, attempt)

		default:
			result.Err = fmt.Errorf("HTTP %d: %s", status, respBody)
			return result
		}

		if attempt == s.maxAttempts-1 {
			break
		}
		if err := s.sleep(ctx, delay); err != nil {
			result.Err = err
			return result
		}
	}

	result.Err = fmt.Errorf("max attempts reached: %w", result.Err)
	return result
}

func (s *WebhookSender) post(ctx context.Context, url string, body []byte) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSummary))
	return resp.StatusCode, resp.Header, respBody, nil
}

// retryHint prefers the Retry-After header and falls back to the JSON body.
func retryHint(header http.Header, body []byte) time.Duration {
	if d, ok := backoff.ParseRetryAfter(header.Get("Retry-After")); ok {
		return d
	}
	var rl rateLimitBody
	if err := json.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
		return time.Duration(rl.RetryAfter * float64(time.Second))
	}
	return 0
}
