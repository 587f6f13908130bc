// Package webhook delivers notifications to the external chat endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/retry"
)

// SignatureHeader carries the HMAC-SHA256 of the raw body, hex-encoded and
// prefixed with "sha256=". The receiver verifies it with a constant-time
// comparison. With no secret configured signing is skipped entirely — a
// development-mode fallback, not for production.
const SignatureHeader = "X-Webhook-Signature"

// Envelope is the JSON body posted to the endpoint.
type Envelope struct {
	Type         string         `json:"type"`
	TelegramID   int64          `json:"telegram_id"`
	Data         map[string]any `json:"data"`
	TelegramText string         `json:"telegram_text"`
}

// Deliverer formats, signs, and POSTs notifications. Its retry policy is
// status-code aware:
//
//	2xx            → delivered
//	5xx / 429      → retried in place, up to 5 attempts, delays 1,2,4,8,16 s
//	other 4xx      → failed immediately (permanent rejection)
//	409 conflict   → skipped (same operation already in flight elsewhere)
//	transport fail → failed after exactly 1 attempt; a down network must not
//	                 stall the delivery loop — the next sync cycle re-detects
//
// The backoff math itself lives in the retry package; only the classifier
// here knows HTTP.
type Deliverer struct {
	secret     string
	httpClient *http.Client
	formatter  MessageFormatter
	policy     retry.Policy
	logger     *zap.Logger
}

// DefaultPolicy is the delivery retry schedule: 5 attempts, 1s doubling to 16s.
func DefaultPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    16 * time.Second,
		Multiplier:  2,
	}
}

func NewDeliverer(timeout time.Duration, secret string, formatter MessageFormatter, logger *zap.Logger) *Deliverer {
	return NewDelivererWithPolicy(DefaultPolicy(), timeout, secret, formatter, logger)
}

// NewDelivererWithPolicy lets tests substitute the wait behaviour.
func NewDelivererWithPolicy(policy retry.Policy, timeout time.Duration, secret string, formatter MessageFormatter, logger *zap.Logger) *Deliverer {
	return &Deliverer{
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		formatter:  formatter,
		policy:     policy,
		logger:     logger,
	}
}

// Deliver posts one notification to endpointURL and reports the terminal
// outcome. Per-item failures are returned in the result, never raised.
func (d *Deliverer) Deliver(ctx context.Context, userID int64, typ domain.EventType, data map[string]any, endpointURL string) domain.DeliveryResult {
	env := Envelope{
		Type:         string(typ),
		TelegramID:   userID,
		Data:         data,
		TelegramText: d.formatter.Format(typ, data),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return domain.DeliveryResult{Status: domain.StatusFailed, Err: fmt.Errorf("marshal envelope: %w", err)}
	}

	attempts, err := retry.Do(ctx, d.policy, classifyDelivery, func(ctx context.Context) error {
		return d.post(ctx, endpointURL, body)
	})

	switch {
	case err == nil:
		return domain.DeliveryResult{Success: true, Attempts: attempts, Status: domain.StatusDelivered}
	case errors.Is(err, domain.ErrConflictSkipped):
		d.logger.Debug("delivery skipped: operation already in flight",
			zap.Int64("user_id", userID), zap.String("type", string(typ)))
		return domain.DeliveryResult{Attempts: attempts, Status: domain.StatusSkipped, Err: err}
	default:
		d.logger.Warn("delivery failed",
			zap.Int64("user_id", userID),
			zap.String("type", string(typ)),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return domain.DeliveryResult{Attempts: attempts, Status: domain.StatusFailed, Err: err}
	}
}

// post performs one attempt and maps the response onto the error taxonomy.
func (d *Deliverer) post(ctx context.Context, endpointURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+d.sign(body))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: status %d", domain.ErrConflictSkipped, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteServer, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", domain.ErrRemoteRejected, resp.StatusCode)
	}
}

func (d *Deliverer) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(d.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// classifyDelivery is the HTTP-aware failure classifier plugged into the
// shared retry executor.
func classifyDelivery(err error) retry.Decision {
	switch {
	case errors.Is(err, domain.ErrRemoteServer), errors.Is(err, domain.ErrRateLimited):
		return retry.RetryAttempt
	case errors.Is(err, domain.ErrConflictSkipped):
		return retry.SkipConflict
	default:
		// Permanent rejections and transport failures are not retried inline.
		return retry.StopPermanent
	}
}
