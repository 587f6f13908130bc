package webhook_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sellerpulse/notify-core/internal/domain"
	"github.com/sellerpulse/notify-core/internal/webhook"
)

var testFormatter = webhook.FormatterFunc(func(typ domain.EventType, _ map[string]any) string {
	return "notification: " + string(typ)
})

func testDeliverer(t *testing.T, secret string, delays *[]time.Duration) *webhook.Deliverer {
	t.Helper()
	policy := webhook.DefaultPolicy()
	policy.Sleep = func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
	return webhook.NewDelivererWithPolicy(policy, 5*time.Second, secret, testFormatter, zap.NewNop())
}

func TestDeliver_Success(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := testDeliverer(t, "", nil)
	res := d.Deliver(context.Background(), 42, domain.EventNewOrder, map[string]any{"entity_id": "O1"}, srv.URL)

	if !res.Success || res.Status != domain.StatusDelivered || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	var env webhook.Envelope
	if err := json.Unmarshal(gotBody, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != "new_order" || env.TelegramID != 42 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.TelegramText != "notification: new_order" {
		t.Fatalf("formatter text missing: %q", env.TelegramText)
	}
}

func TestDeliver_SignsBodyWhenSecretConfigured(t *testing.T) {
	const secret = "topsecret"
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(webhook.SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := testDeliverer(t, secret, nil)
	d.Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Fatalf("signature mismatch:\n got %s\nwant %s", gotSig, want)
	}
}

func TestDeliver_NoSignatureWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(webhook.SignatureHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	testDeliverer(t, "", nil).Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)
	if gotSig != "" {
		t.Fatalf("expected no signature header, got %q", gotSig)
	}
}

// Persistent 500s exhaust all 5 attempts with the exact 1,2,4,8,16 schedule.
func TestDeliver_ServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var delays []time.Duration
	res := testDeliverer(t, "", &delays).Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)

	if res.Success || res.Status != domain.StatusFailed || res.Attempts != 5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if calls.Load() != 5 {
		t.Fatalf("expected 5 HTTP calls, got %d", calls.Load())
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %v", len(want), delays)
	}
	for i, d := range delays {
		if d != want[i] {
			t.Fatalf("delay %d: expected %v, got %v", i, want[i], d)
		}
	}
}

// 500,500,500,200 recovers on the fourth attempt.
func TestDeliver_RecoversAfterServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := testDeliverer(t, "", &[]time.Duration{}).Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)
	if !res.Success || res.Status != domain.StatusDelivered || res.Attempts != 4 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestDeliver_RateLimitedIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := testDeliverer(t, "", &[]time.Duration{}).Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)
	if !res.Success || res.Attempts != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

// A 4xx other than 429 is a permanent rejection: one attempt, no retries.
func TestDeliver_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	res := testDeliverer(t, "", nil).Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)
	if res.Success || res.Status != domain.StatusFailed || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 call, got %d", calls.Load())
	}
}

func TestDeliver_ConflictIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	res := testDeliverer(t, "", nil).Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)
	if res.Status != domain.StatusSkipped || res.Attempts != 1 {
		t.Fatalf("expected skipped after 1 attempt, got %+v", res)
	}
	if res.Success {
		t.Fatal("skipped is not a success")
	}
}

// A transport-level failure fails after exactly 1 attempt with no inline
// retries; the next sync cycle re-detects the change instead.
func TestDeliver_TransportFailureSingleAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	var delays []time.Duration
	res := testDeliverer(t, "", &delays).Deliver(context.Background(), 42, domain.EventNewOrder, nil, srv.URL)

	if res.Success || res.Status != domain.StatusFailed || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(delays) != 0 {
		t.Fatalf("expected no backoff waits, got %v", delays)
	}
}

func TestDeliver_MalformedURL(t *testing.T) {
	res := testDeliverer(t, "", nil).Deliver(context.Background(), 42, domain.EventNewOrder, nil, "://bad")
	if res.Success || res.Status != domain.StatusFailed || res.Attempts != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
