package aksjeradar

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var slept []time.Duration
	p := BackoffPolicy{
		BaseDelay:   100 * time.Millisecond,
		MaxAttempts: 3,
		Sleep:       func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	err := p.Retry(func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient failure %d", calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("slept %d times, want 2", len(slept))
	}
	// Full jitter: each sleep is bounded by the doubling delay.
	if slept[0] > 100*time.Millisecond {
		t.Errorf("first sleep %v exceeds base delay", slept[0])
	}
	if slept[1] > 200*time.Millisecond {
		t.Errorf("second sleep %v exceeds doubled delay", slept[1])
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	p := BackoffPolicy{BaseDelay: time.Millisecond, MaxAttempts: 3, Sleep: func(time.Duration) {}}

	calls := 0
	boom := errors.New("boom")
	err := p.Retry(func() error { calls++; return boom })
	if err == nil {
		t.Fatal("Retry must fail after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("joined error does not wrap the cause: %v", err)
	}
}

func TestRetryDoesNotRetryRateLimit(t *testing.T) {
	p := BackoffPolicy{BaseDelay: time.Millisecond, MaxAttempts: 3, Sleep: func(time.Duration) {}}

	calls := 0
	err := p.Retry(func() error {
		calls++
		return fmt.Errorf("quota: %w", ErrRateLimited)
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1: rate limiting must not be retried", calls)
	}
}

func TestCircuitBreaker(t *testing.T) {
	now := time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)
	b := NewCircuitBreaker(2, time.Minute)
	b.now = func() time.Time { return now }

	boom := errors.New("boom")
	fail := func() error { return boom }
	succeed := func() error { return nil }

	// Two consecutive failures open the circuit.
	if err := b.Do(fail); !errors.Is(err, boom) {
		t.Fatalf("first failure: %v", err)
	}
	if err := b.Do(fail); !errors.Is(err, boom) {
		t.Fatalf("second failure: %v", err)
	}
	if err := b.Do(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open circuit let a call through: %v", err)
	}

	// After the cooldown the breaker half-opens and a success closes it.
	now = now.Add(61 * time.Second)
	if err := b.Do(succeed); err != nil {
		t.Fatalf("half-open probe: %v", err)
	}
	if err := b.Do(succeed); err != nil {
		t.Fatalf("closed circuit: %v", err)
	}
}

func TestCircuitBreakerResetOnSuccess(t *testing.T) {
	b := NewCircuitBreaker(2, time.Minute)
	boom := errors.New("boom")

	// fail, succeed, fail: never two consecutive failures, never opens.
	b.Do(func() error { return boom })
	b.Do(func() error { return nil })
	b.Do(func() error { return boom })
	if err := b.Do(func() error { return nil }); errors.Is(err, ErrCircuitOpen) {
		t.Error("circuit opened without reaching the failure threshold")
	}
}

func TestJSONGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			fmt.Fprint(w, `{"value": 42}`)
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var data struct {
		Value int `json:"value"`
	}
	if err := JSONGet(srv.Client(), srv.URL+"/ok", &data); err != nil {
		t.Fatal(err)
	}
	if data.Value != 42 {
		t.Errorf("value = %d, want 42", data.Value)
	}

	if err := JSONGet(srv.Client(), srv.URL+"/limited", &data); !errors.Is(err, ErrRateLimited) {
		t.Errorf("429 mapped to %v, want ErrRateLimited", err)
	}
	if err := JSONGet(srv.Client(), srv.URL+"/missing", &data); err == nil {
		t.Error("404 must be an error")
	}
}
