package aksjeradar

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aksjeradar/aksjeradar/date"
)

// contains http utils to deal with remote market data services

// ErrRateLimited is returned when the remote service answered HTTP 429.
var ErrRateLimited = errors.New("provider rate limited")

// ErrCircuitOpen is returned when the circuit breaker refuses to call the
// remote service because of recent consecutive failures.
var ErrCircuitOpen = errors.New("provider circuit open")

// diskCache implements a simple disk cache for HTTP responses.
type diskCache struct {
	base http.RoundTripper
}

func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	// diskCache uses a unique key per day, so the local tmp expires every day.
	key := fmt.Sprintf("%s %s %s", date.Today().String(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	log.Printf("%v %v/%v %v", resp.Request.Method, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	if err := c.put(key, resp); err != nil {
		log.Printf("cache write err (ignored): %v", err)
	}
	return resp, nil
}

// get retrieves a cached response from disk.
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	file := filepath.Join(os.TempDir(), key)
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache.
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	file := filepath.Join(os.TempDir(), key)

	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}

	_, err = f.Write(content)
	f.Close()
	return err
}

// NewDailyCachingClient returns a client whose responses are cached on disk
// with a daily expiry.
func NewDailyCachingClient() *http.Client {
	client := new(http.Client)
	client.Transport = &diskCache{http.DefaultTransport}
	return client
}

// jwget performs an HTTP GET request and unmarshals the JSON response into
// the provided data structure. HTTP 429 maps to ErrRateLimited so callers
// can switch to fallback data.
func jwget(client *http.Client, addr string, data any) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("http GET %v/%v: %w", resp.Request.URL.Host, resp.Request.URL.Path, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v/%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}

// JSONGet is the exported form of jwget for provider subpackages.
func JSONGet(client *http.Client, addr string, data any) error { return jwget(client, addr, data) }

// BackoffPolicy retries an operation with exponential backoff and jitter.
// The zero value is unusable; use DefaultBackoff.
type BackoffPolicy struct {
	BaseDelay   time.Duration
	MaxAttempts int
	// Sleep is swappable for tests; defaults to time.Sleep.
	Sleep func(time.Duration)
}

// DefaultBackoff is the policy used for provider calls: 3 attempts starting
// at 500ms, doubling each time.
var DefaultBackoff = BackoffPolicy{BaseDelay: 500 * time.Millisecond, MaxAttempts: 3}

// Retry runs fn until it succeeds or attempts are exhausted. Rate limiting
// is not retried: waiting a few seconds does not clear a quota, and the
// caller has fallback data to serve instead.
func (p BackoffPolicy) Retry(fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	var errs error
	delay := p.BaseDelay
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrRateLimited) {
			return err
		}
		errs = errors.Join(errs, err)
		if attempt < p.MaxAttempts-1 {
			// Full jitter: sleep a random duration up to the current delay.
			sleep(time.Duration(rand.Int64N(int64(delay) + 1)))
			delay *= 2
		}
	}
	return errs
}

// CircuitBreaker refuses calls after a run of consecutive failures, and
// half-opens after a cooldown to probe the service again.
type CircuitBreaker struct {
	mu        sync.Mutex
	failures  int
	openUntil time.Time

	Threshold int           // consecutive failures before opening
	Cooldown  time.Duration // how long the circuit stays open
	now       func() time.Time
}

// NewCircuitBreaker returns a breaker opening after 'threshold' consecutive
// failures for 'cooldown'.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{Threshold: threshold, Cooldown: cooldown, now: time.Now}
}

// Do runs fn unless the circuit is open. A success closes the circuit.
func (b *CircuitBreaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.now().Before(b.openUntil) {
		b.mu.Unlock()
		return ErrCircuitOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		return nil
	}
	b.failures++
	if b.failures >= b.Threshold {
		b.openUntil = b.now().Add(b.Cooldown)
		b.failures = 0
		log.Printf("circuit open for %v after repeated provider failures: %v", b.Cooldown, err)
	}
	return err
}
