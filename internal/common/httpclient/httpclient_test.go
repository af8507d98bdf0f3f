package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// =============================================================================
// Property-Based Tests
// =============================================================================

// TestRetryExponentialBackoff verifies that retry delays grow exponentially
// and that retries stop after the configured maximum.
func TestRetryExponentialBackoff(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Property: Delays follow exponential backoff pattern (delay[i] > delay[i-1])
	properties.Property("Retry delays follow exponential backoff pattern", prop.ForAll(
		func(numFailures int) bool {
			// Ensure numFailures is between 1 and 3
			if numFailures < 1 {
				numFailures = 1
			}
			numFailures = (numFailures % 3) + 1

			// Track request count and recorded delays
			var requestCount int32
			var recordedDelays []time.Duration

			// Create a test server that fails numFailures times then succeeds
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				count := atomic.AddInt32(&requestCount, 1)
				if int(count) <= numFailures {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			// Create client with custom delay function that records delays
			client := New()
			client.SetHTTPClient(server.Client())
			client.SetDelayFunc(func(d time.Duration) {
				recordedDelays = append(recordedDelays, d)
			})

			// Make request
			resp, err := client.Get(server.URL)
			if err != nil {
				t.Logf("Request failed: %v", err)
				return false
			}
			defer resp.Body.Close()

			// Verify we got the expected number of delays (one per retry)
			if len(recordedDelays) != numFailures {
				t.Logf("Expected %d delays, got %d", numFailures, len(recordedDelays))
				return false
			}

			// Verify delays follow exponential backoff (each delay > previous)
			for i := 1; i < len(recordedDelays); i++ {
				if recordedDelays[i] <= recordedDelays[i-1] {
					t.Logf("Delay %d (%v) should be > delay %d (%v)",
						i, recordedDelays[i], i-1, recordedDelays[i-1])
					return false
				}
			}

			return true
		},
		gen.IntRange(1, 100),
	))

	// Property: After max retries, no more attempts are made
	properties.Property("After max retries, no more attempts are made", prop.ForAll(
		func(extraFailures int) bool {
			// Ensure extraFailures is positive (used to vary test inputs)
			if extraFailures < 0 {
				extraFailures = -extraFailures
			}
			_ = (extraFailures % 10) + 1 // Vary input but always test max retries

			var requestCount int32

			// Create a test server that always fails
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&requestCount, 1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			// Create client with no-op delay function
			client := New()
			client.SetHTTPClient(server.Client())
			client.SetDelayFunc(func(d time.Duration) {})

			// Make request (should fail after max retries)
			_, err := client.Get(server.URL)
			if err == nil {
				t.Log("Expected error after max retries")
				return false
			}

			// Should have made exactly 4 requests (1 initial + 3 retries)
			count := atomic.LoadInt32(&requestCount)
			if count != 4 {
				t.Logf("Expected 4 requests (1 + 3 retries), got %d", count)
				return false
			}

			return true
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// =============================================================================
// Unit Tests
// =============================================================================

func TestSuccessfulRequestNoRetry(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New()
	client.SetHTTPClient(server.Client())
	client.SetDelayFunc(func(d time.Duration) {})

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	if count := atomic.LoadInt32(&requestCount); count != 1 {
		t.Errorf("Expected 1 request, got %d", count)
	}
	if len(client.GetRecordedDelays()) != 0 {
		t.Errorf("Expected no recorded delays, got %v", client.GetRecordedDelays())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New()
	client.SetHTTPClient(server.Client())
	client.SetDelayFunc(func(d time.Duration) {})

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	// 4xx responses are returned to the caller, not retried
	if count := atomic.LoadInt32(&requestCount); count != 1 {
		t.Errorf("Expected 1 request for 404, got %d", count)
	}
}

func TestRetryOnTooManyRequests(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&requestCount, 1)
		if count == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New()
	client.SetHTTPClient(server.Client())
	client.SetDelayFunc(func(d time.Duration) {})

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	if count := atomic.LoadInt32(&requestCount); count != 2 {
		t.Errorf("Expected 2 requests (1 + 1 retry on 429), got %d", count)
	}
}

func TestDefaultUserAgentApplied(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New()
	client.SetHTTPClient(server.Client())

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	resp.Body.Close()

	if gotUA != DefaultUserAgent {
		t.Errorf("Expected User-Agent %q, got %q", DefaultUserAgent, gotUA)
	}
}

func TestSetUserAgentOverride(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New()
	client.SetHTTPClient(server.Client())
	client.SetUserAgent("custom-agent/2.0")

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	resp.Body.Close()

	if gotUA != "custom-agent/2.0" {
		t.Errorf("Expected overridden User-Agent, got %q", gotUA)
	}

	// Empty override is ignored
	client.SetUserAgent("")
	if client.GetDefaultHeaders()["User-Agent"] != "custom-agent/2.0" {
		t.Error("Empty SetUserAgent should not clear the header")
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New()
	client.SetHTTPClient(server.Client())

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel during the first retry delay
	client.SetDelayFunc(func(d time.Duration) {
		cancel()
	})

	_, err := client.GetWithContext(ctx, server.URL)
	if err == nil {
		t.Fatal("Expected error after context cancellation")
	}
}

func TestCalculateDelay(t *testing.T) {
	client := New()

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 4 * time.Second}, // capped at MaxDelay
	}

	for _, tt := range tests {
		if got := client.calculateDelay(tt.attempt); got != tt.expected {
			t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}
