package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// testLogger returns a logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher records calls and tracks peak concurrency.
type fakeFetcher struct {
	mu       sync.Mutex
	calls    map[string]int
	inFlight atomic.Int64
	peak     atomic.Int64
	delay    time.Duration
	fetch    func(url string) Result
}

func newFakeFetcher(delay time.Duration, fetch func(url string) Result) *fakeFetcher {
	return &fakeFetcher{calls: make(map[string]int), delay: delay, fetch: fetch}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ time.Duration, _ int) Result {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fetch != nil {
		return f.fetch(url)
	}
	return Result{Payload: map[string]any{"url": url}, Attempts: 1}
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func makeEndpoints(n int) []EndpointInfo {
	eps := make([]EndpointInfo, n)
	for i := range eps {
		eps[i] = EndpointInfo{Index: i, URL: fmt.Sprintf("http://host-%02d/status", i)}
	}
	return eps
}

func TestPollAll_ExactlyOncePerEndpoint(t *testing.T) {
	const n = 25
	endpoints := makeEndpoints(n)

	for _, workers := range []int{1, 2, 5, n, 100} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			fetcher := newFakeFetcher(time.Millisecond, nil)

			results := PollAll(context.Background(), endpoints, Options{Workers: workers}, fetcher, testLogger())

			if len(results) != n {
				t.Fatalf("len(results) = %d, want %d", len(results), n)
			}

			seen := make(map[int]bool)
			for _, r := range results {
				if seen[r.Index] {
					t.Errorf("index %d reported twice", r.Index)
				}
				seen[r.Index] = true
				if r.URL != endpoints[r.Index].URL {
					t.Errorf("result %d URL = %q, want %q", r.Index, r.URL, endpoints[r.Index].URL)
				}
			}
			for _, ep := range endpoints {
				if got := fetcher.callCount(ep.URL); got != 1 {
					t.Errorf("%s fetched %d times, want 1", ep.URL, got)
				}
			}
		})
	}
}

func TestPollAll_ConcurrencyBounded(t *testing.T) {
	tests := []struct {
		name      string
		endpoints int
		workers   int
		wantPeak  int64
	}{
		{"workers below endpoints", 20, 4, 4},
		{"zero workers clamps to one", 5, 0, 1},
		{"negative workers clamps to one", 5, -3, 1},
		{"workers above endpoints", 3, 50, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newFakeFetcher(10*time.Millisecond, nil)

			results := PollAll(context.Background(), makeEndpoints(tt.endpoints), Options{Workers: tt.workers}, fetcher, testLogger())
			if len(results) != tt.endpoints {
				t.Fatalf("len(results) = %d, want %d", len(results), tt.endpoints)
			}
			if peak := fetcher.peak.Load(); peak > tt.wantPeak {
				t.Errorf("peak concurrency = %d, want <= %d", peak, tt.wantPeak)
			}
		})
	}
}

func TestPollAll_WorkersRunInParallel(t *testing.T) {
	fetcher := newFakeFetcher(50*time.Millisecond, nil)

	start := time.Now()
	PollAll(context.Background(), makeEndpoints(8), Options{Workers: 8}, fetcher, testLogger())
	elapsed := time.Since(start)

	// serial execution would take 400ms
	if elapsed > 300*time.Millisecond {
		t.Errorf("PollAll took %v, want parallel execution", elapsed)
	}
	if fetcher.peak.Load() < 2 {
		t.Errorf("peak concurrency = %d, want > 1", fetcher.peak.Load())
	}
}

func TestPollAll_Empty(t *testing.T) {
	fetcher := newFakeFetcher(0, nil)

	results := PollAll(context.Background(), nil, Options{Workers: 4}, fetcher, testLogger())
	if results == nil {
		t.Fatal("results = nil, want empty slice")
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestPollAll_DuplicateURLsPolledIndependently(t *testing.T) {
	endpoints := []EndpointInfo{
		{Index: 0, URL: "http://same/status"},
		{Index: 1, URL: "http://same/status"},
	}
	fetcher := newFakeFetcher(0, nil)

	results := PollAll(context.Background(), endpoints, Options{Workers: 2}, fetcher, testLogger())
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if got := fetcher.callCount("http://same/status"); got != 2 {
		t.Errorf("fetch count = %d, want 2", got)
	}
}

func TestPollAll_FailuresDoNotStopOthers(t *testing.T) {
	fetcher := newFakeFetcher(0, func(url string) Result {
		if strings.HasSuffix(url, "-03/status") || strings.HasSuffix(url, "-07/status") {
			return Result{Kind: FailureTransport, Err: errors.New("connection refused"), Attempts: 4}
		}
		return Result{Payload: map[string]any{"ok": true}, Attempts: 1}
	})

	results := PollAll(context.Background(), makeEndpoints(10), Options{Workers: 3}, fetcher, testLogger())
	if len(results) != 10 {
		t.Fatalf("len(results) = %d, want 10", len(results))
	}

	var failed int
	for _, r := range results {
		if !r.Succeeded() {
			failed++
			if r.Index != 3 && r.Index != 7 {
				t.Errorf("unexpected failure at index %d: %v", r.Index, r.Err)
			}
		}
	}
	if failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
}

func TestPollAll_RecoversFromPanic(t *testing.T) {
	fetcher := newFakeFetcher(0, func(url string) Result {
		if strings.Contains(url, "host-01") {
			panic("boom")
		}
		return Result{Payload: map[string]any{"ok": true}, Attempts: 1}
	})

	results := PollAll(context.Background(), makeEndpoints(4), Options{Workers: 2}, fetcher, testLogger())
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}

	for _, r := range results {
		if r.Index == 1 {
			if r.Kind != FailurePanic {
				t.Errorf("Kind = %q, want %q", r.Kind, FailurePanic)
			}
			if r.Err == nil || !strings.Contains(r.Err.Error(), "correlation_id") {
				t.Errorf("Err = %v, want correlation id", r.Err)
			}
			if r.URL != "http://host-01/status" {
				t.Errorf("URL = %q, want http://host-01/status", r.URL)
			}
			continue
		}
		if !r.Succeeded() {
			t.Errorf("index %d failed: %v", r.Index, r.Err)
		}
	}
}

func TestPollAll_RecoversFromNilPanic(t *testing.T) {
	fetcher := newFakeFetcher(0, func(url string) Result {
		panic(nil)
	})

	results := PollAll(context.Background(), makeEndpoints(2), Options{Workers: 1}, fetcher, testLogger())
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Kind != FailurePanic {
			t.Errorf("index %d: Kind = %q, want %q", r.Index, r.Kind, FailurePanic)
		}
	}
}

func TestPollAll_CancelledContextStillReportsEveryEndpoint(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"Application":"A"}`))
	}))
	defer server.Close()

	endpoints := make([]EndpointInfo, 6)
	for i := range endpoints {
		endpoints[i] = EndpointInfo{Index: i, URL: server.URL}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(0)
	defer client.Close()

	results := PollAll(ctx, endpoints, Options{Workers: 2, Timeout: time.Second, MaxRetries: 3}, client, testLogger())
	if len(results) != len(endpoints) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(endpoints))
	}
	for _, r := range results {
		if r.Kind != FailureTransport {
			t.Errorf("index %d: Kind = %q, want %q", r.Index, r.Kind, FailureTransport)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("hits = %d, want 0", hits.Load())
	}
}

func TestPollAll_WithClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			_, _ = w.Write([]byte("Hello World"))
		case "/missing":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte(`{"Application":"Cache0","Version":"1.0.0","Success_Count":5}`))
		}
	}))
	defer server.Close()

	endpoints := []EndpointInfo{
		{Index: 0, URL: server.URL + "/status"},
		{Index: 1, URL: server.URL + "/bad"},
		{Index: 2, URL: server.URL + "/missing"},
		{Index: 3, URL: server.URL + "/status"},
	}

	client := NewClient(0)
	defer client.Close()

	results := PollAll(context.Background(), endpoints, Options{Workers: 3, Timeout: time.Second, MaxRetries: 1}, client, testLogger())
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}

	want := map[int]FailureKind{0: "", 1: FailurePayloadDecode, 2: FailureHTTPStatus, 3: ""}
	for _, r := range results {
		if r.Kind != want[r.Index] {
			t.Errorf("index %d: Kind = %q, want %q", r.Index, r.Kind, want[r.Index])
		}
	}
}

func TestClampWorkers(t *testing.T) {
	tests := []struct {
		requested, jobs, want int
	}{
		{0, 5, 1},
		{-1, 5, 1},
		{1, 5, 1},
		{3, 5, 3},
		{5, 5, 5},
		{10, 5, 5},
		{10, 1, 1},
	}

	for _, tt := range tests {
		if got := clampWorkers(tt.requested, tt.jobs); got != tt.want {
			t.Errorf("clampWorkers(%d, %d) = %d, want %d", tt.requested, tt.jobs, got, tt.want)
		}
	}
}
