package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"
)

func TestPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); ua != "synology_apollolake_DS918+" {
			t.Errorf("User-Agent = %q", ua)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("arch") != "apollolake" {
			t.Errorf("arch = %q", r.PostForm.Get("arch"))
		}
		_, _ = w.Write([]byte(`{"packages":[]}`))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()

	form := url.Values{"arch": {"apollolake"}}
	res := f.Post(context.Background(), server.URL, form, "synology_apollolake_DS918+")
	if !res.OK() {
		t.Fatalf("Post failed: %s", res.ErrorText())
	}
	if string(res.Body) != `{"packages":[]}` {
		t.Errorf("Body = %q", res.Body)
	}
	if res.ErrorText() != "" {
		t.Errorf("ErrorText on success = %q", res.ErrorText())
	}
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Query().Get("unique") != "u" {
			t.Errorf("unique = %q", r.URL.Query().Get("unique"))
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()

	res := f.Get(context.Background(), server.URL+"/?unique=u", "ua")
	if !res.OK() {
		t.Fatalf("Get failed: %s", res.ErrorText())
	}
}

func TestNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()

	res := f.Get(context.Background(), server.URL, "")
	if res.OK() {
		t.Fatal("503 should not be OK")
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if !strings.HasPrefix(res.ErrorText(), "503 Service Unavailable") {
		t.Errorf("ErrorText = %q", res.ErrorText())
	}
	if !strings.Contains(string(res.Body), "maintenance") {
		t.Errorf("Body = %q, want error body kept", res.Body)
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	f := NewFetcher(WithTimeout(2 * time.Second))
	defer f.Close()

	res := f.Post(context.Background(), addr, url.Values{}, "")
	if res.OK() {
		t.Fatal("closed server should fail")
	}
	if res.Err == nil {
		t.Fatal("expected transport error")
	}
	if !strings.HasPrefix(res.ErrorText(), "no response ") {
		t.Errorf("ErrorText = %q", res.ErrorText())
	}
}

func TestContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := f.Get(ctx, server.URL, "")
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
}

func TestMaxBodySize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	f := NewFetcher(WithMaxBodySize(10))
	defer f.Close()

	res := f.Get(context.Background(), server.URL, "")
	if !errors.Is(res.Err, ErrBodyTooLarge) {
		t.Errorf("Err = %v, want ErrBodyTooLarge", res.Err)
	}
	if res.OK() {
		t.Error("oversized body should not be OK")
	}

	f2 := NewFetcher(WithMaxBodySize(100))
	defer f2.Close()
	if res := f2.Get(context.Background(), server.URL, ""); !res.OK() {
		t.Errorf("body at the limit should pass: %s", res.ErrorText())
	}
}

func TestWithProxy(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.internal:3128")
	f := NewFetcher(WithProxy(proxyURL))
	defer f.Close()

	tr, ok := f.client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type %T", f.client.Transport)
	}
	req, _ := http.NewRequest(http.MethodGet, "https://packages.example.com/", nil)
	got, err := tr.Proxy(req)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != proxyURL.String() {
		t.Errorf("proxy = %v, want %v", got, proxyURL)
	}
}

func TestCircuitBreakerTrips(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewFetcher(WithCircuitBreaker(true))
	defer f.Close()

	ctx := context.Background()
	for i := 0; i < breakerThreshold; i++ {
		res := f.Get(ctx, server.URL, "")
		if res.StatusCode != http.StatusBadGateway {
			t.Fatalf("call %d: StatusCode = %d", i, res.StatusCode)
		}
	}

	res := f.Get(ctx, server.URL, "")
	if !errors.Is(res.Err, ErrCircuitOpen) {
		t.Fatalf("Err = %v, want ErrCircuitOpen", res.Err)
	}
	if got := hits.Load(); got != breakerThreshold {
		t.Errorf("server hit %d times, want %d", got, breakerThreshold)
	}

	host := strings.TrimPrefix(server.URL, "http://")
	if state := f.BreakerStates()[host]; state != "open" {
		t.Errorf("breaker state = %q, want open", state)
	}
}

func TestCircuitBreakerHalfOpenAfterBackoff(t *testing.T) {
	mock := clock.NewMock()
	b := newBreakers()
	b.clock = mock

	var calls int
	fail := func() Result { calls++; return Result{StatusCode: http.StatusBadGateway} }
	ok := func() Result { calls++; return Result{StatusCode: http.StatusOK} }

	for i := 0; i < breakerThreshold; i++ {
		b.call("vendor.example", fail)
	}
	if res := b.call("vendor.example", ok); !errors.Is(res.Err, ErrCircuitOpen) {
		t.Fatalf("Err = %v, want ErrCircuitOpen", res.Err)
	}
	if calls != breakerThreshold {
		t.Fatalf("calls = %d, want %d", calls, breakerThreshold)
	}

	// First interval is 30s; one trial request must go through after it.
	mock.Add(31 * time.Second)
	res := b.call("vendor.example", ok)
	if res.Err != nil || res.StatusCode != http.StatusOK {
		t.Fatalf("half-open call = %v / %d, want 200", res.Err, res.StatusCode)
	}
	if calls != breakerThreshold+1 {
		t.Errorf("calls = %d, want %d", calls, breakerThreshold+1)
	}
	if state := b.states()["vendor.example"]; state != "closed" {
		t.Errorf("state = %q, want closed", state)
	}
}

func TestCircuitBreakerIgnoresClientErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	f := NewFetcher(WithCircuitBreaker(true))
	defer f.Close()

	for i := 0; i < breakerThreshold+2; i++ {
		res := f.Get(context.Background(), server.URL, "")
		if res.StatusCode != http.StatusNotFound {
			t.Fatalf("call %d: got %v / %d, want 404", i, res.Err, res.StatusCode)
		}
	}
}

func TestBreakerStatesDisabled(t *testing.T) {
	f := NewFetcher()
	defer f.Close()
	if f.BreakerStates() != nil {
		t.Error("BreakerStates should be nil when breakers are disabled")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	f := NewFetcher()
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}
