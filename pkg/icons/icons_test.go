package icons

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synopackage/pkg/cache"
	"github.com/matzehuels/synopackage/pkg/fetch"
	"github.com/matzehuels/synopackage/pkg/spk"
)

var (
	pngBytes  = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("image-data")...)
	fallback  = []byte("GIF89a-default")
	htmlBytes = []byte("<html>not an image</html>")
)

func newTestCache(t *testing.T, d Downloader, opts Options) (*Cache, *cache.FileCache) {
	t.Helper()
	store, err := cache.NewFileCache(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if opts.DefaultIcon == nil {
		opts.DefaultIcon = fallback
	}
	if opts.Expiration == 0 {
		opts.Expiration = 30 * 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return New(store, d, opts), store
}

// iconServer serves PNG bytes under /ok, HTML under /html and 500 elsewhere.
func iconServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/ok"):
			time.Sleep(20 * time.Millisecond)
			_, _ = w.Write(pngBytes)
		case strings.HasPrefix(r.URL.Path, "/html"):
			_, _ = w.Write(htmlBytes)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newFetcher(t *testing.T) *fetch.Fetcher {
	t.Helper()
	f := fetch.NewFetcher(fetch.WithTimeout(5 * time.Second))
	t.Cleanup(func() { f.Close() })
	return f
}

func stored(t *testing.T, store cache.Cache, key string) []byte {
	t.Helper()
	e, ok, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		return nil
	}
	return e.Data
}

func TestProcessDownloads(t *testing.T) {
	server := iconServer(t, nil)
	c, store := newTestCache(t, newFetcher(t), Options{UseHTTPS: true})

	pkgs := []spk.RawPackage{
		{Package: "good", Thumbnails: spk.URLList{server.URL + "/ok/good.png", server.URL + "/html/ignored"}},
		{Package: "html", Thumbnails: spk.URLList{server.URL + "/html/x.png"}},
		{Package: "broken", Thumbnails: spk.URLList{server.URL + "/500"}},
		{Package: "nothing"},
	}
	c.Process(context.Background(), "src", pkgs)

	if got := stored(t, store, "src_good.png"); string(got) != string(pngBytes) {
		t.Errorf("good icon = %q, want downloaded png", got)
	}
	if got := stored(t, store, "src_html.png"); string(got) != string(fallback) {
		t.Errorf("html icon = %q, want default", got)
	}
	if got := stored(t, store, "src_broken.png"); string(got) != string(fallback) {
		t.Errorf("broken icon = %q, want default", got)
	}
	if got := stored(t, store, "src_nothing.png"); got != nil {
		t.Errorf("package without icon should not be stored, got %q", got)
	}
}

func TestIconFailuresAreCoded(t *testing.T) {
	server := iconServer(t, nil)
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	c, store := newTestCache(t, newFetcher(t), Options{Logger: logger})

	pkgs := []spk.RawPackage{
		{Package: "broken", Thumbnails: spk.URLList{server.URL + "/500"}},
		{Package: "garbled", Icon: "%%%not-base64%%%"},
	}
	c.Process(context.Background(), "src", pkgs)

	if n := strings.Count(logs.String(), "ICON_ERROR"); n != 2 {
		t.Errorf("logged %d ICON_ERROR failures, want 2:\n%s", n, logs.String())
	}
	if got := stored(t, store, "src_broken.png"); string(got) != string(fallback) {
		t.Errorf("broken icon = %q, want default", got)
	}
}

func TestProcessInlineIcon(t *testing.T) {
	c, store := newTestCache(t, nil, Options{})

	// Inline icons are stored without sniffing.
	raw := []byte("not-an-image-but-stored")
	pkgs := []spk.RawPackage{
		{Package: "inline", Icon: base64.StdEncoding.EncodeToString(raw)},
		{Package: "unpadded", Icon: base64.RawStdEncoding.EncodeToString([]byte("ab"))},
		{Package: "garbage", Icon: "!!!not base64!!!"},
	}
	c.Process(context.Background(), "src", pkgs)

	if got := stored(t, store, "src_inline.png"); string(got) != string(raw) {
		t.Errorf("inline icon = %q", got)
	}
	if got := stored(t, store, "src_unpadded.png"); string(got) != "ab" {
		t.Errorf("unpadded icon = %q", got)
	}
	if got := stored(t, store, "src_garbage.png"); got != nil {
		t.Errorf("undecodable inline icon should be skipped, got %q", got)
	}
}

func TestThumbnailWinsOverInlineIcon(t *testing.T) {
	server := iconServer(t, nil)
	c, store := newTestCache(t, newFetcher(t), Options{})

	pkgs := []spk.RawPackage{{
		Package:    "both",
		Icon:       base64.StdEncoding.EncodeToString([]byte("inline")),
		Thumbnails: spk.URLList{server.URL + "/ok/both.png"},
	}}
	c.Process(context.Background(), "src", pkgs)

	if got := stored(t, store, "src_both.png"); string(got) != string(pngBytes) {
		t.Errorf("icon = %q, want downloaded png", got)
	}
}

func TestSkipRuleStoresDefault(t *testing.T) {
	var hits atomic.Int32
	server := iconServer(t, &hits)
	c, store := newTestCache(t, newFetcher(t), Options{})

	pkgs := []spk.RawPackage{{Package: "tracked", Thumbnails: spk.URLList{server.URL + "/ok/piwik.php"}}}
	c.Process(context.Background(), "synologyitalia", pkgs)

	if hits.Load() != 0 {
		t.Errorf("skipped download hit the server %d times", hits.Load())
	}
	if got := stored(t, store, "synologyitalia_tracked.png"); string(got) != string(fallback) {
		t.Errorf("icon = %q, want default", got)
	}
}

func TestShouldStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name       string
		expiration time.Duration
		age        time.Duration
		exists     bool
		want       bool
	}{
		{"missing", 24 * time.Hour, 0, false, true},
		{"fresh", 24 * time.Hour, time.Hour, true, false},
		{"expired", 24 * time.Hour, 25 * time.Hour, true, true},
		{"exactly expiration", 24 * time.Hour, 24 * time.Hour, true, false},
		{"no expiration keeps forever", NoExpiration, 1000 * time.Hour, true, false},
		{"no expiration still stores missing", NoExpiration, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newTestCache(t, nil, Options{Expiration: tt.expiration})
			if tt.exists {
				if err := store.Set(ctx, "k", []byte("x")); err != nil {
					t.Fatal(err)
				}
				mtime, _, _ := store.ModTime(ctx, "k")
				now = mtime.Add(tt.age)
			}
			c.now = func() time.Time { return now }
			if got := c.shouldStore(ctx, "k"); got != tt.want {
				t.Errorf("shouldStore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFreshIconIsNotRefetched(t *testing.T) {
	var hits atomic.Int32
	server := iconServer(t, &hits)
	c, _ := newTestCache(t, newFetcher(t), Options{})

	pkgs := []spk.RawPackage{{Package: "p", Thumbnails: spk.URLList{server.URL + "/ok/p.png"}}}
	c.Process(context.Background(), "src", pkgs)
	c.Process(context.Background(), "src", pkgs)

	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
}

func TestConcurrentIdenticalIconsDownloadOnce(t *testing.T) {
	var hits atomic.Int32
	server := iconServer(t, &hits)
	c, store := newTestCache(t, newFetcher(t), Options{Workers: 8})

	pkgs := []spk.RawPackage{{Package: "shared", Thumbnails: spk.URLList{server.URL + "/ok/shared.png"}}}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Process(context.Background(), "src", pkgs)
		}()
	}
	wg.Wait()

	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}
	if got := stored(t, store, "src_shared.png"); string(got) != string(pngBytes) {
		t.Errorf("icon = %q", got)
	}
}

func TestProcessManyPackagesBounded(t *testing.T) {
	server := iconServer(t, nil)
	c, store := newTestCache(t, newFetcher(t), Options{Workers: 2})

	var pkgs []spk.RawPackage
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		pkgs = append(pkgs, spk.RawPackage{Package: name, Thumbnails: spk.URLList{server.URL + "/ok/" + name}})
	}
	c.Process(context.Background(), "src", pkgs)

	for _, p := range pkgs {
		if got := stored(t, store, FileName("src", p.Package)); string(got) != string(pngBytes) {
			t.Errorf("%s: icon = %q", p.Package, got)
		}
	}
}

func TestProcessCanceledContext(t *testing.T) {
	c, store := newTestCache(t, nil, Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Returns promptly without panicking; work may or may not have started.
	pkgs := []spk.RawPackage{{Package: "x", Icon: base64.StdEncoding.EncodeToString([]byte("x"))}}
	c.Process(ctx, "src", pkgs)
	_ = stored(t, store, "src_x.png")
}

func TestGet(t *testing.T) {
	c, store := newTestCache(t, nil, Options{})
	ctx := context.Background()
	_ = store.Set(ctx, "src_p.png", pngBytes)

	data, ok, err := c.Get(ctx, "src_p.png")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if string(data) != string(pngBytes) {
		t.Errorf("data = %q", data)
	}
	if _, ok, _ := c.Get(ctx, "missing.png"); ok {
		t.Error("missing icon reported present")
	}
}

func TestDecodeBase64DataURI(t *testing.T) {
	data, err := decodeBase64("data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes))
	if err != nil {
		t.Fatal(err)
	}
	if Sniff(data) != PNG {
		t.Error("data URI payload should decode to the png")
	}
}
