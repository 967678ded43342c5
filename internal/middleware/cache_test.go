package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/session-booking/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if status != http.StatusOK || string(body) != `{"ok":true}` {
		t.Fatalf("expected 200 and body, got %d %q", status, body)
	}
	if got.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON {
		t.Fatalf("expected content type header, got %v", got)
	}
	if _, _, _, ok := decodePayload(bs[:5]); ok {
		t.Fatalf("expected short payload to fail")
	}
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "cache"}
	a := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/sessions?from=2026-10-14", nil), httptest.NewRecorder())
	b := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/sessions?from=2026-10-15", nil), httptest.NewRecorder())
	if cacheKeyFrom(cfg, a) == cacheKeyFrom(cfg, b) {
		t.Fatalf("expected different keys for different queries")
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	if !cw.truncated() {
		t.Fatalf("expected truncated capture")
	}
	if rec.Body.String() != "abcdef" {
		t.Fatalf("expected full body forwarded, got %q", rec.Body.String())
	}
}

func TestRedisCacheDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "live") },
		NewRedisCache(config.CacheConfig{Enabled: true}, nil, zerolog.Nop()))
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "live" || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("expected uncached response, got %q %q", rec.Body.String(), rec.Header().Get("X-Cache"))
	}
}
