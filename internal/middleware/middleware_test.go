package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/config"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/metrics"
)

type stubAuth map[string]uint64

func (s stubAuth) Authenticate(tok string) (uint64, error) {
	if id, ok := s[tok]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBearerToken(t *testing.T) {
	e := echo.New()
	for header, want := range map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, header)
		assert.Equal(t, want, BearerToken(e.NewContext(req, httptest.NewRecorder())), header)
	}
}

func TestIdentify_NeverRejects(t *testing.T) {
	e := echo.New()
	e.Use(Identify(stubAuth{"good": 7}))
	e.GET("/who", func(c echo.Context) error { return c.String(http.StatusOK, userID(c)) })

	assert.Equal(t, "7", do(e, http.MethodGet, "/who", "good").Body.String())
	assert.Equal(t, "guest", do(e, http.MethodGet, "/who", "forged").Body.String())
	assert.Equal(t, "guest", do(e, http.MethodGet, "/who", "").Body.String())
}

func rateCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func TestTokenBucket_Redis(t *testing.T) {
	_, rdb := newRedis(t)
	e := echo.New()
	e.Use(NewTokenBucket(rateCfg(), rdb, discard()))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
	second := do(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	blocked := do(e, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))
}

func TestTokenBucket_FallsBackWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer rdb.Close()

	e := echo.New()
	e.Use(NewTokenBucket(rateCfg(), rdb, discard()))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(e, http.MethodGet, "/x", "").Code)
}

func TestTokenBucket_Disabled(t *testing.T) {
	cfg := rateCfg()
	cfg.Enabled = false
	e := echo.New()
	e.Use(NewTokenBucket(cfg, nil, discard()))
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/x", "").Code)
	}
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          time.Minute,
		KeyStrategy:  "user_route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func newCachedEcho(rdb *redis.Client, hits *int) *echo.Echo {
	return newCachedEchoWith(cacheCfg(), rdb, hits)
}

func newCachedEchoWith(cfg config.CacheConfig, rdb *redis.Client, hits *int) *echo.Echo {
	e := echo.New()
	e.Use(Identify(stubAuth{"alice": 1, "bob": 2}))
	e.Use(NewRedisCache(cfg, rdb, discard()))
	e.GET("/items", func(c echo.Context) error {
		*hits++
		return c.JSON(http.StatusOK, map[string]any{"user": userID(c), "n": *hits})
	})
	e.POST("/items", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	return e
}

func TestRedisCache_PerUserAndInvalidation(t *testing.T) {
	_, rdb := newRedis(t)
	var hits int
	e := newCachedEcho(rdb, &hits)

	first := do(e, http.MethodGet, "/items", "alice")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	again := do(e, http.MethodGet, "/items", "alice")
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Equal(t, 1, hits)

	other := do(e, http.MethodGet, "/items", "bob")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Contains(t, other.Body.String(), `"user":"2"`)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/items", "bob").Code)
	after := do(e, http.MethodGet, "/items", "alice")
	assert.Equal(t, "MISS", after.Header().Get("X-Cache"))
	assert.Equal(t, 3, hits)
}

func TestRedisCache_UsersNeverShareEntries(t *testing.T) {
	for _, strategy := range []string{"route", "route_query", "user_route", "user_route_query", ""} {
		t.Run("strategy="+strategy, func(t *testing.T) {
			t.Setenv("CACHE_KEY_STRATEGY", strategy)
			cfg := config.LoadCacheConfig()
			cfg.TTL = time.Minute

			_, rdb := newRedis(t)
			var hits int
			e := newCachedEchoWith(cfg, rdb, &hits)

			first := do(e, http.MethodGet, "/items?ordering=title", "alice")
			assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
			assert.Contains(t, first.Body.String(), `"user":"1"`)

			other := do(e, http.MethodGet, "/items?ordering=title", "bob")
			assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
			assert.Contains(t, other.Body.String(), `"user":"2"`)
			assert.Equal(t, 2, hits)
		})
	}
}

func TestRedisCache_SkipsAnonymous(t *testing.T) {
	_, rdb := newRedis(t)
	var hits int
	e := newCachedEcho(rdb, &hits)

	do(e, http.MethodGet, "/items", "")
	do(e, http.MethodGet, "/items", "")
	assert.Equal(t, 2, hits)
}

func TestDecodePayload_RoundTrip(t *testing.T) {
	bs, err := encodePayload(200, http.Header{"Content-Type": {"application/json"}}, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, hdr, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, 200, status)
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{1, 2})
	assert.False(t, ok)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	e := echo.New()
	e.Use(Identify(stubAuth{"alice": 1}))
	e.Use(RequestLogger(log, metrics.Nop{}))
	e.GET("/tasks/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "task not found")
	})

	rec := do(e, http.MethodGet, "/tasks/9", "alice")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/tasks/9", entry["path"])
	assert.Equal(t, "/tasks/:id", entry["route"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, "1", entry["user_id"])
	assert.NotContains(t, buf.String(), "Bearer")
}
