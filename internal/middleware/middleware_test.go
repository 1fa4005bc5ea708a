package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/backoffice/internal/config"
	"github.com/iliyamo/backoffice/internal/utils"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "bo-cache",
		MaxBodyBytes: 1 << 20,
	}
}

func TestRedisCache_HitAfterMissAndPurgeOnWrite(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := cacheCfg()
	calls := 0

	e := echo.New()
	g := e.Group("/v1", NewRedisCache(cfg, rdb), PurgeCache(cfg, rdb))
	g.GET("/bookings/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"success": true, "calls": calls})
	})
	g.PATCH("/bookings/:id", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	})

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bookings/1", nil))
		return rec
	}

	first := get()
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get()
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
	assert.Len(t, mr.Keys(), 1)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/v1/bookings/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, mr.Keys())

	third := get()
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCache_SkipsErrors(t *testing.T) {
	mr, rdb := newRedis(t)
	e := echo.New()
	e.GET("/v1/bookings/:id", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found"})
	}, NewRedisCache(cacheCfg(), rdb))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/bookings/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, mr.Keys())
}

func TestTokenBucket_BlocksAfterCapacity(t *testing.T) {
	_, rdb := newRedis(t)
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: 2 * time.Hour, KeyStrategy: "ip", Prefix: "bo-rl",
	}
	e := echo.New()
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, NewTokenBucket(cfg, rdb))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		e.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	retry, err := strconv.Atoi(last.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
}

func TestTokenBucket_FailsOpenWithoutRedis(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "bo-rl"}
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewTokenBucket(cfg, rdb))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/v1/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": currentUserID(c)})
	}, JWTAuth("secret"), RequireRole("ADMIN"))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer nope").Code)

	staff, err := utils.NewAccessToken("secret", 5, "STAFF", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do("Bearer "+staff.Token).Code)

	admin, err := utils.NewAccessToken("secret", 7, "ADMIN", 5)
	require.NoError(t, err)
	rec := do("Bearer " + admin.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"7"}`, rec.Body.String())
}
