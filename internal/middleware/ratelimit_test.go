package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, mr *miniredis.Miniredis, limit int) http.Handler {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:auth",
	}
	return RateLimitMiddleware(client, config, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func hit(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)
	mr := miniredis.RunT(t)

	properties.Property("requests beyond the limit are blocked with 429", prop.ForAll(
		func(limit int, excess int) bool {
			mr.FlushAll()
			handler := newLimitedHandler(t, mr, limit)

			allowed, blocked := 0, 0
			for i := 0; i < limit+excess; i++ {
				switch hit(handler, "192.168.1.100:51234").Code {
				case http.StatusOK:
					allowed++
				case http.StatusTooManyRequests:
					blocked++
				}
			}
			return allowed == limit && blocked == excess
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitMiddleware_Headers(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 2)

	w := hit(handler, "10.0.0.1:1000")
	require.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	hit(handler, "10.0.0.1:1001")
	w = hit(handler, "10.0.0.1:1002")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_CountsPerClientHost(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 1)

	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1000").Code)
	// Same host on a different source port shares the window
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:2000").Code)
	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1000").Code)
}

func TestRateLimitMiddleware_KeysOnRemoteHostOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 1)

	send := func(userID, forwarded string) int {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "10.0.0.9:1000"
		req.Header.Set("X-Forwarded-For", forwarded)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send("user-a", "198.51.100.1"))
	require.Equal(t, http.StatusTooManyRequests, send("user-b", "198.51.100.2"))
	require.True(t, mr.Exists("ratelimit:auth:10.0.0.9"))
}

func TestRateLimitMiddleware_WindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	handler := newLimitedHandler(t, mr, 1)

	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1000").Code)
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:1000").Code)

	mr.FastForward(time.Minute + time.Second)

	require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1000").Code)
}

func TestRateLimitMiddleware_FailsOpenWithoutRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	handler := newLimitedHandler(t, mr, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1000").Code)
	}
}
