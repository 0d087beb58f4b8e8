package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stock-reservation/internal/config"
)

// captureWriter captures the response body while forwarding it to the
// client so a successful response can be stored in Redis afterwards.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size < cw.limit {
		remain := cw.limit - cw.size
		if cw.limit <= 0 || int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else if remain > 0 {
			cw.buf.Write(b[:remain])
		}
		cw.size += int64(len(b))
	}
	return cw.ResponseWriter.Write(b)
}

// NewRedisCache caches successful GET responses (JSON bodies) under a
// key derived from route and query string.  When caching is disabled or
// no Redis client is available, the middleware is a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg.Prefix, c)

			if body, err := rdb.Get(ctx, key).Bytes(); err == nil && len(body) > 0 {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
				// Best effort: a failed cache write never fails the request.
				_ = rdb.SetEx(context.Background(), key, cw.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}

// cacheKey hashes route and query string under the configured prefix.
func cacheKey(prefix string, c echo.Context) string {
	sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}
