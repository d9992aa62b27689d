package middlewares

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"raceconnect/metrics"
)

const (
	cacheHeader      = "X-Cache"
	sectionCacheKey  = "cache:marathons:section"
	upcomingCacheKey = "cache:marathons:upcoming:"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// keeps redis keys short
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKeyFrom names the redis key for a cacheable marathon listing. Writes
// and routes outside the public listings are not cached.
func CacheKeyFrom(c *gin.Context) string {
	if c.Request.Method != http.MethodGet {
		return ""
	}
	switch c.FullPath() {
	case "/marathonSection":
		return sectionCacheKey
	case "/upcomingMarathons":
		return upcomingCacheKey + sha1Hex(c.Request.URL.RawQuery)
	default:
		return ""
	}
}

// ResponseCache serves listing responses from redis and stores fresh 2xx
// responses for ttl. A nil client disables caching. Entries are purged by
// utils.CacheInvalidator on every marathon write.
func ResponseCache(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := CacheKeyFrom(c)
		if rdb == nil || key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		logger := zerolog.Ctx(ctx)

		b, err := rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil && len(b) > 0:
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
				for k, vals := range hit.Header {
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set(cacheHeader, "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
			metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		case err != nil && err != redis.Nil:
			logger.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
			metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		default:
			metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		}

		// set before the handler writes, headers are frozen after that
		c.Writer.Header().Set(cacheHeader, "MISS")
		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw

		c.Next()

		if bw.Status() < 200 || bw.Status() >= 300 {
			return
		}
		header := c.Writer.Header().Clone()
		header.Del(cacheHeader)
		header.Del(RequestIDHeader)
		item := cachedBody{Status: bw.Status(), Header: header, Body: buf.Bytes()}

		var o bytes.Buffer
		if err := gob.NewEncoder(&o).Encode(item); err != nil {
			return
		}
		if err := rdb.Set(ctx, key, o.Bytes(), ttl).Err(); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("cache store failed")
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
