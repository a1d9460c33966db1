package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"medusa-storefront/internal/config"
	"medusa-storefront/internal/logger"
	"medusa-storefront/internal/metrics"
)

const requestIDHeader = "X-Request-Id"

// maxBodyBytes bounds every /api request body.
const maxBodyBytes = 64 << 10

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

func requestID(logg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(logg.WithRequestID(c.Request.Context(), reqID))
		c.Next()
	}
}

func accessLog(logg *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logg.WithFields(c.Request.Context(), map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(ctx)
		start := time.Now()

		c.Next()

		ctx = logg.WithFields(ctx, map[string]any{
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if len(c.Errors) > 0 {
			logg.Warn(logg.WithField(ctx, "errors", c.Errors.String()), "request.complete")
			return
		}
		logg.Info(ctx, "request.complete")
	}
}

func observe(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		m.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware returns nil when no origin is configured.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return nil
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Type", "X-Requested-With", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           5 * time.Minute,
	})
}

// limitBody caps the request body at n bytes; reads past it fail and the
// handler answers with its invalid-body message.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
