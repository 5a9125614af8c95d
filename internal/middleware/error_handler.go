package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"heladeria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrorHandler answers 500 for errors handlers attached with c.Error and
// did not map themselves. The error goes to the log, the client only gets
// the request id.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		reqID := c.GetString(RequestIDKey)
		log.Error().
			Err(last.Err).
			Str("request_id", reqID).
			Str("route", c.FullPath()).
			Str("method", c.Request.Method).
			Int("errors", len(c.Errors)).
			Msg("request failed")

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.Interno(reqID))
		}
	}
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			reqID := c.GetString(RequestIDKey)
			log.Error().
				Str("request_id", reqID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.Interno(reqID))
			} else {
				c.Abort()
			}
		}()
		c.Next()
	}
}

// Logger writes one line per request: error level for 5xx, warn for 4xx.
// Health and metrics scrapes are logged at debug.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var level zerolog.Level
		switch path := c.Request.URL.Path; {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		case path == "/health" || path == "/metrics":
			level = zerolog.DebugLevel
		default:
			level = zerolog.InfoLevel
		}
		log.WithLevel(level).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Str("ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
