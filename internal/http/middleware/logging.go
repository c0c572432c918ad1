// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the request-scoped logger and a
// panic-safe recovery handler:
//
//   - RequestID() ensures every request carries a stable correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - RequestLogger() attaches a zerolog.Logger carrying the request ID, the
//     signed-in user ID, method and route, and logs any errors handlers
//     attached with c.Error once the request completes.
//   - Recovery() converts panics into a 500 response: JSON for the API,
//     an HTML error page for everything else.
//   - LoggerFrom() retrieves the request-scoped logger.
//
// Recommended order: RequestID, RedactingLogger, Recovery, Session,
// RequestLogger.
package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key of the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
// An incoming X-Request-ID is reused; otherwise a UUIDv4 is generated. The
// ID is echoed in the response header and stored under "requestID".
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// RequestLogger stores a request-scoped zerolog.Logger in the Gin context
// and, after the handler chain, logs errors recorded via c.Error.
//
// Place it after Session() so the logger carries the user ID.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("user_id", userIDString(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		if len(c.Errors) > 0 {
			l.Error().
				Int("status", c.Writer.Status()).
				Str("errors", truncate(c.Errors.String(), maxQueryLogLength)).
				Msg("request failed")
		}
	}
}

// RecoveryOptions selects the response written after a panic.
//
// Requests whose path starts with APIPrefix receive the JSON error envelope.
// Other requests are passed to HTML when set (it should render an error
// page with status 500); with HTML nil every request gets JSON.
type RecoveryOptions struct {
	APIPrefix string
	HTML      func(c *gin.Context)
}

// Recovery intercepts panics, logs a stack trace, and writes a 500 response
// if nothing has been written yet.
func Recovery(opt RecoveryOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid := RequestIDFrom(c)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", rid).
					Msg("panic recovered")

				if c.Writer.Written() {
					c.AbortWithStatus(http.StatusInternalServerError)
					return
				}
				c.Header(requestIDHeader, rid)
				if opt.HTML != nil && !isAPIPath(c, opt.APIPrefix) {
					c.Abort()
					opt.HTML(c)
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": rid,
					"code":       CodeInternal,
					"message":    "internal server error",
				})
			}
		}()
		c.Next()
	}
}

func isAPIPath(c *gin.Context, prefix string) bool {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return false
	}
	p := c.Request.URL.Path
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// LoggerFrom returns the request-scoped zerolog.Logger, or the global logger
// when RequestLogger is not installed. The result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString converts an arbitrary interface to a string, returning an empty
// string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it truncates
// s to max bytes and appends an ellipsis. A max <= 0 disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
