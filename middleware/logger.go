package middleware

import (
	"io"
	"log/slog"
	"net/http"

	"blogapi/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
)

// Logger tags the request with an id and attaches a request-scoped slog
// logger to its context.
func Logger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDKey, requestID)

		log := base.With("request_id", requestID)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()
	}
}

// AccessLog keeps gin's formatter hook but routes the line through slog.
func AccessLog(base *slog.Logger) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output: io.Discard,
		Formatter: func(param gin.LogFormatterParams) string {
			level := slog.LevelInfo
			if param.StatusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			base.Log(param.Request.Context(), level, "request",
				"request_id", param.Keys[RequestIDKey],
				"method", param.Method,
				"path", param.Path,
				"status", param.StatusCode,
				"latency", param.Latency,
				"client_ip", param.ClientIP,
			)
			return ""
		},
	})
}

// ErrorHandler logs errors attached with c.Error and answers 500 when the
// handler did not write a response itself.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		log := logger.FromContext(c.Request.Context())
		for _, e := range c.Errors {
			log.Error("request error", "error", e.Err)
		}
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
	}
}
