package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxOutcome      = "outcome"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		outcome := c.GetString(ctxOutcome)

		s.logger.WithRequest(c.Request.Method, c.Request.URL.RequestURI()).Info("request handled",
			"status", c.Writer.Status(),
			"outcome", outcome,
			"latency", latency,
			"request_id", c.GetString(ctxRequestID))

		if s.metrics != nil && route != "/metrics" {
			s.metrics.ObserveRequest(route, outcome, latency.Seconds())
		}
	}
}

// authRequired rejects requests without the configured token. It never
// changes the status code: the body alone carries the rejection.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.settings.AnonymousAccess() {
			c.Next()
			return
		}
		token, ok := c.GetQuery(authTokenParam)
		if !ok || !s.settings.CheckAuthToken(token) {
			s.reply(c, "", ErrNoAccess)
			c.Abort()
			return
		}
		c.Next()
	}
}
