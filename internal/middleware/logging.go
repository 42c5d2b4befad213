// internal/middleware/logging.go

package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LogMiddleware logs each HTTP request with Logrus once it completes.
// WebSocket upgrades are skipped; their lifetime is logged by the WS handler.
func LogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		if strings.EqualFold(c.Request.Header.Get("Upgrade"), "websocket") {
			return
		}
		fields := logrus.Fields{
			"method":   method,
			"path":     path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"remote":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}
		logger.WithFields(fields).Info("HTTP Request")
	}
}

// LogWebSocketConnect logs a message when a WebSocket client connects.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr string, participantID string) {
	logger.WithFields(logrus.Fields{
		"remote":      remoteAddr,
		"participant": participantID,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a message when a WebSocket client disconnects.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr string, participantID string, err error) {
	fields := logrus.Fields{
		"remote":      remoteAddr,
		"participant": participantID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
