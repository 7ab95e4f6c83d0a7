// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

// AuditLogMiddleware stores one audit row per mutating request once the handler has answered.
// Request bodies are never stored since they may carry passwords.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAudited(c.Request) {
			c.Next()
			return
		}

		c.Next()

		var userUUID *uuid.UUID
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			if parsed, err := uuid.Parse(userID); err == nil {
				userUUID = &parsed
			}
		}
		username, _ := c.Get(utils.ContextKeyUsername)
		usernameStr, _ := username.(string)

		auditLog := &models.AuditLog{
			UserID:       userUUID,
			Username:     usernameStr,
			Action:       c.Request.Method + " " + c.Request.URL.Path,
			ResourceType: extractResourceType(c.Request.URL.Path),
			ResourceID:   extractResourceID(c),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}

		if err := db.WithContext(c.Request.Context()).Create(auditLog).Error; err != nil {
			logrus.WithError(err).Error("Failed to create audit log")
		}
	}
}

func isAudited(r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodOptions || r.Method == http.MethodHead {
		return false
	}
	return r.URL.Path != "/health" && r.URL.Path != "/metrics"
}

// extractResourceType returns the first path segment after /menu, or the first segment otherwise.
func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "menu" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(c *gin.Context) string {
	for _, name := range []string{"referencia", "username", "nrVenda"} {
		if value := c.Param(name); value != "" {
			return value
		}
	}
	return ""
}

// RequestLogger writes one structured logrus line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if userID, ok := utils.GetUserIDFromContext(c); ok {
			fields["user_id"] = userID
		}

		entry := logrus.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
