package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// RequestLogger logs every request once it has been handled.
func RequestLogger(logger *slog.Logger) drift.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *drift.Context) {
		start := time.Now()

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"duration", time.Since(start),
		}
		if userID := GetUserID(c); userID != uuid.Nil {
			attrs = append(attrs, "user_id", userID)
		}
		logger.InfoContext(c.Request.Context(), "request", attrs...)
	}
}
