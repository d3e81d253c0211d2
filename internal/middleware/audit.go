package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/egresados-intake/pkg/middleware/requestid"
)

// Audit records reviewer actions after the handler ran. Requests that
// failed with a 4xx/5xx status are recorded too, marked as rejected.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Bool("rejected", c.Writer.Status() >= 400),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		}
		if principal, ok := AdminFromContext(c); ok {
			fields = append(fields, zap.Int64("admin_id", principal.AdminID), zap.String("usuario", principal.Username))
		}
		if id := c.PostForm("id"); id != "" {
			fields = append(fields, zap.String("solicitud_id", id))
		}
		if name := c.Param("filename"); name != "" {
			fields = append(fields, zap.String("file", name))
		}
		if status := c.Query("estatus"); status != "" {
			fields = append(fields, zap.String("filter", status))
		}
		audit.Info("admin action", fields...)
	}
}
