package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/egresados-intake/internal/service"
)

// UnmatchedRoute labels requests that hit no registered route, so requests
// for arbitrary paths cannot grow the label set.
const UnmatchedRoute = "unmatched"

// Metrics observes latency and outcome of every request, labelled by the
// route template (/uploads/:filename, not the file asked for). Paths listed
// in skip are not observed.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
