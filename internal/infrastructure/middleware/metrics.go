package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marcos-nsantos/bg-remover/internal/infrastructure/observability"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latency labelled by route template, so unknown
// paths collapse into a single series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.HTTPStarted()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		m.HTTPFinished(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
