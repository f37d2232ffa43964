package http

import (
	"net/http"

	"wcpay-checkout/internal/common/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers 503 while the checker reports anything but healthy
func HealthHandler(hc health.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := hc.Check(c.Request.Context())
		if status.Status != "healthy" {
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
