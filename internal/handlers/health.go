package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/softdesk-dev/softdesk/internal/throttle"
	"gorm.io/gorm"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports liveness and whether the database answers. Redis is
// reported when the login guard uses it; an unreachable Redis does not fail
// the check.
func HealthCheck(conn *gorm.DB, guard throttle.LoginGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, database := http.StatusOK, "ok"

		sqlDB, err := conn.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Printf("Health check: database unreachable: %v", err)
			status, database = http.StatusServiceUnavailable, "unavailable"
		}

		redis := "disabled"
		if p, ok := guard.(pinger); ok {
			redis = "ok"
			if err := p.Ping(c.Request.Context()); err != nil {
				log.Printf("Health check: redis unreachable: %v", err)
				redis = "unavailable"
			}
		}

		c.JSON(status, gin.H{
			"status":    http.StatusText(status),
			"database":  database,
			"redis":     redis,
			"message":   "SoftDesk is running",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
