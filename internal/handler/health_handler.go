package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/sala-api/internal/config"
	"github.com/noah-isme/sala-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks,omitempty"`
}

// HealthDeps lists the backing stores checked by the health endpoint.
// A nil dependency is skipped.
type HealthDeps struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, deps HealthDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Checks:      map[string]string{},
		}

		if deps.DB != nil {
			payload.Checks["database"] = checkResult(pingDB(ctx, deps.DB))
		}
		if deps.Redis != nil {
			payload.Checks["redis"] = checkResult(deps.Redis.Ping(ctx).Err())
		}

		for _, state := range payload.Checks {
			if state != "ok" {
				payload.Status = "degraded"
				return utils.SendSuccessWithStatus(c, fiber.StatusServiceUnavailable, "service degraded", payload)
			}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func checkResult(err error) string {
	if err != nil {
		return "down"
	}
	return "ok"
}
