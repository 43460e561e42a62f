package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/chatriver/chatriver/app/controllers"
	"github.com/chatriver/chatriver/internal/pkg/cache"
	"github.com/chatriver/chatriver/internal/pkg/constants"
	"github.com/chatriver/chatriver/internal/pkg/env"
)

type WebhookRouter struct {
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	controllers.InitializeWebhookController()
	wc := controllers.GetWebhookController()

	// Generous limit: the provider retries aggressively and a burst of
	// deliveries for one account is normal traffic.
	webhooks := app.Group("/webhooks", limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))

	webhooks.Get("/platform/:path", wc.HandleVerification)
	webhooks.Post("/platform/:path", wc.HandleDelivery)

	app.Get(constants.HealthRoute, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewWebhookRouter() *WebhookRouter {
	return &WebhookRouter{}
}

// newLimiterStorage backs the rate limiter with Redis so limits are shared
// across instances. Reuses the cache connection settings, on a separate
// database.
func newLimiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient := cache.GetClient(); cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1, // Separate database for limiter state (cache uses DB 0)
		Reset:    false,
	})
}
