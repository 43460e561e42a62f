package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/chatriver/chatriver/app/controllers"
	"github.com/chatriver/chatriver/app/repository"
	"github.com/chatriver/chatriver/internal/pkg/constants"
	"github.com/chatriver/chatriver/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	repository.InitializeFactory()
	controllers.InitializeEventLogController()
	controllers.InitializeOpsController()

	api := app.Group("/api", limiter.New(limiter.Config{Storage: newLimiterStorage()}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes, internal callers only
	v1 := api.Group("/v1", middleware.ServiceTokenMiddleware())
	v1.Get(constants.EventLogRoute, controllers.GetEventLogController().HandleListEvents)
	v1.Get(constants.OpsQueueRoute, controllers.GetOpsController().HandleQueueStats)
	v1.Post(constants.OpsReconcileRoute, controllers.GetOpsController().HandleReconcileSweep)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
