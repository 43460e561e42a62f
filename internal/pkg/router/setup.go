package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs one group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// Webhook routes first: they must stay reachable without the service
	// token middleware the API router installs on its group.
	setup(app, NewWebhookRouter(), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
