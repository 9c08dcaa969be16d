// handlers/bounty_routes.go
package handlers

import (
	"bounty-escrow-system/middleware"
	"bounty-escrow-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBountyRoutes(app *fiber.App, bountyService *services.BountyService) {
	// 🔓 Public reads — no caller identity, but **still require Gateway auth**
	app.Get("/bounties/count", bountyService.GetBountyCountEndpoint)
	app.Get("/bounties", bountyService.GetAllBounties)
	app.Get("/bounties/:id", bountyService.GetBountyByID)
	app.Get("/accounts/:address/balance", bountyService.GetAccountBalanceEndpoint)

	// 🔐 Secured routes — require caller identity, enforced via middleware
	secured := app.Group("/", middleware.IdentityContextMiddleware())

	secured.Post("/bounties", bountyService.CreateBounty)
	secured.Post("/bounties/:id/responses", bountyService.SubmitBountyResponse)

	// Observer event stream
	secured.Get("/events/stream", bountyService.StreamEventsSSE)

	// 🔒 Owner-only routes (ownership re-checked against the registry
	// config inside the service — the group only guarantees an identity)
	admin := secured.Group("/admin")
	admin.Put("/oracle", bountyService.UpdateOracleIdentity)
	admin.Post("/accounts/credit", bountyService.CreditAccountEndpoint)
}
