// handlers/oracle_routes.go
package handlers

import (
	"bounty-escrow-system/middleware"
	"bounty-escrow-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupOracleRoutes(app *fiber.App, bountyService *services.BountyService) {
	// Inbound verdict callback. The identity check against the registered
	// oracle happens first thing inside DeliverVerdict — the middleware
	// only makes sure a caller identity is present at all.
	oracle := app.Group("/oracle", middleware.IdentityContextMiddleware())

	oracle.Post("/verdicts", bountyService.DeliverOracleVerdict)
}
