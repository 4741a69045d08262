// routes/referral_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/kaelo-io/referral_backend/controllers"
	"github.com/kaelo-io/referral_backend/middleware"
)

// RegisterReferralRoutes wires the referral engine's HTTP surface.
// Everything under /api requires a valid JWT; mutation of programs and
// blocks additionally requires the admin role.
func RegisterReferralRoutes(
	e *echo.Echo,
	authController *controllers.AuthController,
	programController *controllers.ProgramController,
	linkController *controllers.LinkController,
	usageController *controllers.LinkUsageController,
	blockController *controllers.BlockController,
	analyticsController *controllers.AnalyticsController,
) {
	// Public auth endpoints
	auth := e.Group("/api/auth")
	auth.POST("/login", authController.Login)
	auth.GET("/validate", authController.ValidateSession)

	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())

	api.GET("/auth/me", authController.GetCurrentUser)

	// Programs: reads are open to any authenticated user, writes are
	// admin only
	programs := api.Group("/referral/programs")
	programs.GET("", programController.SearchPrograms)
	programs.GET("/default", programController.GetDefaultProgram)
	programs.GET("/:id", programController.GetProgram)
	programs.POST("", programController.CreateProgram, middleware.RequireAdmin())
	programs.PUT("/:id", programController.UpdateProgram, middleware.RequireAdmin())
	programs.PATCH("/:id/status", programController.UpdateProgramStatus, middleware.RequireAdmin())
	programs.PATCH("/:id/default", programController.SetDefaultProgram, middleware.RequireAdmin())

	// Links: owner scoped
	links := api.Group("/referral/links")
	links.POST("", linkController.CreateLink)
	links.GET("", linkController.SearchLinks)
	links.GET("/:id", linkController.GetLink)
	links.PATCH("/:id/cancel", linkController.CancelLink)

	// Usages: claim and progress
	usages := api.Group("/referral/usages")
	usages.POST("/claim", usageController.ClaimLink)
	usages.GET("", usageController.SearchUsages)
	usages.GET("/mine/:programId", usageController.GetMyUsageForProgram)
	usages.POST("/:id/complete", usageController.CompleteUsage, middleware.RequireAdmin())

	// Blocks: admin only
	blocks := api.Group("/referral/blocks", middleware.RequireAdmin())
	blocks.POST("", blockController.BlockUser)
	blocks.POST("/unblock", blockController.UnblockUser)
	blocks.GET("/:userId", blockController.GetBlock)

	// Analytics
	analytics := api.Group("/referral/analytics")
	analytics.GET("/me", analyticsController.GetMyAnalytics)
	analytics.GET("", analyticsController.SearchAnalytics, middleware.RequireAdmin())
}
