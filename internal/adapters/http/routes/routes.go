package routes

import (
	"momo-loanhub/internal/adapters/http/handlers"
	"momo-loanhub/internal/adapters/http/middleware"
	"momo-loanhub/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, c *Container, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	ussdHandler := handlers.NewUSSDHandler(c.USSD)
	authHandler := handlers.NewAuthHandler(c.Auth, cfg)
	dashboardHandler := handlers.NewDashboardHandler(c.Dashboard)
	userHandler := handlers.NewUserHandler(c.Users)
	momopayHandler := handlers.NewMoMoPayHandler(c.Floats)
	settlementHandler := handlers.NewSettlementHandler(c.Cron)
	exportHandler := handlers.NewExportHandler(c.Export)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Telecom gateway (public)
	app.Post(middleware.USSDPath, ussdHandler.Callback)

	// Browser login
	app.Get(middleware.LoginPath, authHandler.LoginPage)
	app.Post(middleware.LoginPath, middleware.AuthRateLimiter(), authHandler.Login)
	app.Get("/logout", authHandler.Logout)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, dashboardHandler, userHandler,
		momopayHandler, settlementHandler, exportHandler, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	dashboardHandler *handlers.DashboardHandler,
	userHandler *handlers.UserHandler,
	momopayHandler *handlers.MoMoPayHandler,
	settlementHandler *handlers.SettlementHandler,
	exportHandler *handlers.ExportHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)

	// Dashboard routes
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Get("/", dashboardHandler.GetDashboard)
	dashboardRoutes.Get("/summary", dashboardHandler.GetSummary)

	// Borrower routes
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Get("/", userHandler.ListUsers)
	userRoutes.Get("/:id", userHandler.GetUser)
	userRoutes.Get("/:id/repayments", userHandler.GetRepayments)
	userRoutes.Put("/:id", userHandler.UpdateUser)
	userRoutes.Delete("/:id", userHandler.DeleteUser)

	repaymentRoutes := router.Group("/repayments")
	repaymentRoutes.Use(middleware.AuthMiddleware(cfg))
	repaymentRoutes.Post("/:id/mark-paid", userHandler.MarkPaid)

	// Float account routes
	momopayRoutes := router.Group("/momopays")
	momopayRoutes.Use(middleware.AuthMiddleware(cfg))
	momopayRoutes.Get("/", momopayHandler.List)
	momopayRoutes.Put("/", momopayHandler.Upsert)
	momopayRoutes.Get("/:phone", momopayHandler.Get)
	momopayRoutes.Delete("/:phone", momopayHandler.Delete)

	settlementRoutes := router.Group("/settlement")
	settlementRoutes.Use(middleware.AuthMiddleware(cfg))
	settlementRoutes.Post("/run", middleware.StrictRateLimiter(), settlementHandler.Run)

	exportRoutes := router.Group("/export")
	exportRoutes.Use(middleware.AuthMiddleware(cfg))
	exportRoutes.Get("/users.csv", exportHandler.UsersCSV)
	exportRoutes.Get("/users.xlsx", exportHandler.UsersXLSX)
}
