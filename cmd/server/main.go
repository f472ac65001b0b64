package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"momo-loanhub/internal/adapters/http/middleware"
	"momo-loanhub/internal/adapters/http/routes"
	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/storage"
	"momo-loanhub/internal/adapters/tracking"
	"momo-loanhub/internal/config"
	"momo-loanhub/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "momo-loanhub/docs" // Swagger docs
)

// @title MoMo LoanHub API
// @version 1.0
// @description USSD microloan registration, repayment schedules and mobile-money settlement

// @contact.name API Support

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the dashboard admin
	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed admin: %v", err)
	}

	tracker := tracking.NewTracker(cfg.Sentry)
	defer tracker.Close()

	// Optional report upload; a nil store must stay an untyped nil
	var uploader services.ReportUploader
	store, err := storage.NewReportStore(cfg.Storage)
	if err != nil {
		log.Printf("⚠️ Warning: report upload disabled: %v", err)
	} else if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureBucket(ctx); err != nil {
			log.Printf("⚠️ Warning: report bucket unavailable, upload disabled: %v", err)
		} else {
			uploader = store
		}
		cancel()
	}

	container := routes.NewContainer(db, cfg, tracker, uploader)

	// Settlement sweep + reports, USSD session housekeeping
	if err := container.Cron.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron: %v", err)
	}
	defer container.Cron.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "MoMo LoanHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, container, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
