package routes

import (
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/config"
	"momo-loanhub/internal/core/services"

	"gorm.io/gorm"
)

// Container holds the wired services shared by routes and background jobs
type Container struct {
	Auth         *services.AuthService
	USSD         *services.USSDService
	Registration *services.RegistrationService
	Users        *services.UserService
	Dashboard    *services.DashboardService
	Floats       *services.FloatAccountService
	Settlement   *services.SettlementService
	Export       *services.ExportService
	Notification *services.NotificationService
	Cron         *services.CronService
}

// NewContainer wires repositories into services.
// reporter and uploader are optional; pass untyped nil to disable them.
func NewContainer(
	db *gorm.DB,
	cfg *config.Config,
	reporter services.ErrorReporter,
	uploader services.ReportUploader,
) *Container {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	repaymentRepo := repositories.NewRepaymentRepository(db)
	momopayRepo := repositories.NewMoMoPayRepository(db)
	sessionRepo := repositories.NewUSSDSessionRepository(db)
	adminRepo := repositories.NewAdminRepository(db)

	// Initialize services
	sharer := services.NoopFloatSharer{}
	registration := services.NewRegistrationService(db, userRepo, repaymentRepo, sessionRepo)
	settlement := services.NewSettlementService(
		db,
		userRepo,
		repaymentRepo,
		momopayRepo,
		sharer,
		reporter,
		services.PolicyFromConfig(cfg.Settlement),
	)
	export := services.NewExportService(userRepo, repaymentRepo, momopayRepo)
	notification := services.NewNotificationService(cfg.Mail)

	return &Container{
		Auth:         services.NewAuthService(adminRepo, cfg),
		USSD:         services.NewUSSDService(sessionRepo, userRepo, repaymentRepo, registration, cfg.USSD),
		Registration: registration,
		Users:        services.NewUserService(db, userRepo, repaymentRepo, sharer),
		Dashboard:    services.NewDashboardService(db, userRepo, repaymentRepo),
		Floats:       services.NewFloatAccountService(momopayRepo),
		Settlement:   settlement,
		Export:       export,
		Notification: notification,
		Cron:         services.NewCronService(settlement, export, notification, uploader, sessionRepo, reporter, cfg),
	}
}
