package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/config"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// CronService runs the periodic settlement sweep and session housekeeping
type CronService struct {
	cron        *cron.Cron
	settlement  *SettlementService
	export      *ExportService
	notifier    *NotificationService
	uploader    ReportUploader
	sessionRepo repositories.USSDSessionRepository
	reporter    ErrorReporter
	cfg         *config.Config
	now         func() time.Time
}

// NewCronService creates a new cron service; uploader may be nil
func NewCronService(
	settlement *SettlementService,
	export *ExportService,
	notifier *NotificationService,
	uploader ReportUploader,
	sessionRepo repositories.USSDSessionRepository,
	reporter ErrorReporter,
	cfg *config.Config,
) *CronService {
	if reporter == nil {
		reporter = LogErrorReporter{}
	}
	return &CronService{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		settlement:  settlement,
		export:      export,
		notifier:    notifier,
		uploader:    uploader,
		sessionRepo: sessionRepo,
		reporter:    reporter,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Settlement.Schedule, s.settlementJob); err != nil {
		return fmt.Errorf("invalid SETTLEMENT_SCHEDULE %q: %w", s.cfg.Settlement.Schedule, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.Settlement.HousekeepingSchedule, s.housekeepingJob); err != nil {
		return fmt.Errorf("invalid HOUSEKEEPING_SCHEDULE %q: %w", s.cfg.Settlement.HousekeepingSchedule, err)
	}

	s.cron.Start()
	log.Printf("⏰ Cron started (settlement %s, housekeeping %s)", s.cfg.Settlement.Schedule, s.cfg.Settlement.HousekeepingSchedule)
	return nil
}

// Stop waits for running jobs to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Cron stopped")
}

func (s *CronService) settlementJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, _, err := s.RunSettlementCycle(ctx, "schedule"); err != nil {
		s.reporter.CaptureError(err, map[string]string{"component": "cron", "job": "settlement"})
	}
}

func (s *CronService) housekeepingJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.PurgeStaleSessions(ctx); err != nil {
		s.reporter.CaptureError(err, map[string]string{"component": "cron", "job": "housekeeping"})
	}
}

// RunSettlementCycle sweeps, exports the snapshots, mails them and uploads them.
// Report failures are captured but do not fail the cycle once the sweep succeeded.
func (s *CronService) RunSettlementCycle(ctx context.Context, trigger string) (*SettlementReport, []ReportFile, error) {
	report, err := s.settlement.Run(ctx, trigger)
	if err != nil {
		return nil, nil, fmt.Errorf("settlement: %w", err)
	}

	if !s.cfg.Reports.Enabled {
		return report, nil, nil
	}

	files, err := s.export.ExportWorkbooks(ctx, s.cfg.Reports.Dir)
	if err != nil {
		s.reporter.CaptureError(err, map[string]string{"component": "cron", "job": "export"})
		return report, files, nil
	}

	if err := s.notifier.SendReports(ctx, files); err != nil {
		s.reporter.CaptureError(err, map[string]string{"component": "cron", "job": "email"})
	}

	if s.uploader != nil {
		prefix := s.now().Format("2006/01/02")
		for _, f := range files {
			if _, err := s.uploader.UploadFile(ctx, prefix, f.Name, f.Path, XLSXContentType); err != nil {
				s.reporter.CaptureError(err, map[string]string{"component": "cron", "job": "upload", "file": f.Name})
			}
		}
	}

	return report, files, nil
}

// PurgeStaleSessions drops USSD sessions idle longer than the configured TTL
func (s *CronService) PurgeStaleSessions(ctx context.Context) (int64, error) {
	ttl := s.cfg.USSD.SessionTTL
	if ttl <= 0 {
		return 0, nil
	}

	cutoff := s.now().Add(-ttl)
	removed, err := s.sessionRepo.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge ussd sessions: %w", err)
	}
	if removed > 0 {
		log.Printf("🧹 Purged %d stale USSD sessions", removed)
	}
	return removed, nil
}
