// Package tracking forwards background failures to Sentry.
package tracking

import (
	"log"
	"time"

	"momo-loanhub/internal/config"

	"github.com/getsentry/sentry-go"
)

// Tracker wraps the Sentry client; a zero Tracker only logs
type Tracker struct {
	initialized bool
}

// NewTracker initializes Sentry when a DSN is configured
func NewTracker(cfg config.SentryConfig) *Tracker {
	if cfg.DSN == "" {
		log.Println("⚠️ SENTRY_DSN not set, error tracking disabled")
		return &Tracker{}
	}

	environment := cfg.Environment
	if environment == "" {
		environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: environment,
	})
	if err != nil {
		log.Printf("❌ Sentry initialization failed: %v", err)
		return &Tracker{}
	}

	log.Println("✅ Sentry initialized")
	return &Tracker{initialized: true}
}

// CaptureError sends err with tags
func (t *Tracker) CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if !t.initialized {
		log.Printf("❌ %v %v", err, tags)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Close flushes pending events
func (t *Tracker) Close() {
	if t.initialized {
		sentry.Flush(2 * time.Second)
	}
}
