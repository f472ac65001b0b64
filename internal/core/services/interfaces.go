package services

import (
	"context"
	"log"
)

// FloatSharer distributes agent commission once an installment is collected.
// It is invoked after automatic settlement and after a manual mark-paid.
type FloatSharer interface {
	ShareFloat(ctx context.Context, repaymentID uint) error
}

// NoopFloatSharer is the default FloatSharer; commission rules are not defined yet
type NoopFloatSharer struct{}

// ShareFloat does nothing
func (NoopFloatSharer) ShareFloat(context.Context, uint) error {
	return nil
}

// ErrorReporter forwards background failures to an error tracker
type ErrorReporter interface {
	CaptureError(err error, tags map[string]string)
}

// LogErrorReporter only logs
type LogErrorReporter struct{}

// CaptureError logs err with its tags
func (LogErrorReporter) CaptureError(err error, tags map[string]string) {
	log.Printf("❌ %v %v", err, tags)
}

// ReportUploader stores report files outside the host
type ReportUploader interface {
	UploadFile(ctx context.Context, prefix, name, localPath, contentType string) (string, error)
}
