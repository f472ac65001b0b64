package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"momo-loanhub/internal/config"
)

// NotificationService emails report snapshots through the Mailtrap send API
type NotificationService struct {
	cfg    config.MailConfig
	client *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg config.MailConfig) *NotificationService {
	return &NotificationService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsEnabled checks if report email is configured
func (s *NotificationService) IsEnabled() bool {
	return s.cfg.APIURL != "" && s.cfg.APIKey != "" && s.cfg.From != "" && len(s.cfg.To) > 0
}

// EmailAddress is a sender or recipient
type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EmailAttachment is a base64 encoded file
type EmailAttachment struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Type        string `json:"type,omitempty"`
	Disposition string `json:"disposition,omitempty"`
}

// EmailRequest is the send API payload
type EmailRequest struct {
	From        EmailAddress      `json:"from"`
	To          []EmailAddress    `json:"to"`
	Subject     string            `json:"subject"`
	Text        string            `json:"text,omitempty"`
	Category    string            `json:"category,omitempty"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
}

// SendReports mails the given snapshots; missing files are skipped
func (s *NotificationService) SendReports(ctx context.Context, files []ReportFile) error {
	if !s.IsEnabled() {
		log.Println("⚠️ Report email not configured, skipping")
		return nil
	}

	req := EmailRequest{
		From:     EmailAddress{Email: s.cfg.From, Name: "Loan Reports"},
		Subject:  "Loan Reports – Registered Users & Repayment Schedules",
		Text:     "Find attached the latest loan registration and repayment reports.",
		Category: "loan_reports",
	}
	for _, addr := range s.cfg.To {
		req.To = append(req.To, EmailAddress{Email: addr})
	}

	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			log.Printf("⚠️ File not found, skipping: %s", f.Path)
			continue
		}
		req.Attachments = append(req.Attachments, EmailAttachment{
			Content:     base64.StdEncoding.EncodeToString(data),
			Filename:    f.Name,
			Type:        XLSXContentType,
			Disposition: "attachment",
		})
	}

	if err := s.send(ctx, req); err != nil {
		return err
	}
	log.Printf("📧 Report email sent to %d recipients (%d attachments)", len(req.To), len(req.Attachments))
	return nil
}

func (s *NotificationService) send(ctx context.Context, emailReq EmailRequest) error {
	payload, err := json.Marshal(emailReq)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail API returned status: %d", resp.StatusCode)
	}
	return nil
}
