package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/core/domain"

	"gorm.io/gorm"
)

// RegistrationService promotes collected registration data into a borrower with a schedule
type RegistrationService struct {
	db            *gorm.DB
	userRepo      repositories.UserRepository
	repaymentRepo repositories.RepaymentRepository
	sessionRepo   repositories.USSDSessionRepository
	now           func() time.Time
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	repaymentRepo repositories.RepaymentRepository,
	sessionRepo repositories.USSDSessionRepository,
) *RegistrationService {
	return &RegistrationService{
		db:            db,
		userRepo:      userRepo,
		repaymentRepo: repaymentRepo,
		sessionRepo:   sessionRepo,
		now:           time.Now,
	}
}

// validateRegistration checks the fields a borrower cannot be created without
func validateRegistration(reg *domain.Registration) error {
	if strings.TrimSpace(reg.Phone) == "" {
		return fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	}
	if reg.NationalID == "" || reg.FullName == "" || reg.Address == "" || reg.FatherName == "" || reg.MotherName == "" {
		return fmt.Errorf("%w: missing registration field", domain.ErrInvalidInput)
	}
	if !reg.LoanAmount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	if reg.Duration <= 0 {
		return domain.ErrInvalidDuration
	}
	return nil
}

// Register creates the borrower, the installment plan and drops the dialog session in one transaction.
// It returns ErrPhoneAlreadyRegistered (with the existing borrower) when the phone is taken.
func (s *RegistrationService) Register(ctx context.Context, reg domain.Registration) (*models.User, error) {
	if err := validateRegistration(&reg); err != nil {
		return nil, err
	}

	now := s.now()
	plan, err := BuildSchedule(reg.LoanAmount, reg.Duration, now)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		SessionID:      reg.SessionID,
		Phone:          reg.Phone,
		NationalID:     reg.NationalID,
		FullName:       reg.FullName,
		Address:        reg.Address,
		FatherName:     reg.FatherName,
		MotherName:     reg.MotherName,
		LoanAmount:     reg.LoanAmount,
		Duration:       reg.Duration,
		DateRegistered: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		exists, err := users.ExistsByPhone(ctx, reg.Phone)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrPhoneAlreadyRegistered
		}

		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrPhoneAlreadyRegistered
			}
			return err
		}

		repayments := make([]*models.Repayment, 0, len(plan))
		for _, inst := range plan {
			repayments = append(repayments, &models.Repayment{
				UserID:  user.ID,
				Amount:  inst.Amount,
				DueDate: inst.DueDate,
			})
		}
		if err := s.repaymentRepo.WithTx(tx).CreateBatch(ctx, repayments); err != nil {
			return err
		}

		if reg.SessionID != "" {
			return s.sessionRepo.WithTx(tx).Delete(ctx, reg.SessionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Borrower registered: %s (phone %s, %s over %d days)", user.FullName, user.Phone, user.LoanAmount.StringFixed(2), user.Duration)
	return user, nil
}
