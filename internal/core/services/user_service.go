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
	"momo-loanhub/internal/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserService handles borrower lookups and admin overrides
type UserService struct {
	db            *gorm.DB
	userRepo      repositories.UserRepository
	repaymentRepo repositories.RepaymentRepository
	sharer        FloatSharer
	now           func() time.Time
}

// NewUserService creates a new user service
func NewUserService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	repaymentRepo repositories.RepaymentRepository,
	sharer FloatSharer,
) *UserService {
	if sharer == nil {
		sharer = NoopFloatSharer{}
	}
	return &UserService{
		db:            db,
		userRepo:      userRepo,
		repaymentRepo: repaymentRepo,
		sharer:        sharer,
		now:           time.Now,
	}
}

// InstallmentView is an installment with its derived status
type InstallmentView struct {
	ID            uint                     `json:"id"`
	Amount        decimal.Decimal          `json:"amount"`
	DueDate       time.Time                `json:"due_date"`
	Paid          bool                     `json:"paid"`
	PaidAt        *time.Time               `json:"paid_at,omitempty"`
	Status        domain.InstallmentStatus `json:"status"`
	RemainingTime string                   `json:"remaining_time"`
}

// UserDetail is the borrower page
type UserDetail struct {
	User         *models.User      `json:"user"`
	Installments []InstallmentView `json:"installments"`
	TotalPaid    decimal.Decimal   `json:"total_paid"`
	Remaining    decimal.Decimal   `json:"remaining"`
}

// UpdateUserInput lists the editable borrower fields; nil leaves a field unchanged
type UpdateUserInput struct {
	FullName   *string          `json:"full_name"`
	Phone      *string          `json:"phone"`
	NationalID *string          `json:"national_id"`
	Address    *string          `json:"address"`
	FatherName *string          `json:"father_name"`
	MotherName *string          `json:"mother_name"`
	LoanAmount *decimal.Decimal `json:"loan_amount"`
	Duration   *int             `json:"duration"`
}

// remainingText renders the distance to a due date in whole days ("3 days", "2 days ago")
func remainingText(due, now time.Time) string {
	d := due.Sub(now)
	if d >= 0 {
		return fmt.Sprintf("%d days", int64(d/(24*time.Hour)))
	}
	days := int64(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days--
	}
	return fmt.Sprintf("%d days ago", -days)
}

// loanProgress returns paid total, remaining principal and seconds until the earliest unpaid installment
func loanProgress(user *models.User, repayments []*models.Repayment, now time.Time) (decimal.Decimal, decimal.Decimal, int64) {
	paid := decimal.Zero
	var next *time.Time
	for _, r := range repayments {
		if r.Paid {
			paid = paid.Add(r.Amount)
			continue
		}
		if next == nil || r.DueDate.Before(*next) {
			due := r.DueDate
			next = &due
		}
	}

	var countdown int64
	if next != nil {
		if secs := int64(next.Sub(now) / time.Second); secs > 0 {
			countdown = secs
		}
	}
	return money.Round(paid), money.Round(user.LoanAmount.Sub(paid)), countdown
}

// Search lists borrowers whose name or phone contains query
func (s *UserService) Search(ctx context.Context, query string) ([]*models.User, error) {
	return s.userRepo.Search(ctx, strings.TrimSpace(query))
}

// GetByID returns one borrower
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Installments returns a borrower's schedule with derived status
func (s *UserService) Installments(ctx context.Context, userID uint) ([]InstallmentView, error) {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	repayments, err := s.repaymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(repayments, s.now()), nil
}

func (s *UserService) views(repayments []*models.Repayment, now time.Time) []InstallmentView {
	views := make([]InstallmentView, 0, len(repayments))
	for _, r := range repayments {
		views = append(views, InstallmentView{
			ID:            r.ID,
			Amount:        r.Amount,
			DueDate:       r.DueDate,
			Paid:          r.Paid,
			PaidAt:        r.PaidAt,
			Status:        r.ToDomain().StatusAt(now),
			RemainingTime: remainingText(r.DueDate, now),
		})
	}
	return views
}

// Detail returns the borrower with schedule and totals
func (s *UserService) Detail(ctx context.Context, id uint) (*UserDetail, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	repayments, err := s.repaymentRepo.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	paid, remaining, _ := loanProgress(user, repayments, now)
	return &UserDetail{
		User:         user,
		Installments: s.views(repayments, now),
		TotalPaid:    paid,
		Remaining:    remaining,
	}, nil
}

// Update applies the non-nil fields of input
func (s *UserService) Update(ctx context.Context, id uint, input *UpdateUserInput) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			return nil, fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
		}
		if phone != user.Phone {
			exists, err := s.userRepo.ExistsByPhone(ctx, phone)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, domain.ErrPhoneAlreadyRegistered
			}
			user.Phone = phone
		}
	}
	if input.LoanAmount != nil {
		if !input.LoanAmount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		user.LoanAmount = money.Round(*input.LoanAmount)
	}
	if input.Duration != nil {
		if *input.Duration <= 0 {
			return nil, domain.ErrInvalidDuration
		}
		user.Duration = *input.Duration
	}
	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.NationalID != nil {
		user.NationalID = strings.TrimSpace(*input.NationalID)
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
	}
	if input.FatherName != nil {
		user.FatherName = strings.TrimSpace(*input.FatherName)
	}
	if input.MotherName != nil {
		user.MotherName = strings.TrimSpace(*input.MotherName)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrPhoneAlreadyRegistered
		}
		return nil, err
	}

	log.Printf("✏️ Borrower %d updated", user.ID)
	return user, nil
}

// Delete removes a borrower and its schedule
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repaymentRepo.WithTx(tx).DeleteByUser(ctx, id); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	log.Printf("🗑️ Borrower %d deleted with schedule", id)
	return nil
}

// MarkPaid flips an installment to paid without touching any balance.
// Marking an already paid installment is a no-op and does not repeat the float-sharing hook.
func (s *UserService) MarkPaid(ctx context.Context, repaymentID uint) (*models.Repayment, error) {
	repayment, err := s.repaymentRepo.GetByID(ctx, repaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInstallmentNotFound
		}
		return nil, err
	}
	if repayment.Paid {
		return repayment, nil
	}

	now := s.now()
	claimed, err := s.repaymentRepo.ClaimPaid(ctx, repaymentID, now)
	if err != nil {
		return nil, err
	}
	if claimed {
		log.Printf("✅ Repayment %d marked paid manually", repaymentID)
		if err := s.sharer.ShareFloat(ctx, repaymentID); err != nil {
			log.Printf("⚠️ Float sharing failed for repayment %d: %v", repaymentID, err)
		}
	}

	return s.repaymentRepo.GetByID(ctx, repaymentID)
}
