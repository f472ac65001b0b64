package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/core/domain"
	"momo-loanhub/internal/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FloatAccountService manages MoMoPay float accounts
type FloatAccountService struct {
	momopayRepo repositories.MoMoPayRepository
}

// NewFloatAccountService creates a new float account service
func NewFloatAccountService(momopayRepo repositories.MoMoPayRepository) *FloatAccountService {
	return &FloatAccountService{momopayRepo: momopayRepo}
}

// UpsertFloatAccountInput provisions or replaces an account
type UpsertFloatAccountInput struct {
	Phone       string          `json:"phone"`
	Balance     decimal.Decimal `json:"balance"`
	FloatShared decimal.Decimal `json:"float_shared"`
	MergedBatch decimal.Decimal `json:"merged_batch"`
}

// FloatSummary is the merged pool view
type FloatSummary struct {
	Accounts     []*models.MoMoPay `json:"accounts"`
	MergedPool   decimal.Decimal   `json:"merged_pool"`
	AccountCount int               `json:"account_count"`
}

// List returns every account with the merged pool
func (s *FloatAccountService) List(ctx context.Context) (*FloatSummary, error) {
	accounts, err := s.momopayRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := s.momopayRepo.SumBalance(ctx)
	if err != nil {
		return nil, err
	}
	return &FloatSummary{
		Accounts:     accounts,
		MergedPool:   money.Round(pool),
		AccountCount: len(accounts),
	}, nil
}

// Get returns one account
func (s *FloatAccountService) Get(ctx context.Context, phone string) (*models.MoMoPay, error) {
	account, err := s.momopayRepo.GetByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFloatAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// Upsert inserts the account or replaces its balances
func (s *FloatAccountService) Upsert(ctx context.Context, input *UpsertFloatAccountInput) (*models.MoMoPay, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", domain.ErrInvalidInput)
	}
	if input.Balance.IsNegative() {
		return nil, fmt.Errorf("%w: balance cannot be negative", domain.ErrInvalidInput)
	}

	account := &models.MoMoPay{
		Phone:       phone,
		Balance:     money.Round(input.Balance),
		FloatShared: money.Round(input.FloatShared),
		MergedBatch: input.MergedBatch,
	}
	if err := s.momopayRepo.Upsert(ctx, account); err != nil {
		return nil, err
	}

	log.Printf("💰 Float account %s set to %s", phone, money.Format(account.Balance))
	return s.Get(ctx, phone)
}

// Delete removes an account
func (s *FloatAccountService) Delete(ctx context.Context, phone string) error {
	deleted, err := s.momopayRepo.Delete(ctx, strings.TrimSpace(phone))
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrFloatAccountNotFound
	}
	log.Printf("🗑️ Float account %s deleted", phone)
	return nil
}
