package services

import (
	"context"
	"strings"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/pkg/money"
	"momo-loanhub/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db            *gorm.DB
	userRepo      repositories.UserRepository
	repaymentRepo repositories.RepaymentRepository
	now           func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, userRepo repositories.UserRepository, repaymentRepo repositories.RepaymentRepository) *DashboardService {
	return &DashboardService{
		db:            db,
		userRepo:      userRepo,
		repaymentRepo: repaymentRepo,
		now:           time.Now,
	}
}

// Summary is the dashboard header
type Summary struct {
	TotalUsers     int64           `json:"total_users"`
	TotalPrincipal decimal.Decimal `json:"total_loans"`
	Completed      int64           `json:"completed_users"`
	InProgress     int64           `json:"in_progress"`
}

// UserRow is one dashboard line
type UserRow struct {
	*models.User
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Remaining        decimal.Decimal `json:"remaining"`
	CountdownSeconds int64           `json:"countdown_seconds"`
}

// DashboardPage is the full dashboard payload
type DashboardPage struct {
	Summary *Summary         `json:"summary"`
	Search  string           `json:"search"`
	Rows    []UserRow        `json:"rows"`
	Meta    *pagination.Meta `json:"meta"`
}

// GetSummary counts borrowers; a borrower is completed when no unpaid installment remains
func (s *DashboardService) GetSummary(ctx context.Context) (*Summary, error) {
	summary := &Summary{TotalPrincipal: decimal.Zero}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&summary.TotalUsers).Error; err != nil {
		return nil, err
	}

	var principal struct {
		Total decimal.NullDecimal
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Select("SUM(loan_amount) AS total").Scan(&principal).Error; err != nil {
		return nil, err
	}
	if principal.Total.Valid {
		summary.TotalPrincipal = money.Round(principal.Total.Decimal)
	}

	unpaid := s.db.Model(&models.Repayment{}).
		Select("1").
		Where("repayments.user_id = users.id AND repayments.paid = ?", false)
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("NOT EXISTS (?)", unpaid).
		Count(&summary.Completed).Error; err != nil {
		return nil, err
	}

	summary.InProgress = summary.TotalUsers - summary.Completed
	return summary, nil
}

// ListUsers returns one page of borrowers matching search with their loan progress
func (s *DashboardService) ListUsers(ctx context.Context, search string, params *pagination.Params) ([]UserRow, *pagination.Meta, error) {
	users, err := s.userRepo.Search(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, nil, err
	}

	start, end := params.Window(len(users))
	now := s.now()
	rows := make([]UserRow, 0, end-start)
	for _, user := range users[start:end] {
		repayments, err := s.repaymentRepo.ListByUser(ctx, user.ID)
		if err != nil {
			return nil, nil, err
		}
		paid, remaining, countdown := loanProgress(user, repayments, now)
		rows = append(rows, UserRow{
			User:             user,
			TotalPaid:        paid,
			Remaining:        remaining,
			CountdownSeconds: countdown,
		})
	}

	return rows, pagination.GetMeta(params, int64(len(users))), nil
}

// GetDashboard returns summary plus one page of rows
func (s *DashboardService) GetDashboard(ctx context.Context, search string, params *pagination.Params) (*DashboardPage, error) {
	summary, err := s.GetSummary(ctx)
	if err != nil {
		return nil, err
	}
	rows, meta, err := s.ListUsers(ctx, search, params)
	if err != nil {
		return nil, err
	}
	return &DashboardPage{
		Summary: summary,
		Search:  search,
		Rows:    rows,
		Meta:    meta,
	}, nil
}
