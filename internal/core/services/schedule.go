package services

import (
	"time"

	"momo-loanhub/internal/core/domain"
	"momo-loanhub/internal/pkg/money"

	"github.com/shopspring/decimal"
)

// ScheduledInstallment is one row of a freshly built repayment plan
type ScheduledInstallment struct {
	Amount  decimal.Decimal
	DueDate time.Time
}

// BuildSchedule splits principal into days equal installments due at from+1d .. from+days.
// Each amount is principal/days rounded to cents; the rounding remainder is not redistributed,
// so the sum may drift from principal by up to days*0.005.
func BuildSchedule(principal decimal.Decimal, days int, from time.Time) ([]ScheduledInstallment, error) {
	if days <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	if !principal.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	amount := money.Round(principal.Div(decimal.NewFromInt(int64(days))))
	plan := make([]ScheduledInstallment, 0, days)
	for i := 1; i <= days; i++ {
		plan = append(plan, ScheduledInstallment{
			Amount:  amount,
			DueDate: from.Add(time.Duration(i) * 24 * time.Hour),
		})
	}
	return plan, nil
}
