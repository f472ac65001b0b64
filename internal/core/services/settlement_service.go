package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/config"
	"momo-loanhub/internal/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PoolMode selects which balances the fallback deduction is computed against
type PoolMode string

const (
	// PoolSnapshot reads all balances once per sweep and reuses them for every installment
	PoolSnapshot PoolMode = "snapshot"
	// PoolRecompute re-reads balances before each installment
	PoolRecompute PoolMode = "recompute"
)

// ZeroPoolPolicy decides what happens when neither the own account nor the pool can pay
type ZeroPoolPolicy string

const (
	// ZeroPoolMarkPaid marks the installment paid with nothing collected
	ZeroPoolMarkPaid ZeroPoolPolicy = "mark_paid"
	// ZeroPoolLeaveUnpaid leaves the installment for a later sweep
	ZeroPoolLeaveUnpaid ZeroPoolPolicy = "leave_unpaid"
)

// SettlementPolicy holds the sweep toggles
type SettlementPolicy struct {
	PoolMode PoolMode
	ZeroPool ZeroPoolPolicy
}

// DefaultSettlementPolicy is snapshot + mark_paid
func DefaultSettlementPolicy() SettlementPolicy {
	return SettlementPolicy{PoolMode: PoolSnapshot, ZeroPool: ZeroPoolMarkPaid}
}

// PolicyFromConfig maps env settings onto a policy
func PolicyFromConfig(cfg config.SettlementConfig) SettlementPolicy {
	policy := DefaultSettlementPolicy()
	if PoolMode(cfg.PoolMode) == PoolRecompute {
		policy.PoolMode = PoolRecompute
	}
	if ZeroPoolPolicy(cfg.ZeroPoolPolicy) == ZeroPoolLeaveUnpaid {
		policy.ZeroPool = ZeroPoolLeaveUnpaid
	}
	return policy
}

// Deduction sources
const (
	SourceOwnAccount = "own_account"
	SourcePool       = "pool"
	SourceNone       = "none"
)

// Debit is one balance decrement
type Debit struct {
	Phone  string          `json:"phone"`
	Amount decimal.Decimal `json:"amount"`
}

type accountBalance struct {
	Phone   string
	Balance decimal.Decimal
}

type deductionPlan struct {
	Source string
	Debits []Debit
}

func (p deductionPlan) total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range p.Debits {
		total = total.Add(d.Amount)
	}
	return total
}

// planDeduction chooses how an installment is collected.
// The owner's account pays in full when its balance covers amount; otherwise every account
// pays balance_i * amount / pool. A zero pool, or a pool whose shares all round to zero,
// yields SourceNone with no debits.
func planDeduction(amount decimal.Decimal, ownerPhone string, accounts []accountBalance, pool decimal.Decimal) deductionPlan {
	for _, acc := range accounts {
		if acc.Phone == ownerPhone && acc.Balance.GreaterThanOrEqual(amount) {
			return deductionPlan{
				Source: SourceOwnAccount,
				Debits: []Debit{{Phone: acc.Phone, Amount: amount}},
			}
		}
	}

	if !pool.IsPositive() {
		return deductionPlan{Source: SourceNone}
	}

	debits := make([]Debit, 0, len(accounts))
	for _, acc := range accounts {
		share := money.Round(acc.Balance.Mul(amount).Div(pool))
		if share.IsZero() {
			continue
		}
		debits = append(debits, Debit{Phone: acc.Phone, Amount: share})
	}
	if len(debits) == 0 {
		return deductionPlan{Source: SourceNone}
	}
	return deductionPlan{Source: SourcePool, Debits: debits}
}

func balancesOf(accounts []*models.MoMoPay) ([]accountBalance, decimal.Decimal) {
	balances := make([]accountBalance, 0, len(accounts))
	pool := decimal.Zero
	for _, acc := range accounts {
		balance := money.Round(acc.Balance)
		balances = append(balances, accountBalance{Phone: acc.Phone, Balance: balance})
		pool = pool.Add(balance)
	}
	return balances, pool
}

// SettlementReport summarizes one sweep
type SettlementReport struct {
	RunID          uuid.UUID       `json:"run_id"`
	Trigger        string          `json:"trigger"`
	PoolMode       PoolMode        `json:"pool_mode"`
	ZeroPoolPolicy ZeroPoolPolicy  `json:"zero_pool_policy"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	PoolAtStart    decimal.Decimal `json:"pool_at_start"`
	Due            int             `json:"due"`
	Settled        int             `json:"settled"`
	OwnAccount     int             `json:"own_account"`
	Pooled         int             `json:"pooled"`
	ZeroCollection int             `json:"zero_collection"`
	Deferred       int             `json:"deferred"`
	Skipped        int             `json:"skipped"`
	Failed         int             `json:"failed"`
	TotalDebited   decimal.Decimal `json:"total_debited"`
}

// SettlementService collects due installments from float accounts
type SettlementService struct {
	db            *gorm.DB
	userRepo      repositories.UserRepository
	repaymentRepo repositories.RepaymentRepository
	momopayRepo   repositories.MoMoPayRepository
	sharer        FloatSharer
	reporter      ErrorReporter
	policy        SettlementPolicy
	now           func() time.Time
	mu            sync.Mutex
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	repaymentRepo repositories.RepaymentRepository,
	momopayRepo repositories.MoMoPayRepository,
	sharer FloatSharer,
	reporter ErrorReporter,
	policy SettlementPolicy,
) *SettlementService {
	if sharer == nil {
		sharer = NoopFloatSharer{}
	}
	if reporter == nil {
		reporter = LogErrorReporter{}
	}
	return &SettlementService{
		db:            db,
		userRepo:      userRepo,
		repaymentRepo: repaymentRepo,
		momopayRepo:   momopayRepo,
		sharer:        sharer,
		reporter:      reporter,
		policy:        policy,
		now:           time.Now,
	}
}

// Policy returns the active policy
func (s *SettlementService) Policy() SettlementPolicy {
	return s.policy
}

// Run sweeps every unpaid installment due at or before now, user by user in insertion order
// and per user by ascending due date. Sweeps never overlap within one process; across processes
// the per-installment claim keeps an installment from being collected twice.
func (s *SettlementService) Run(ctx context.Context, trigger string) (*SettlementReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	report := &SettlementReport{
		RunID:          uuid.New(),
		Trigger:        trigger,
		PoolMode:       s.policy.PoolMode,
		ZeroPoolPolicy: s.policy.ZeroPool,
		StartedAt:      now,
		TotalDebited:   decimal.Zero,
	}

	accounts, err := s.momopayRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load float accounts: %w", err)
	}
	snapshot, pool := balancesOf(accounts)
	report.PoolAtStart = pool

	users, err := s.userRepo.Search(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	log.Printf("💸 Settlement %s started (%s, pool %s, mode %s)", report.RunID, trigger, money.Format(pool), s.policy.PoolMode)

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		repayments, err := s.repaymentRepo.ListByUser(ctx, user.ID)
		if err != nil {
			report.Failed++
			s.capture(report, fmt.Errorf("list repayments for user %d: %w", user.ID, err))
			continue
		}

		for _, repayment := range repayments {
			if !repayment.ToDomain().IsDue(now) {
				continue
			}
			report.Due++

			view, viewPool := snapshot, pool
			if s.policy.PoolMode == PoolRecompute {
				fresh, err := s.momopayRepo.List(ctx)
				if err != nil {
					report.Failed++
					s.capture(report, fmt.Errorf("reload float accounts: %w", err))
					continue
				}
				view, viewPool = balancesOf(fresh)
			}

			plan := planDeduction(repayment.Amount, user.Phone, view, viewPool)
			if plan.Source == SourceNone && s.policy.ZeroPool == ZeroPoolLeaveUnpaid {
				report.Deferred++
				continue
			}

			claimed, err := s.settle(ctx, repayment.ID, plan, now)
			if err != nil {
				report.Failed++
				s.capture(report, fmt.Errorf("settle repayment %d: %w", repayment.ID, err))
				continue
			}
			if !claimed {
				report.Skipped++
				continue
			}

			report.Settled++
			switch plan.Source {
			case SourceOwnAccount:
				report.OwnAccount++
			case SourcePool:
				report.Pooled++
			default:
				report.ZeroCollection++
				log.Printf("⚠️ Repayment %d of %s marked paid with zero collection", repayment.ID, user.Phone)
			}
			report.TotalDebited = report.TotalDebited.Add(plan.total())

			if err := s.sharer.ShareFloat(ctx, repayment.ID); err != nil {
				log.Printf("⚠️ Float sharing failed for repayment %d: %v", repayment.ID, err)
			}
		}
	}

	report.FinishedAt = s.now()
	log.Printf("✅ Settlement %s finished: due=%d settled=%d own=%d pooled=%d zero=%d deferred=%d skipped=%d failed=%d debited=%s",
		report.RunID, report.Due, report.Settled, report.OwnAccount, report.Pooled, report.ZeroCollection,
		report.Deferred, report.Skipped, report.Failed, money.Format(report.TotalDebited))
	return report, nil
}

// settle claims the installment and applies the debits atomically.
// It reports false when another sweep already claimed it.
func (s *SettlementService) settle(ctx context.Context, repaymentID uint, plan deductionPlan, at time.Time) (bool, error) {
	var claimed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repaymentRepo.WithTx(tx).ClaimPaid(ctx, repaymentID, at)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		accounts := s.momopayRepo.WithTx(tx)
		for _, d := range plan.Debits {
			if err := accounts.Debit(ctx, d.Phone, d.Amount); err != nil {
				return err
			}
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (s *SettlementService) capture(report *SettlementReport, err error) {
	log.Printf("❌ Settlement %s: %v", report.RunID, err)
	s.reporter.CaptureError(err, map[string]string{
		"component": "settlement",
		"run_id":    report.RunID.String(),
		"trigger":   report.Trigger,
	})
}
