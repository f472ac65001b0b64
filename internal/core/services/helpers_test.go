package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/config"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

type testRepos struct {
	users      repositories.UserRepository
	repayments repositories.RepaymentRepository
	momopays   repositories.MoMoPayRepository
	sessions   repositories.USSDSessionRepository
}

func newTestRepos(db *gorm.DB) testRepos {
	return testRepos{
		users:      repositories.NewUserRepository(db),
		repayments: repositories.NewRepaymentRepository(db),
		momopays:   repositories.NewMoMoPayRepository(db),
		sessions:   repositories.NewUSSDSessionRepository(db),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedBorrower inserts a user with one installment per amount, due at now+dueOffsets[i]
func seedBorrower(t *testing.T, repos testRepos, phone string, amounts []string, dueOffsets []time.Duration, now time.Time) *models.User {
	t.Helper()
	ctx := context.Background()

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(dec(a))
	}
	user := &models.User{
		Phone:          phone,
		NationalID:     "ID-" + phone,
		FullName:       "Borrower " + phone,
		Address:        "Kigali",
		FatherName:     "Father",
		MotherName:     "Mother",
		LoanAmount:     total,
		Duration:       len(amounts),
		DateRegistered: now.Add(-10 * 24 * time.Hour),
	}
	require.NoError(t, repos.users.Create(ctx, user))

	var reps []*models.Repayment
	for i, a := range amounts {
		reps = append(reps, &models.Repayment{
			UserID:  user.ID,
			Amount:  dec(a),
			DueDate: now.Add(dueOffsets[i]),
		})
	}
	require.NoError(t, repos.repayments.CreateBatch(ctx, reps))
	return user
}

func seedAccount(t *testing.T, repos testRepos, phone, balance string) {
	t.Helper()
	require.NoError(t, repos.momopays.Upsert(context.Background(), &models.MoMoPay{
		Phone:   phone,
		Balance: dec(balance),
	}))
}

func balanceOf(t *testing.T, repos testRepos, phone string) decimal.Decimal {
	t.Helper()
	acc, err := repos.momopays.GetByPhone(context.Background(), phone)
	require.NoError(t, err)
	return acc.Balance
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", AccessTokenMins: 5},
		USSD: config.USSDConfig{
			Separator:   "*",
			ServiceName: "USSD Loan Service",
			Currency:    "RWF",
			SessionTTL:  30 * time.Minute,
		},
		Settlement: config.SettlementConfig{
			Schedule:             "@every 1m",
			HousekeepingSchedule: "@every 10m",
			PoolMode:             "snapshot",
			ZeroPoolPolicy:       "mark_paid",
		},
	}
}

// recordingSharer counts float-sharing hook calls
type recordingSharer struct {
	mu  sync.Mutex
	ids []uint
}

func (r *recordingSharer) ShareFloat(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}

func (r *recordingSharer) calls() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.ids...)
}
