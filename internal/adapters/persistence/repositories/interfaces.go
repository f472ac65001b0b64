package repositories

import (
	"context"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRepository defines borrower repository interface
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Search(ctx context.Context, query string) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
}

// RepaymentRepository defines installment repository interface
type RepaymentRepository interface {
	WithTx(tx *gorm.DB) RepaymentRepository
	CreateBatch(ctx context.Context, repayments []*models.Repayment) error
	GetByID(ctx context.Context, id uint) (*models.Repayment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Repayment, error)
	ListAll(ctx context.Context) ([]*models.Repayment, error)
	ClaimPaid(ctx context.Context, id uint, at time.Time) (bool, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// MoMoPayRepository defines float account repository interface
type MoMoPayRepository interface {
	WithTx(tx *gorm.DB) MoMoPayRepository
	List(ctx context.Context) ([]*models.MoMoPay, error)
	GetByPhone(ctx context.Context, phone string) (*models.MoMoPay, error)
	Upsert(ctx context.Context, account *models.MoMoPay) error
	Debit(ctx context.Context, phone string, amount decimal.Decimal) error
	Delete(ctx context.Context, phone string) (bool, error)
	SumBalance(ctx context.Context) (decimal.Decimal, error)
}

// USSDSessionRepository defines in-flight registration storage
type USSDSessionRepository interface {
	WithTx(tx *gorm.DB) USSDSessionRepository
	Get(ctx context.Context, sessionID string) (*models.USSDSession, error)
	Save(ctx context.Context, session *models.USSDSession) error
	Delete(ctx context.Context, sessionID string) error
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}

// AdminRepository defines dashboard account repository interface
type AdminRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Admin, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	TouchLogin(ctx context.Context, id uint, at time.Time) error
}
