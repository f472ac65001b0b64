package repositories

import (
	"context"

	"momo-loanhub/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// moMoPayRepository implements MoMoPayRepository interface
type moMoPayRepository struct {
	db *gorm.DB
}

// NewMoMoPayRepository creates a new float account repository
func NewMoMoPayRepository(db *gorm.DB) MoMoPayRepository {
	return &moMoPayRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *moMoPayRepository) WithTx(tx *gorm.DB) MoMoPayRepository {
	return &moMoPayRepository{db: tx}
}

// List lists all float accounts
func (r *moMoPayRepository) List(ctx context.Context) ([]*models.MoMoPay, error) {
	var accounts []*models.MoMoPay
	err := r.db.WithContext(ctx).Order("created_at ASC").Order("phone ASC").Find(&accounts).Error
	return accounts, err
}

// GetByPhone gets a float account by phone
func (r *moMoPayRepository) GetByPhone(ctx context.Context, phone string) (*models.MoMoPay, error) {
	var account models.MoMoPay
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// Upsert inserts or replaces an account keyed by phone
func (r *moMoPayRepository) Upsert(ctx context.Context, account *models.MoMoPay) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "float_shared", "merged_batch", "updated_at"}),
		}).
		Create(account).Error
}

// Debit decrements a balance. The new balance is computed in decimal and written back
// rounded to cents, so a NUMERIC column never accumulates float residue.
func (r *moMoPayRepository) Debit(ctx context.Context, phone string, amount decimal.Decimal) error {
	var account models.MoMoPay
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&account).Error; err != nil {
		return err
	}
	balance := account.Balance.Sub(amount).Round(2)
	return r.db.WithContext(ctx).
		Model(&models.MoMoPay{}).
		Where("phone = ?", phone).
		Update("balance", balance).Error
}

// Delete removes an account; false when nothing matched
func (r *moMoPayRepository) Delete(ctx context.Context, phone string) (bool, error) {
	result := r.db.WithContext(ctx).Where("phone = ?", phone).Delete(&models.MoMoPay{})
	return result.RowsAffected > 0, result.Error
}

// SumBalance returns the merged pool
func (r *moMoPayRepository) SumBalance(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.MoMoPay{}).
		Select("SUM(balance) AS total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !result.Total.Valid {
		return decimal.Zero, nil
	}
	return result.Total.Decimal.Round(2), nil
}
