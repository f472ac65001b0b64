package repositories

import (
	"context"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// repaymentRepository implements RepaymentRepository interface
type repaymentRepository struct {
	db *gorm.DB
}

// NewRepaymentRepository creates a new repayment repository
func NewRepaymentRepository(db *gorm.DB) RepaymentRepository {
	return &repaymentRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *repaymentRepository) WithTx(tx *gorm.DB) RepaymentRepository {
	return &repaymentRepository{db: tx}
}

// CreateBatch inserts a schedule
func (r *repaymentRepository) CreateBatch(ctx context.Context, repayments []*models.Repayment) error {
	if len(repayments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&repayments).Error
}

// GetByID gets a repayment by ID
func (r *repaymentRepository) GetByID(ctx context.Context, id uint) (*models.Repayment, error) {
	var repayment models.Repayment
	if err := r.db.WithContext(ctx).First(&repayment, id).Error; err != nil {
		return nil, err
	}
	return &repayment, nil
}

// ListByUser lists a user's repayments by ascending due date
func (r *repaymentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Repayment, error) {
	var repayments []*models.Repayment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("due_date ASC").
		Order("id ASC").
		Find(&repayments).Error
	return repayments, err
}

// ListAll lists every repayment (export)
func (r *repaymentRepository) ListAll(ctx context.Context) ([]*models.Repayment, error) {
	var repayments []*models.Repayment
	err := r.db.WithContext(ctx).Order("id ASC").Find(&repayments).Error
	return repayments, err
}

// ClaimPaid flips a repayment from unpaid to paid.
// It reports false when the row was already paid (or is gone), so only one caller ever wins.
func (r *repaymentRepository) ClaimPaid(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Repayment{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]interface{}{
			"paid":    true,
			"paid_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteByUser removes a user's schedule
func (r *repaymentRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Repayment{}).Error
}
