package repositories

import (
	"context"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ussdSessionRepository implements USSDSessionRepository interface
type ussdSessionRepository struct {
	db *gorm.DB
}

// NewUSSDSessionRepository creates a new USSD session repository
func NewUSSDSessionRepository(db *gorm.DB) USSDSessionRepository {
	return &ussdSessionRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ussdSessionRepository) WithTx(tx *gorm.DB) USSDSessionRepository {
	return &ussdSessionRepository{db: tx}
}

// Get gets a session by its channel session id
func (r *ussdSessionRepository) Get(ctx context.Context, sessionID string) (*models.USSDSession, error) {
	var session models.USSDSession
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Save inserts the session or overwrites every column of an existing one
func (r *ussdSessionRepository) Save(ctx context.Context, session *models.USSDSession) error {
	session.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"phone", "step", "national_id", "full_name", "address",
				"father_name", "mother_name", "loan_amount", "updated_at",
			}),
		}).
		Create(session).Error
}

// Delete removes a session
func (r *ussdSessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.USSDSession{}).Error
}

// DeleteStale removes sessions not touched since before
func (r *ussdSessionRepository) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("updated_at < ?", before).Delete(&models.USSDSession{})
	return result.RowsAffected, result.Error
}
