package models

import (
	"time"

	"momo-loanhub/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Borrowers & Repayments
// ============================================================

// User represents users table (one borrower, one loan)
type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	SessionID      string          `gorm:"size:100" json:"session_id"`
	Phone          string          `gorm:"uniqueIndex;size:30;not null" json:"phone"`
	NationalID     string          `gorm:"size:50" json:"national_id"`
	FullName       string          `gorm:"size:150;index" json:"full_name"`
	Address        string          `gorm:"size:255" json:"address"`
	FatherName     string          `gorm:"size:150" json:"father_name"`
	MotherName     string          `gorm:"size:150" json:"mother_name"`
	LoanAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"loan_amount"`
	Duration       int             `gorm:"not null" json:"duration"`
	DateRegistered time.Time       `gorm:"not null" json:"date_registered"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) ToDomain() domain.User {
	return domain.User{
		ID:             u.ID,
		SessionID:      u.SessionID,
		Phone:          u.Phone,
		NationalID:     u.NationalID,
		FullName:       u.FullName,
		Address:        u.Address,
		FatherName:     u.FatherName,
		MotherName:     u.MotherName,
		LoanAmount:     u.LoanAmount,
		Duration:       u.Duration,
		DateRegistered: u.DateRegistered,
	}
}

// Repayment represents repayments table
type Repayment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	DueDate   time.Time       `gorm:"index;not null" json:"due_date"`
	Paid      bool            `gorm:"index;not null;default:false" json:"paid"`
	PaidAt    *time.Time      `json:"paid_at"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Repayment) TableName() string {
	return "repayments"
}

func (r *Repayment) ToDomain() domain.Installment {
	return domain.Installment{
		ID:      r.ID,
		UserID:  r.UserID,
		Amount:  r.Amount,
		DueDate: r.DueDate,
		Paid:    r.Paid,
		PaidAt:  r.PaidAt,
	}
}

// ============================================================
// MoMoPay float accounts
// ============================================================

// MoMoPay represents momopays table
type MoMoPay struct {
	Phone       string          `gorm:"primaryKey;size:30" json:"phone"`
	Balance     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	FloatShared decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"float_shared"`
	MergedBatch decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"merged_batch"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MoMoPay) TableName() string {
	return "momopays"
}

func (m *MoMoPay) ToDomain() domain.FloatAccount {
	return domain.FloatAccount{
		Phone:       m.Phone,
		Balance:     m.Balance,
		FloatShared: m.FloatShared,
		MergedBatch: m.MergedBatch,
	}
}

// ============================================================
// USSD sessions
// ============================================================

// USSDSession represents ussd_sessions table (in-flight registration)
type USSDSession struct {
	SessionID  string              `gorm:"primaryKey;size:100" json:"session_id"`
	Phone      string              `gorm:"size:30" json:"phone"`
	Step       int                 `gorm:"not null;default:0" json:"step"`
	NationalID string              `gorm:"size:50" json:"national_id"`
	FullName   string              `gorm:"size:150" json:"full_name"`
	Address    string              `gorm:"size:255" json:"address"`
	FatherName string              `gorm:"size:150" json:"father_name"`
	MotherName string              `gorm:"size:150" json:"mother_name"`
	LoanAmount decimal.NullDecimal `gorm:"type:decimal(15,2)" json:"loan_amount"`
	CreatedAt  time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time           `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (USSDSession) TableName() string {
	return "ussd_sessions"
}

// CurrentStep returns the stored dialog state
func (s *USSDSession) CurrentStep() domain.Step {
	return domain.Step(s.Step)
}

// ============================================================
// Dashboard accounts
// ============================================================

// Admin represents admins table
type Admin struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password    string     `gorm:"size:255;not null" json:"-"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Repayment{},
		&MoMoPay{},
		&USSDSession{},
		&Admin{},
	)
}
