package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is derived from the paid flag and the due date; only Paid is stored
type InstallmentStatus string

const (
	StatusUnpaid  InstallmentStatus = "Unpaid"
	StatusPaid    InstallmentStatus = "Paid"
	StatusOverdue InstallmentStatus = "Overdue"
)

// Step is a position in the USSD registration dialog
type Step int

const (
	StepStart Step = iota
	StepAwaitNationalID
	StepAwaitName
	StepAwaitAddress
	StepAwaitFather
	StepAwaitMother
	StepAwaitAmount
	StepAwaitDuration
	StepComplete
)

var stepNames = [...]string{
	"START",
	"AWAIT_NATIONAL_ID",
	"AWAIT_NAME",
	"AWAIT_ADDRESS",
	"AWAIT_FATHER",
	"AWAIT_MOTHER",
	"AWAIT_AMOUNT",
	"AWAIT_DURATION",
	"COMPLETE",
}

func (s Step) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}
	return stepNames[s]
}

// Valid reports whether s is one of the known dialog states
func (s Step) Valid() bool {
	return s >= StepStart && s <= StepComplete
}

// Next returns the state that follows s in the linear dialog
func (s Step) Next() Step {
	if s >= StepComplete {
		return StepComplete
	}
	return s + 1
}

// User is a borrower registered through USSD
type User struct {
	ID             uint
	SessionID      string
	Phone          string
	NationalID     string
	FullName       string
	Address        string
	FatherName     string
	MotherName     string
	LoanAmount     decimal.Decimal
	Duration       int
	DateRegistered time.Time
}

// Registration carries the fields collected by the dialog before they become a User
type Registration struct {
	SessionID  string
	Phone      string
	NationalID string
	FullName   string
	Address    string
	FatherName string
	MotherName string
	LoanAmount decimal.Decimal
	Duration   int
}

// Installment is one scheduled repayment
type Installment struct {
	ID      uint
	UserID  uint
	Amount  decimal.Decimal
	DueDate time.Time
	Paid    bool
	PaidAt  *time.Time
}

// StatusAt derives the display status at the given moment
func (i Installment) StatusAt(now time.Time) InstallmentStatus {
	if i.Paid {
		return StatusPaid
	}
	if i.DueDate.Before(now) {
		return StatusOverdue
	}
	return StatusUnpaid
}

// IsDue reports whether the installment is unpaid with due date <= now
func (i Installment) IsDue(now time.Time) bool {
	return !i.Paid && !i.DueDate.After(now)
}

// FloatAccount is a MoMoPay balance used as a collection source
type FloatAccount struct {
	Phone       string
	Balance     decimal.Decimal
	FloatShared decimal.Decimal
	MergedBatch decimal.Decimal
}
