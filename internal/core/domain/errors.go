package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Borrower errors
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrPhoneAlreadyRegistered = errors.New("phone already registered")
	ErrInstallmentNotFound    = errors.New("installment not found")
)

// Loan errors
var (
	ErrInvalidAmount   = errors.New("loan amount must be a positive number")
	ErrInvalidDuration = errors.New("loan duration must be a positive number of days")
)

// Float account errors
var (
	ErrFloatAccountNotFound = errors.New("float account not found")
)
