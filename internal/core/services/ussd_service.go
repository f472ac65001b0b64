package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/adapters/persistence/repositories"
	"momo-loanhub/internal/config"
	"momo-loanhub/internal/core/domain"
	"momo-loanhub/internal/pkg/money"
	"momo-loanhub/internal/pkg/ussd"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Menu options
const (
	optionRegister   = "1"
	optionCheckLoan  = "2"
	optionRepayments = "3"
	optionExit       = "4"
)

// batchFields is the menu choice plus the seven registration answers
const batchFields = 8

// recentRepayments is how many installments option 3 lists
const recentRepayments = 5

// Reply texts
const (
	msgRegistered      = "✅ Registration successful! You will receive SMS confirmation."
	msgInvalidBatch    = "Invalid registration data. Please try again."
	msgInvalidAmount   = "Invalid amount. Session cancelled."
	msgInvalidDuration = "Invalid duration. Session cancelled."
	msgMissingData     = "Missing data in your session. Please start again."
	msgInvalidState    = "Invalid session state. Please start again."
	msgInvalidChoice   = "Invalid choice or format. Please try again."
	msgNotRegistered   = "You are not registered yet."
	msgNoSchedule      = "No repayment schedule found."
	msgMissingSession  = "Missing session. Please dial again."
	msgServiceError    = "Service temporarily unavailable. Please try again later."
)

var stepPrompts = map[domain.Step]string{
	domain.StepAwaitNationalID: "Enter your National ID:",
	domain.StepAwaitName:       "Enter your Full Name:",
	domain.StepAwaitAddress:    "Enter your Address (village, cell, sector):",
	domain.StepAwaitFather:     "Enter your Father's Name:",
	domain.StepAwaitMother:     "Enter your Mother's Name:",
	domain.StepAwaitAmount:     "Enter desired Loan Amount (RWF):",
	domain.StepAwaitDuration:   "Enter loan duration (in days):",
}

// USSDRequest is one gateway callback
type USSDRequest struct {
	SessionID string
	Phone     string
	Text      string
}

// USSDService drives the USSD menu and the stepwise registration dialog
type USSDService struct {
	sessionRepo   repositories.USSDSessionRepository
	userRepo      repositories.UserRepository
	repaymentRepo repositories.RepaymentRepository
	registration  *RegistrationService
	cfg           config.USSDConfig
}

// NewUSSDService creates a new USSD service
func NewUSSDService(
	sessionRepo repositories.USSDSessionRepository,
	userRepo repositories.UserRepository,
	repaymentRepo repositories.RepaymentRepository,
	registration *RegistrationService,
	cfg config.USSDConfig,
) *USSDService {
	if cfg.Separator == "" {
		cfg.Separator = ussd.DefaultSeparator
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "USSD Loan Service"
	}
	if cfg.Currency == "" {
		cfg.Currency = "RWF"
	}
	return &USSDService{
		sessionRepo:   sessionRepo,
		userRepo:      userRepo,
		repaymentRepo: repaymentRepo,
		registration:  registration,
		cfg:           cfg,
	}
}

func (s *USSDService) menu() string {
	return fmt.Sprintf("Welcome to %s\n1. Register\n2. Check Loan\n3. View Repayments\n4. Exit", s.cfg.ServiceName)
}

// Handle answers one gateway callback. Failures never escape as errors: every outcome is a reply.
func (s *USSDService) Handle(ctx context.Context, req USSDRequest) ussd.Reply {
	parts := ussd.Split(req.Text, s.cfg.Separator)
	if len(parts) == 0 {
		return ussd.Con(s.menu())
	}

	if parts[0] == optionRegister && len(parts) >= batchFields {
		return s.registerBatch(ctx, req, parts)
	}

	session, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		log.Printf("❌ USSD session lookup failed (%s): %v", req.SessionID, err)
		return ussd.End(msgServiceError)
	}

	if parts[0] == optionRegister && len(parts) == 1 {
		return s.startRegistration(ctx, req)
	}

	if session != nil {
		return s.advance(ctx, req, session, ussd.Last(parts))
	}

	switch parts[0] {
	case optionCheckLoan:
		return s.checkLoan(ctx, req.Phone)
	case optionRepayments:
		return s.viewRepayments(ctx, req.Phone)
	case optionExit:
		return ussd.End(fmt.Sprintf("Thank you for using %s.", s.cfg.ServiceName))
	}
	return ussd.End(msgInvalidChoice)
}

func (s *USSDService) loadSession(ctx context.Context, sessionID string) (*models.USSDSession, error) {
	if sessionID == "" {
		return nil, nil
	}
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return session, err
}

func (s *USSDService) clear(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		log.Printf("⚠️ Failed to clear USSD session %s: %v", sessionID, err)
	}
}

// startRegistration (re)creates the session at the first prompt
func (s *USSDService) startRegistration(ctx context.Context, req USSDRequest) ussd.Reply {
	if req.SessionID == "" {
		return ussd.End(msgMissingSession)
	}
	session := &models.USSDSession{
		SessionID: req.SessionID,
		Phone:     req.Phone,
		Step:      int(domain.StepAwaitNationalID),
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		log.Printf("❌ Failed to start USSD session %s: %v", req.SessionID, err)
		return ussd.End(msgServiceError)
	}
	return ussd.Con(stepPrompts[domain.StepAwaitNationalID])
}

// advance stores answer against the session's current step and moves to the next prompt
func (s *USSDService) advance(ctx context.Context, req USSDRequest, session *models.USSDSession, answer string) ussd.Reply {
	step := session.CurrentStep()

	switch step {
	case domain.StepAwaitNationalID:
		session.NationalID = answer
	case domain.StepAwaitName:
		session.FullName = answer
	case domain.StepAwaitAddress:
		session.Address = answer
	case domain.StepAwaitFather:
		session.FatherName = answer
	case domain.StepAwaitMother:
		session.MotherName = answer
	case domain.StepAwaitAmount:
		amount, err := money.ParsePositive(answer)
		if err != nil {
			s.clear(ctx, session.SessionID)
			return ussd.End(msgInvalidAmount)
		}
		session.LoanAmount = decimal.NewNullDecimal(amount)
	case domain.StepAwaitDuration:
		duration, err := strconv.Atoi(answer)
		if err != nil || duration <= 0 {
			s.clear(ctx, session.SessionID)
			return ussd.End(msgInvalidDuration)
		}
		return s.complete(ctx, req, session, duration)
	default:
		s.clear(ctx, session.SessionID)
		return ussd.End(msgInvalidState)
	}

	next := step.Next()
	session.Step = int(next)
	if req.Phone != "" {
		session.Phone = req.Phone
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		log.Printf("❌ Failed to save USSD session %s at %s: %v", session.SessionID, step, err)
		return ussd.End(msgServiceError)
	}
	return ussd.Con(stepPrompts[next])
}

// complete promotes the session into a borrower
func (s *USSDService) complete(ctx context.Context, req USSDRequest, session *models.USSDSession, duration int) ussd.Reply {
	if session.NationalID == "" || session.FullName == "" || session.Address == "" ||
		session.FatherName == "" || session.MotherName == "" || !session.LoanAmount.Valid {
		s.clear(ctx, session.SessionID)
		return ussd.End(msgMissingData)
	}

	phone := req.Phone
	if phone == "" {
		phone = session.Phone
	}

	return s.register(ctx, domain.Registration{
		SessionID:  session.SessionID,
		Phone:      phone,
		NationalID: session.NationalID,
		FullName:   session.FullName,
		Address:    session.Address,
		FatherName: session.FatherName,
		MotherName: session.MotherName,
		LoanAmount: session.LoanAmount.Decimal,
		Duration:   duration,
	})
}

// registerBatch handles "1*id*name*address*father*mother*amount*duration" in a single request
func (s *USSDService) registerBatch(ctx context.Context, req USSDRequest, parts []string) ussd.Reply {
	amount, amountErr := money.ParsePositive(parts[6])
	duration, durationErr := strconv.Atoi(parts[7])
	if amountErr != nil || durationErr != nil || duration <= 0 {
		s.clear(ctx, req.SessionID)
		return ussd.End(msgInvalidBatch)
	}

	reg := domain.Registration{
		SessionID:  req.SessionID,
		Phone:      req.Phone,
		NationalID: parts[1],
		FullName:   parts[2],
		Address:    parts[3],
		FatherName: parts[4],
		MotherName: parts[5],
		LoanAmount: amount,
		Duration:   duration,
	}
	if reg.NationalID == "" || reg.FullName == "" || reg.Address == "" || reg.FatherName == "" || reg.MotherName == "" {
		s.clear(ctx, req.SessionID)
		return ussd.End(msgInvalidBatch)
	}
	return s.register(ctx, reg)
}

func (s *USSDService) register(ctx context.Context, reg domain.Registration) ussd.Reply {
	if existing, err := s.userRepo.GetByPhone(ctx, reg.Phone); err == nil {
		s.clear(ctx, reg.SessionID)
		return alreadyRegistered(existing.FullName)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("❌ USSD phone lookup failed (%s): %v", reg.Phone, err)
		return ussd.End(msgServiceError)
	}

	_, err := s.registration.Register(ctx, reg)
	switch {
	case err == nil:
		return ussd.End(msgRegistered)
	case errors.Is(err, domain.ErrPhoneAlreadyRegistered):
		s.clear(ctx, reg.SessionID)
		name := reg.FullName
		if existing, lookupErr := s.userRepo.GetByPhone(ctx, reg.Phone); lookupErr == nil {
			name = existing.FullName
		}
		return alreadyRegistered(name)
	case errors.Is(err, domain.ErrInvalidInput):
		s.clear(ctx, reg.SessionID)
		return ussd.End(msgMissingData)
	case errors.Is(err, domain.ErrInvalidAmount):
		s.clear(ctx, reg.SessionID)
		return ussd.End(msgInvalidAmount)
	case errors.Is(err, domain.ErrInvalidDuration):
		s.clear(ctx, reg.SessionID)
		return ussd.End(msgInvalidDuration)
	default:
		log.Printf("❌ USSD registration failed (session %s): %v", reg.SessionID, err)
		return ussd.End(msgServiceError)
	}
}

func alreadyRegistered(name string) ussd.Reply {
	return ussd.End(fmt.Sprintf("You are already registered, %s.", name))
}

// checkLoan is menu option 2
func (s *USSDService) checkLoan(ctx context.Context, phone string) ussd.Reply {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ussd.End(msgNotRegistered)
		}
		log.Printf("❌ USSD loan lookup failed (%s): %v", phone, err)
		return ussd.End(msgServiceError)
	}
	return ussd.End(fmt.Sprintf("Hello %s, Loan Amount: %s %s, Duration: %d days",
		user.FullName, s.cfg.Currency, money.Format(user.LoanAmount), user.Duration))
}

// viewRepayments is menu option 3
func (s *USSDService) viewRepayments(ctx context.Context, phone string) ussd.Reply {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ussd.End(msgNotRegistered)
		}
		log.Printf("❌ USSD repayment lookup failed (%s): %v", phone, err)
		return ussd.End(msgServiceError)
	}

	repayments, err := s.repaymentRepo.ListByUser(ctx, user.ID)
	if err != nil {
		log.Printf("❌ USSD repayment listing failed (user %d): %v", user.ID, err)
		return ussd.End(msgServiceError)
	}
	if len(repayments) == 0 {
		return ussd.End(msgNoSchedule)
	}

	if len(repayments) > recentRepayments {
		repayments = repayments[len(repayments)-recentRepayments:]
	}
	lines := make([]string, 0, len(repayments))
	for _, r := range repayments {
		status := domain.StatusUnpaid
		if r.Paid {
			status = domain.StatusPaid
		}
		lines = append(lines, fmt.Sprintf("%s: %s %s - %s", r.DueDate.Format("2006-01-02"), s.cfg.Currency, money.Format(r.Amount), status))
	}
	return ussd.End("Last repayments:\n" + strings.Join(lines, "\n"))
}
