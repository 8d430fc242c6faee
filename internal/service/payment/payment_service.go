package payment

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/repository"
)

const eventWarning = "notification could not be queued"

type PaymentUseCase interface {
	Settle(ctx context.Context, actor domain.Actor, bookingID int64, input PaymentInput) (*Result, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.Payment, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.BookingDetails, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type Events interface {
	PublishBooking(ctx context.Context, event kafka.BookingEvent) error
}

type PaymentInput struct {
	Method         domain.PaymentMethod `json:"payment_method"`
	CardNumber     string               `json:"card_number"`
	CardExpiry     string               `json:"card_expiry"`
	AccountNumber  string               `json:"account_number"`
	BankName       string               `json:"bank_name"`
	TransactionRef string               `json:"transaction_ref"`
}

type Result struct {
	Booking    domain.Booking `json:"booking"`
	Payment    domain.Payment `json:"payment"`
	TotalCents int64          `json:"total_cents"`
	// AlreadyPaid is set when the booking had been confirmed before and
	// nothing was written.
	AlreadyPaid bool     `json:"already_paid"`
	Warnings    []string `json:"warnings,omitempty"`
}

type PaymentService struct {
	bookings BookingReader
	payments repository.PaymentRepository
	users    UserReader
	events   Events
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*PaymentService)

func WithClock(now func() time.Time) Option {
	return func(s *PaymentService) {
		s.now = now
	}
}

func NewPaymentService(
	bookings BookingReader,
	payments repository.PaymentRepository,
	users UserReader,
	events Events,
	logger *slog.Logger,
	opts ...Option,
) *PaymentService {
	s := &PaymentService{
		bookings: bookings,
		payments: payments,
		users:    users,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settle pays for a booking and confirms it. Paying for a booking that is
// already confirmed returns the recorded payment.
func (s *PaymentService) Settle(ctx context.Context, actor domain.Actor, bookingID int64, input PaymentInput) (*Result, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(current.UserID) {
		return nil, domain.NotFoundError{Resource: "booking"}
	}

	now := s.now()
	total := domain.TotalPriceCents(current.SeatCount(), current.Bus.PriceCents)
	p, err := buildPayment(input)
	if err != nil {
		return nil, err
	}
	p.UserID = current.UserID
	p.AmountCents = total
	p.Status = domain.PaymentStatusCompleted
	p.PaidAt = &now
	p.CreatedBy = &actor.UserID

	settled, err := s.payments.Settle(ctx, bookingID, p, now)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Booking:     settled.Booking,
		Payment:     settled.Payment,
		TotalCents:  total,
		AlreadyPaid: !settled.Created,
	}
	if !settled.Created {
		s.logger.InfoContext(ctx, "booking already paid", "booking_number", settled.Booking.BookingNumber)
		return result, nil
	}

	s.logger.InfoContext(ctx, "booking confirmed",
		"booking_number", settled.Booking.BookingNumber, "amount", domain.FormatCents(total), "method", p.Method)
	result.Warnings = s.publish(ctx, settled.Booking, &current.Bus)
	return result, nil
}

func (s *PaymentService) List(ctx context.Context, actor domain.Actor) ([]domain.Payment, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.payments.List(ctx)
}

func (s *PaymentService) publish(ctx context.Context, b domain.Booking, bus *domain.Bus) []string {
	if s.events == nil {
		return nil
	}
	user, err := s.users.GetByID(ctx, b.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "load event recipient", "user_id", b.UserID, "error", err)
		user = nil
	}
	if err := s.events.PublishBooking(ctx, kafka.NewBookingEvent(kafka.EventBookingConfirmed, b, bus, user)); err != nil {
		s.logger.ErrorContext(ctx, "publish booking event", "booking_number", b.BookingNumber, "error", err)
		return []string{eventWarning}
	}
	return nil
}

// buildPayment checks the fields the chosen method needs. Only the last
// four card digits are kept.
func buildPayment(input PaymentInput) (*domain.Payment, error) {
	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(input.Method))))
	if method == "" {
		method = domain.PaymentMethodCash
	}
	if !method.Valid() {
		return nil, domain.NewValidation("payment_method", "must be one of card, cash, wallet, bank_transfer")
	}

	p := &domain.Payment{Method: method, TransactionRef: strings.TrimSpace(input.TransactionRef)}
	switch method {
	case domain.PaymentMethodCard:
		digits := cardDigits(input.CardNumber)
		if len(digits) < 4 {
			return nil, domain.NewValidation("card_number", "at least 4 digits are required")
		}
		p.CardLast4 = digits[len(digits)-4:]
		p.CardExpiry = strings.TrimSpace(input.CardExpiry)
	case domain.PaymentMethodBankTransfer:
		p.AccountNumber = strings.TrimSpace(input.AccountNumber)
		p.BankName = strings.TrimSpace(input.BankName)
		if p.AccountNumber == "" {
			return nil, domain.NewValidation("account_number", "is required for bank transfers")
		}
		if p.BankName == "" {
			return nil, domain.NewValidation("bank_name", "is required for bank transfers")
		}
	}
	return p, nil
}

// cardDigits strips spaces and dashes. Any other character makes the
// number invalid.
func cardDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r == ' ' || r == '-':
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		default:
			return ""
		}
	}
	return b.String()
}

var _ PaymentUseCase = (*PaymentService)(nil)
