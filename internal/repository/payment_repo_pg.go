package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

// SettleResult is the outcome of a settlement. Created is false when the
// booking was already confirmed and the stored payment is returned.
type SettleResult struct {
	Booking domain.Booking
	Payment domain.Payment
	Created bool
}

type PaymentRepository interface {
	// Settle records p against the booking and confirms it in one
	// transaction.
	Settle(ctx context.Context, bookingID int64, p *domain.Payment, now time.Time) (*SettleResult, error)
	LatestForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	List(ctx context.Context) ([]domain.Payment, error)
}

type PGPaymentRepository struct {
	db DB
}

func NewPaymentRepository(db DB) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `p.id, p.booking_id, b.booking_number, p.user_id, p.amount_cents, p.method, p.status, p.paid_at,
	p.card_last4, p.card_expiry, p.account_number, p.bank_name, p.transaction_ref, p.created_at, p.updated_at, p.created_by`

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p                                                      domain.Payment
		cardLast4, cardExpiry, accountNumber, bankName, txnRef *string
	)
	if err := row.Scan(&p.ID, &p.BookingID, &p.BookingNumber, &p.UserID, &p.AmountCents, &p.Method, &p.Status, &p.PaidAt,
		&cardLast4, &cardExpiry, &accountNumber, &bankName, &txnRef, &p.CreatedAt, &p.UpdatedAt, &p.CreatedBy); err != nil {
		return nil, err
	}
	p.CardLast4 = stringValue(cardLast4)
	p.CardExpiry = stringValue(cardExpiry)
	p.AccountNumber = stringValue(accountNumber)
	p.BankName = stringValue(bankName)
	p.TransactionRef = stringValue(txnRef)
	return &p, nil
}

const latestCompletedPayment = `SELECT ` + paymentColumns + ` FROM payments p JOIN booking b ON b.id = p.booking_id
	WHERE p.booking_id=$1 AND p.status='completed' ORDER BY p.created_at DESC LIMIT 1`

func (r *PGPaymentRepository) Settle(ctx context.Context, bookingID int64, p *domain.Payment, now time.Time) (*SettleResult, error) {
	var result *SettleResult
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		switch b.Status {
		case domain.BookingStatusConfirmed:
			result = &SettleResult{Booking: *b}
			existing, err := scanPayment(tx.QueryRow(ctx, latestCompletedPayment, bookingID))
			switch {
			case errors.Is(err, pgx.ErrNoRows):
				return nil
			case err != nil:
				return err
			}
			result.Payment = *existing
			return nil
		case domain.BookingStatusCancelled:
			return domain.NewValidation("status", "booking is cancelled")
		}

		if !b.IsActive(now) {
			err := checkSeats(ctx, tx, b, now)
			if conflicts := domain.SeatConflicts(err); len(conflicts) > 0 {
				return domain.ValidationError{
					Field:     "seat_number",
					Msg:       "reservation expired and seats were taken",
					Conflicts: conflicts,
					Err:       err,
				}
			}
			if err != nil {
				return err
			}
		}

		p.BookingID = b.ID
		p.BookingNumber = b.BookingNumber
		if err := tx.QueryRow(ctx, `INSERT INTO payments (booking_id, user_id, amount_cents, method, status, paid_at,
				card_last4, card_expiry, account_number, bank_name, transaction_ref, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			RETURNING id, created_at, updated_at`,
			p.BookingID, p.UserID, p.AmountCents, p.Method, p.Status, p.PaidAt,
			nullString(p.CardLast4), nullString(p.CardExpiry), nullString(p.AccountNumber), nullString(p.BankName), nullString(p.TransactionRef),
			p.CreatedBy).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}

		confirmed, err := scanBooking(tx.QueryRow(ctx, `UPDATE booking b SET status='confirmed', reserved_until=NULL, updated_by=$1, updated_at=now()
			WHERE b.id=$2 RETURNING `+bookingColumns, p.CreatedBy, b.ID))
		if err != nil {
			return err
		}
		result = &SettleResult{Booking: *confirmed, Payment: *p, Created: true}
		return nil
	})
	if _, ok := uniqueConstraint(err); ok {
		return nil, domain.ConflictError{Resource: "payment", Msg: "booking already has a completed payment", Err: err}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PGPaymentRepository) LatestForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments p JOIN booking b ON b.id = p.booking_id
		WHERE p.booking_id=$1 ORDER BY p.created_at DESC LIMIT 1`, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PGPaymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments p JOIN booking b ON b.id = p.booking_id ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
