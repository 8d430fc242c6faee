package repository

import (
	"context"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ComplaintRepository interface {
	Create(ctx context.Context, c *domain.Complaint) error
	List(ctx context.Context) ([]domain.Complaint, error)
}

type RefundRepository interface {
	Create(ctx context.Context, r *domain.RefundRequest) error
	List(ctx context.Context) ([]domain.RefundRequest, error)
	UpdateStatus(ctx context.Context, id int64, status domain.RefundStatus, actorID int64) (*domain.RefundRequest, error)
}

type PGComplaintRepository struct {
	db DB
}

func NewComplaintRepository(db DB) ComplaintRepository {
	return &PGComplaintRepository{db: db}
}

func (r *PGComplaintRepository) Create(ctx context.Context, c *domain.Complaint) error {
	return r.db.QueryRow(ctx, `INSERT INTO complaint_suggestion (user_id, suggestion_type, title, first_name, email, mobile_number, message, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $1, $1)
		RETURNING id, created_at`,
		c.UserID, c.Type, c.Title, c.FirstName, c.Email, c.Mobile, c.Message).
		Scan(&c.ID, &c.CreatedAt)
}

func (r *PGComplaintRepository) List(ctx context.Context) ([]domain.Complaint, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, suggestion_type, title, first_name, email, mobile_number, message, created_at
		FROM complaint_suggestion ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := make([]domain.Complaint, 0)
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(&c.ID, &c.UserID, &c.Type, &c.Title, &c.FirstName, &c.Email, &c.Mobile, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

type PGRefundRepository struct {
	db DB
}

func NewRefundRepository(db DB) RefundRepository {
	return &PGRefundRepository{db: db}
}

const refundColumns = `rr.id, rr.user_id, rr.booking_id, b.booking_number, rr.refund_as, rr.additional_notes, rr.status, rr.submitted_at, rr.updated_by`

func scanRefund(row pgx.Row) (*domain.RefundRequest, error) {
	var (
		rr    domain.RefundRequest
		notes *string
	)
	if err := row.Scan(&rr.ID, &rr.UserID, &rr.BookingID, &rr.BookingNumber, &rr.RefundAs, &notes, &rr.Status, &rr.SubmittedAt, &rr.UpdatedBy); err != nil {
		return nil, err
	}
	rr.AdditionalNotes = stringValue(notes)
	return &rr, nil
}

func (r *PGRefundRepository) Create(ctx context.Context, rr *domain.RefundRequest) error {
	return r.db.QueryRow(ctx, `INSERT INTO refund_request (user_id, booking_id, refund_as, additional_notes, status, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $1, $1)
		RETURNING id, submitted_at`,
		rr.UserID, rr.BookingID, rr.RefundAs, nullString(rr.AdditionalNotes), rr.Status).
		Scan(&rr.ID, &rr.SubmittedAt)
}

func (r *PGRefundRepository) List(ctx context.Context) ([]domain.RefundRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+refundColumns+` FROM refund_request rr JOIN booking b ON b.id = rr.booking_id ORDER BY rr.submitted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunds := make([]domain.RefundRequest, 0)
	for rows.Next() {
		rr, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, *rr)
	}
	return refunds, rows.Err()
}

func (r *PGRefundRepository) UpdateStatus(ctx context.Context, id int64, status domain.RefundStatus, actorID int64) (*domain.RefundRequest, error) {
	rr, err := scanRefund(r.db.QueryRow(ctx, `UPDATE refund_request rr SET status=$1, updated_by=$2, updated_at=now()
		FROM booking b WHERE rr.id=$3 AND b.id = rr.booking_id RETURNING `+refundColumns, status, actorRef(actorID), id))
	if err != nil {
		return nil, notFound("refund request", err)
	}
	return rr, nil
}

var (
	_ ComplaintRepository = (*PGComplaintRepository)(nil)
	_ RefundRepository    = (*PGRefundRepository)(nil)
)
