package feedback

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
)

type FeedbackUseCase interface {
	SubmitComplaint(ctx context.Context, actor domain.Actor, input ComplaintInput) (*domain.Complaint, error)
	ListComplaints(ctx context.Context, actor domain.Actor) ([]domain.Complaint, error)
	RequestRefund(ctx context.Context, actor domain.Actor, bookingID int64, input RefundInput) (*domain.RefundRequest, error)
	ListRefunds(ctx context.Context, actor domain.Actor) ([]domain.RefundRequest, error)
	SetRefundStatus(ctx context.Context, actor domain.Actor, id int64, status domain.RefundStatus) (*domain.RefundRequest, error)
}

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.BookingDetails, error)
}

type ComplaintInput struct {
	Type      domain.ComplaintType `json:"suggestion_type"`
	Title     string               `json:"title"`
	FirstName string               `json:"first_name"`
	Email     string               `json:"email"`
	Mobile    string               `json:"mobile_number"`
	Message   string               `json:"message"`
}

type RefundInput struct {
	RefundAs        string `json:"refund_as"`
	AdditionalNotes string `json:"additional_notes"`
}

type FeedbackService struct {
	complaints repository.ComplaintRepository
	refunds    repository.RefundRepository
	bookings   BookingReader
	logger     *slog.Logger
}

func NewFeedbackService(
	complaints repository.ComplaintRepository,
	refunds repository.RefundRepository,
	bookings BookingReader,
	logger *slog.Logger,
) *FeedbackService {
	return &FeedbackService{complaints: complaints, refunds: refunds, bookings: bookings, logger: logger}
}

func (s *FeedbackService) SubmitComplaint(ctx context.Context, actor domain.Actor, input ComplaintInput) (*domain.Complaint, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	c := &domain.Complaint{
		UserID:    actor.UserID,
		Type:      domain.ComplaintType(strings.ToLower(strings.TrimSpace(string(input.Type)))),
		Title:     strings.TrimSpace(input.Title),
		FirstName: strings.TrimSpace(input.FirstName),
		Email:     strings.TrimSpace(input.Email),
		Mobile:    strings.TrimSpace(input.Mobile),
		Message:   strings.TrimSpace(input.Message),
	}
	if !c.Type.Valid() {
		return nil, domain.NewValidation("suggestion_type", "must be complaint, suggestion or other")
	}
	for _, f := range []struct{ name, value string }{
		{"title", c.Title},
		{"first_name", c.FirstName},
		{"email", c.Email},
		{"mobile_number", c.Mobile},
		{"message", c.Message},
	} {
		if f.value == "" {
			return nil, domain.NewValidation(f.name, "is required")
		}
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "complaint submitted", "id", c.ID, "type", c.Type)
	return c, nil
}

func (s *FeedbackService) ListComplaints(ctx context.Context, actor domain.Actor) ([]domain.Complaint, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.complaints.List(ctx)
}

func (s *FeedbackService) RequestRefund(ctx context.Context, actor domain.Actor, bookingID int64, input RefundInput) (*domain.RefundRequest, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, domain.NotFoundError{Resource: "booking"}
	}
	refundAs := strings.TrimSpace(input.RefundAs)
	if refundAs == "" {
		return nil, domain.NewValidation("refund_as", "is required")
	}

	r := &domain.RefundRequest{
		UserID:          b.UserID,
		BookingID:       b.ID,
		BookingNumber:   b.BookingNumber,
		RefundAs:        refundAs,
		AdditionalNotes: strings.TrimSpace(input.AdditionalNotes),
		Status:          domain.RefundStatusPending,
	}
	if err := s.refunds.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "refund requested", "id", r.ID, "booking_number", b.BookingNumber)
	return r, nil
}

func (s *FeedbackService) ListRefunds(ctx context.Context, actor domain.Actor) ([]domain.RefundRequest, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.refunds.List(ctx)
}

func (s *FeedbackService) SetRefundStatus(ctx context.Context, actor domain.Actor, id int64, status domain.RefundStatus) (*domain.RefundRequest, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewValidation("status", "must be Pending, Approved or Rejected")
	}
	r, err := s.refunds.UpdateStatus(ctx, id, status, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "refund status changed", "id", id, "status", status, "actor", actor.UserID)
	return r, nil
}

var _ FeedbackUseCase = (*FeedbackService)(nil)
