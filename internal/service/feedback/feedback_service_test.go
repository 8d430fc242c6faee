package feedback

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockComplaintRepository struct {
	mock.Mock
}

func (m *MockComplaintRepository) Create(ctx context.Context, c *domain.Complaint) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockComplaintRepository) List(ctx context.Context) ([]domain.Complaint, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Complaint), args.Error(1)
}

type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) Create(ctx context.Context, r *domain.RefundRequest) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRefundRepository) List(ctx context.Context) ([]domain.RefundRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.RefundRequest), args.Error(1)
}

func (m *MockRefundRepository) UpdateStatus(ctx context.Context, id int64, status domain.RefundStatus, actorID int64) (*domain.RefundRequest, error) {
	args := m.Called(ctx, id, status, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundRequest), args.Error(1)
}

type MockBookingReader struct {
	mock.Mock
}

func (m *MockBookingReader) GetByID(ctx context.Context, id int64) (*domain.BookingDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetails), args.Error(1)
}

var (
	customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

type fixture struct {
	complaints *MockComplaintRepository
	refunds    *MockRefundRepository
	bookings   *MockBookingReader
	service    *FeedbackService
}

func newFixture() *fixture {
	f := &fixture{
		complaints: &MockComplaintRepository{},
		refunds:    &MockRefundRepository{},
		bookings:   &MockBookingReader{},
	}
	f.service = NewFeedbackService(f.complaints, f.refunds, f.bookings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func complaint() ComplaintInput {
	return ComplaintInput{
		Type:      "Suggestion",
		Title:     "Wi-Fi",
		FirstName: "Ayesha",
		Email:     "ayesha@example.com",
		Mobile:    "03001234567",
		Message:   "Please add Wi-Fi on the night buses.",
	}
}

func TestSubmitComplaint(t *testing.T) {
	f := newFixture()
	f.complaints.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Complaint) bool {
		return c.UserID == 7 && c.Type == domain.ComplaintTypeSuggestion && c.Title == "Wi-Fi"
	})).Return(nil)

	c, err := f.service.SubmitComplaint(context.Background(), customer, complaint())
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintTypeSuggestion, c.Type)
	f.complaints.AssertExpectations(t)
}

func TestSubmitComplaint_Validation(t *testing.T) {
	f := newFixture()

	in := complaint()
	in.Type = "praise"
	_, err := f.service.SubmitComplaint(context.Background(), customer, in)
	var verr domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "suggestion_type", verr.Field)

	in = complaint()
	in.Message = "  "
	_, err = f.service.SubmitComplaint(context.Background(), customer, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Field)

	_, err = f.service.SubmitComplaint(context.Background(), domain.Actor{}, complaint())
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	f.complaints.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListComplaints_AdminOnly(t *testing.T) {
	f := newFixture()
	f.complaints.On("List", mock.Anything).Return([]domain.Complaint{{ID: 1}}, nil)

	_, err := f.service.ListComplaints(context.Background(), customer)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := f.service.ListComplaints(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func booking(owner int64) *domain.BookingDetails {
	return &domain.BookingDetails{Booking: domain.Booking{ID: 11, UserID: owner, BookingNumber: "BK-0000000B"}}
}

func TestRequestRefund(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, int64(11)).Return(booking(7), nil)
	f.refunds.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.RefundRequest) bool {
		return r.UserID == 7 && r.BookingID == 11 && r.RefundAs == "Bank transfer" &&
			r.Status == domain.RefundStatusPending
	})).Return(nil)

	r, err := f.service.RequestRefund(context.Background(), customer, 11, RefundInput{RefundAs: " Bank transfer "})
	require.NoError(t, err)
	assert.Equal(t, "BK-0000000B", r.BookingNumber)
	f.refunds.AssertExpectations(t)
}

func TestRequestRefund_NotOwner(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, int64(11)).Return(booking(8), nil)

	_, err := f.service.RequestRefund(context.Background(), customer, 11, RefundInput{RefundAs: "Cash"})
	assert.True(t, domain.IsNotFound(err))
	f.refunds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestRefund_MissingRefundAs(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, int64(11)).Return(booking(7), nil)

	_, err := f.service.RequestRefund(context.Background(), customer, 11, RefundInput{})
	assert.True(t, domain.IsValidation(err))
}

func TestSetRefundStatus(t *testing.T) {
	f := newFixture()
	f.refunds.On("UpdateStatus", mock.Anything, int64(4), domain.RefundStatusApproved, admin.UserID).
		Return(&domain.RefundRequest{ID: 4, Status: domain.RefundStatusApproved}, nil)

	r, err := f.service.SetRefundStatus(context.Background(), admin, 4, domain.RefundStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusApproved, r.Status)

	_, err = f.service.SetRefundStatus(context.Background(), admin, 4, "Done")
	assert.True(t, domain.IsValidation(err))

	_, err = f.service.SetRefundStatus(context.Background(), customer, 4, domain.RefundStatusApproved)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
