package api

import (
	"context"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/catalog"
	"github.com/Domenick1991/busbooking/internal/service/feedback"
	"github.com/Domenick1991/busbooking/internal/service/payment"
	"github.com/Domenick1991/busbooking/internal/service/tickets"
	"github.com/Domenick1991/busbooking/internal/service/users"
	"github.com/stretchr/testify/mock"
)

func result[T any](args mock.Arguments) (T, error) {
	var zero T
	if args.Get(0) == nil {
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Reserve(ctx context.Context, actor domain.Actor, input booking.ReserveInput) (*booking.Result, error) {
	return result[*booking.Result](m.Called(ctx, actor, input))
}

func (m *MockBookingUseCase) RenewHold(ctx context.Context, actor domain.Actor, bookingID int64) (*booking.Result, error) {
	return result[*booking.Result](m.Called(ctx, actor, bookingID))
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, actor domain.Actor, bookingID int64) (*booking.Result, error) {
	return result[*booking.Result](m.Called(ctx, actor, bookingID))
}

func (m *MockBookingUseCase) ExpireStale(ctx context.Context) ([]domain.Booking, error) {
	return result[[]domain.Booking](m.Called(ctx))
}

func (m *MockBookingUseCase) Availability(ctx context.Context, busID int64, date time.Time) (*booking.Availability, error) {
	return result[*booking.Availability](m.Called(ctx, busID, date))
}

func (m *MockBookingUseCase) Update(ctx context.Context, actor domain.Actor, bookingID int64, input booking.UpdateInput) (*domain.Booking, error) {
	return result[*domain.Booking](m.Called(ctx, actor, bookingID, input))
}

func (m *MockBookingUseCase) List(ctx context.Context, actor domain.Actor) ([]domain.BookingDetails, error) {
	return result[[]domain.BookingDetails](m.Called(ctx, actor))
}

type MockCatalogUseCase struct {
	mock.Mock
}

func (m *MockCatalogUseCase) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	return result[[]domain.Route](m.Called(ctx))
}

func (m *MockCatalogUseCase) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	return result[*domain.Route](m.Called(ctx, id))
}

func (m *MockCatalogUseCase) CreateRoute(ctx context.Context, actor domain.Actor, input catalog.RouteInput) (*domain.Route, error) {
	return result[*domain.Route](m.Called(ctx, actor, input))
}

func (m *MockCatalogUseCase) UpdateRoute(ctx context.Context, actor domain.Actor, id int64, input catalog.RouteInput) (*domain.Route, error) {
	return result[*domain.Route](m.Called(ctx, actor, id, input))
}

func (m *MockCatalogUseCase) DeleteRoute(ctx context.Context, actor domain.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockCatalogUseCase) ListBuses(ctx context.Context) ([]catalog.BusView, error) {
	return result[[]catalog.BusView](m.Called(ctx))
}

func (m *MockCatalogUseCase) GetBus(ctx context.Context, id int64) (*catalog.BusView, error) {
	return result[*catalog.BusView](m.Called(ctx, id))
}

func (m *MockCatalogUseCase) CreateBus(ctx context.Context, actor domain.Actor, input catalog.BusInput) (*catalog.BusView, error) {
	return result[*catalog.BusView](m.Called(ctx, actor, input))
}

func (m *MockCatalogUseCase) UpdateBus(ctx context.Context, actor domain.Actor, id int64, input catalog.BusInput) (*catalog.BusView, error) {
	return result[*catalog.BusView](m.Called(ctx, actor, id, input))
}

func (m *MockCatalogUseCase) DeleteBus(ctx context.Context, actor domain.Actor, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockCatalogUseCase) Search(ctx context.Context, origin, destination string, date time.Time) ([]catalog.BusAvailability, error) {
	return result[[]catalog.BusAvailability](m.Called(ctx, origin, destination, date))
}

func (m *MockCatalogUseCase) Locations(ctx context.Context) (*catalog.Locations, error) {
	return result[*catalog.Locations](m.Called(ctx))
}

type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) Settle(ctx context.Context, actor domain.Actor, bookingID int64, input payment.PaymentInput) (*payment.Result, error) {
	return result[*payment.Result](m.Called(ctx, actor, bookingID, input))
}

func (m *MockPaymentUseCase) List(ctx context.Context, actor domain.Actor) ([]domain.Payment, error) {
	return result[[]domain.Payment](m.Called(ctx, actor))
}

type MockTicketsUseCase struct {
	mock.Mock
}

func (m *MockTicketsUseCase) Upcoming(ctx context.Context, actor domain.Actor) ([]tickets.Ticket, error) {
	return result[[]tickets.Ticket](m.Called(ctx, actor))
}

func (m *MockTicketsUseCase) Past(ctx context.Context, actor domain.Actor) ([]tickets.Ticket, error) {
	return result[[]tickets.Ticket](m.Called(ctx, actor))
}

func (m *MockTicketsUseCase) Detail(ctx context.Context, actor domain.Actor, bookingID int64) (*tickets.TicketDetail, error) {
	return result[*tickets.TicketDetail](m.Called(ctx, actor, bookingID))
}

func (m *MockTicketsUseCase) Dashboard(ctx context.Context, actor domain.Actor) (*tickets.Dashboard, error) {
	return result[*tickets.Dashboard](m.Called(ctx, actor))
}

func (m *MockTicketsUseCase) TicketPDF(ctx context.Context, actor domain.Actor, bookingID int64) ([]byte, string, error) {
	args := m.Called(ctx, actor, bookingID)
	body, _ := args.Get(0).([]byte)
	return body, args.String(1), args.Error(2)
}

type MockUsersUseCase struct {
	mock.Mock
}

func (m *MockUsersUseCase) Register(ctx context.Context, input users.RegisterInput) (*domain.User, error) {
	return result[*domain.User](m.Called(ctx, input))
}

func (m *MockUsersUseCase) Login(ctx context.Context, email, password string) (*users.Session, error) {
	return result[*users.Session](m.Called(ctx, email, password))
}

func (m *MockUsersUseCase) Create(ctx context.Context, actor domain.Actor, role domain.Role, input users.RegisterInput) (*domain.User, error) {
	return result[*domain.User](m.Called(ctx, actor, role, input))
}

func (m *MockUsersUseCase) List(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.User, error) {
	return result[[]domain.User](m.Called(ctx, actor, role))
}

func (m *MockUsersUseCase) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.User, error) {
	return result[*domain.User](m.Called(ctx, actor, id))
}

func (m *MockUsersUseCase) Update(ctx context.Context, actor domain.Actor, id int64, input users.ProfileInput) (*domain.User, error) {
	return result[*domain.User](m.Called(ctx, actor, id, input))
}

func (m *MockUsersUseCase) Delete(ctx context.Context, actor domain.Actor, role domain.Role, id int64) error {
	return m.Called(ctx, actor, role, id).Error(0)
}

type MockFeedbackUseCase struct {
	mock.Mock
}

func (m *MockFeedbackUseCase) SubmitComplaint(ctx context.Context, actor domain.Actor, input feedback.ComplaintInput) (*domain.Complaint, error) {
	return result[*domain.Complaint](m.Called(ctx, actor, input))
}

func (m *MockFeedbackUseCase) ListComplaints(ctx context.Context, actor domain.Actor) ([]domain.Complaint, error) {
	return result[[]domain.Complaint](m.Called(ctx, actor))
}

func (m *MockFeedbackUseCase) RequestRefund(ctx context.Context, actor domain.Actor, bookingID int64, input feedback.RefundInput) (*domain.RefundRequest, error) {
	return result[*domain.RefundRequest](m.Called(ctx, actor, bookingID, input))
}

func (m *MockFeedbackUseCase) ListRefunds(ctx context.Context, actor domain.Actor) ([]domain.RefundRequest, error) {
	return result[[]domain.RefundRequest](m.Called(ctx, actor))
}

func (m *MockFeedbackUseCase) SetRefundStatus(ctx context.Context, actor domain.Actor, id int64, status domain.RefundStatus) (*domain.RefundRequest, error) {
	return result[*domain.RefundRequest](m.Called(ctx, actor, id, status))
}

type MockTokenParser struct {
	mock.Mock
}

func (m *MockTokenParser) Parse(raw string) (domain.Actor, error) {
	args := m.Called(raw)
	return args.Get(0).(domain.Actor), args.Error(1)
}
