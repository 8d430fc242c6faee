package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateReserved(ctx context.Context, b *domain.Booking, now time.Time) error {
	args := m.Called(ctx, b, now)
	if args.Error(0) == nil {
		b.ID = 100
	}
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.BookingDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetails), args.Error(1)
}

func (m *MockBookingRepository) ListForBusDate(ctx context.Context, busID int64, date time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, busID, date)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.BookingDetails, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.BookingDetails), args.Error(1)
}

func (m *MockBookingRepository) ListAll(ctx context.Context) ([]domain.BookingDetails, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.BookingDetails), args.Error(1)
}

func (m *MockBookingRepository) RenewHold(ctx context.Context, id int64, until, now time.Time, actorID int64) (*domain.Booking, error) {
	args := m.Called(ctx, id, until, now, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateTrip(ctx context.Context, b *domain.Booking, now time.Time) error {
	return m.Called(ctx, b, now).Error(0)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id int64, actorID int64) (*domain.Booking, error) {
	args := m.Called(ctx, id, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ExpireLapsed(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) LatestForUser(ctx context.Context, userID int64) (*domain.BookingDetails, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingDetails), args.Error(1)
}

func (m *MockBookingRepository) Stats(ctx context.Context, userID int64, today time.Time) (*repository.UserBookingStats, error) {
	args := m.Called(ctx, userID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.UserBookingStats), args.Error(1)
}

type MockBusRepository struct {
	mock.Mock
}

func (m *MockBusRepository) List(ctx context.Context) ([]domain.Bus, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Bus), args.Error(1)
}

func (m *MockBusRepository) GetByID(ctx context.Context, id int64) (*domain.Bus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bus), args.Error(1)
}

func (m *MockBusRepository) ListByRoute(ctx context.Context, origin, destination string) ([]domain.Bus, error) {
	args := m.Called(ctx, origin, destination)
	return args.Get(0).([]domain.Bus), args.Error(1)
}

func (m *MockBusRepository) Create(ctx context.Context, bus *domain.Bus) error {
	return m.Called(ctx, bus).Error(0)
}

func (m *MockBusRepository) Update(ctx context.Context, bus *domain.Bus) error {
	return m.Called(ctx, bus).Error(0)
}

func (m *MockBusRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSeatLock(ctx context.Context, busID int64, date time.Time, seat, token string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, busID, date, seat, token, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseSeatLock(ctx context.Context, busID int64, date time.Time, seat, token string) error {
	return m.Called(ctx, busID, date, seat, token).Error(0)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishBooking(ctx context.Context, event kafka.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

var (
	karachi  = mustLoad("Asia/Karachi")
	customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	// 13:00 in Karachi on 2026-05-01.
	now      = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	today    = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tomorrow = today.AddDate(0, 0, 1)
)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type fixture struct {
	bookings *MockBookingRepository
	buses    *MockBusRepository
	users    *MockUserReader
	cache    *MockCache
	events   *MockEvents
	service  *BookingService
}

func newFixture() *fixture {
	f := &fixture{
		bookings: &MockBookingRepository{},
		buses:    &MockBusRepository{},
		users:    &MockUserReader{},
		cache:    &MockCache{},
		events:   &MockEvents{},
	}
	f.service = NewBookingService(f.bookings, f.buses, f.users, f.cache, f.events, karachi, 30*time.Minute,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return now }),
		WithSeatLockTTL(5*time.Second),
	)
	return f
}

func testBus() *domain.Bus {
	return &domain.Bus{
		ID:         3,
		BusNumber:  "LHR-1",
		Capacity:   40,
		RouteID:    9,
		Type:       domain.BusTypeExpress,
		Departure:  domain.ClockTime{Hour: 18},
		PriceCents: 125000,
		Route:      &domain.Route{ID: 9, Origin: "Lahore", Destination: "Islamabad", Duration: "4h"},
	}
}

func (f *fixture) expectLocks(date time.Time, seats ...string) {
	for _, seat := range seats {
		f.cache.On("AcquireSeatLock", mock.Anything, int64(3), date, seat, mock.Anything, 5*time.Second).Return(true, nil).Once()
		f.cache.On("ReleaseSeatLock", mock.Anything, int64(3), date, seat, mock.Anything).Return(nil).Once()
	}
}

func TestBookingService_Reserve_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(tomorrow, "4", "5")
	f.bookings.On("CreateReserved", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.UserID == 7 && b.RouteID == 9 && b.Seats == "4,5" && b.BookingDate.Equal(tomorrow)
	}), now).Return(nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7, Email: "ali@example.com", Name: "Ali"}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingReserved && e.Email == "ali@example.com" && e.TotalCents == 250000
	})).Return(nil).Once()

	result, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{" 4", "5 ", ""}})

	require.NoError(t, err)
	b := result.Booking
	assert.Equal(t, domain.BookingStatusReserved, b.Status)
	assert.Equal(t, now.Add(30*time.Minute), *b.ReservedUntil)
	assert.True(t, strings.HasPrefix(b.BookingNumber, "BK-"))
	assert.Len(t, b.BookingNumber, 11)
	assert.Equal(t, strings.ToUpper(b.BookingNumber), b.BookingNumber)
	assert.Equal(t, int64(250000), result.TotalCents)
	assert.Empty(t, result.Warnings)
	f.bookings.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestBookingService_Reserve_SeatValidation(t *testing.T) {
	tests := []struct {
		name  string
		seats []string
	}{
		{"empty", []string{" ", ","}},
		{"duplicate", []string{"4", "4"}},
		{"zero", []string{"0"}},
		{"beyond capacity", []string{"41"}},
		{"not a number", []string{"A1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.buses.On("GetByID", mock.Anything, int64(3)).Return(testBus(), nil).Once()

			_, err := f.service.Reserve(context.Background(), customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: tt.seats})

			var verr domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "seat_number", verr.Field)
			f.bookings.AssertNotCalled(t, "CreateReserved", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_Reserve_PastDate(t *testing.T) {
	f := newFixture()
	f.buses.On("GetByID", mock.Anything, int64(3)).Return(testBus(), nil).Once()

	_, err := f.service.Reserve(context.Background(), customer, ReserveInput{BusID: 3, Date: today.AddDate(0, 0, -1), Seats: []string{"1"}})

	assert.True(t, domain.IsValidation(err))
}

func TestBookingService_Reserve_DepartedToday(t *testing.T) {
	f := newFixture()
	bus := testBus()
	bus.Departure = domain.ClockTime{Hour: 12, Minute: 30}
	f.buses.On("GetByID", mock.Anything, int64(3)).Return(bus, nil).Once()

	_, err := f.service.Reserve(context.Background(), customer, ReserveInput{BusID: 3, Date: today, Seats: []string{"1"}})

	var verr domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "departed at 12:30")
}

func TestBookingService_Reserve_LaterToday(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(today, "1")
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.Anything).Return(nil).Once()

	result, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: today, Seats: []string{"1"}})

	require.NoError(t, err)
	assert.Equal(t, today, result.Booking.BookingDate)
}

func TestBookingService_Reserve_Unauthenticated(t *testing.T) {
	f := newFixture()

	_, err := f.service.Reserve(context.Background(), domain.Actor{}, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"1"}})

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}

func TestBookingService_Reserve_OnBehalfRequiresAdmin(t *testing.T) {
	f := newFixture()

	_, err := f.service.Reserve(context.Background(), customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"1"}, UserID: 99})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBookingService_Reserve_BusNotFound(t *testing.T) {
	f := newFixture()
	f.buses.On("GetByID", mock.Anything, int64(3)).Return(nil, domain.NotFoundError{Resource: "bus"}).Once()

	_, err := f.service.Reserve(context.Background(), customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"1"}})

	assert.True(t, domain.IsNotFound(err))
}

func TestBookingService_Reserve_SeatConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	conflict := domain.ValidationError{Field: "seat_number", Conflicts: []string{"5"}}

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(tomorrow, "4", "5")
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(conflict).Once()

	_, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"4", "5"}})

	assert.Equal(t, []string{"5"}, domain.SeatConflicts(err))
	assert.EqualError(t, err, "seats already taken: 5")
	f.events.AssertNotCalled(t, "PublishBooking", mock.Anything, mock.Anything)
	f.cache.AssertExpectations(t)
}

func TestBookingService_Reserve_SeatLockedElsewhere(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(tomorrow, "4")
	f.cache.On("AcquireSeatLock", mock.Anything, int64(3), tomorrow, "5", mock.Anything, 5*time.Second).Return(false, nil).Once()

	_, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"4", "5"}})

	assert.Equal(t, []string{"5"}, domain.SeatConflicts(err))
	f.cache.AssertExpectations(t)
	f.bookings.AssertNotCalled(t, "CreateReserved", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Reserve_RedisDownFallsThrough(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.cache.On("AcquireSeatLock", mock.Anything, int64(3), tomorrow, "4", mock.Anything, 5*time.Second).Return(false, errors.New("redis down")).Once()
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.Anything).Return(nil).Once()

	_, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"4"}})

	assert.NoError(t, err)
	f.cache.AssertNotCalled(t, "ReleaseSeatLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Reserve_ReleasesWithOwnToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var token string
	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.cache.On("AcquireSeatLock", mock.Anything, int64(3), tomorrow, "4", mock.Anything, 5*time.Second).
		Run(func(args mock.Arguments) { token = args.String(4) }).
		Return(true, nil).Once()
	f.cache.On("ReleaseSeatLock", mock.Anything, int64(3), tomorrow, "4", mock.MatchedBy(func(got string) bool {
		return got != "" && got == token
	})).Return(nil).Once()
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.Anything).Return(nil).Once()

	_, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"4"}})

	require.NoError(t, err)
	f.cache.AssertExpectations(t)
}

func TestBookingService_Reserve_RetriesBookingNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	numbers := []string{"BK-00000001", "BK-00000002"}
	f.service.newNumber = func() string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(tomorrow, "1")
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(repository.ErrDuplicateBookingNumber).Once()
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.Anything).Return(nil).Once()

	result, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"1"}})

	require.NoError(t, err)
	assert.Equal(t, "BK-00000002", result.Booking.BookingNumber)
}

func TestBookingService_Reserve_GivesUpOnBookingNumber(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(tomorrow, "1")
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(repository.ErrDuplicateBookingNumber).Times(3)

	_, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"1"}})

	assert.ErrorIs(t, err, repository.ErrDuplicateBookingNumber)
	f.bookings.AssertNumberOfCalls(t, "CreateReserved", 3)
}

func TestBookingService_Reserve_EventFailureIsWarning(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(tomorrow, "1")
	f.bookings.On("CreateReserved", ctx, mock.Anything, now).Return(nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(nil, errors.New("db down")).Once()
	f.events.On("PublishBooking", ctx, mock.Anything).Return(errors.New("kafka down")).Once()

	result, err := f.service.Reserve(ctx, customer, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"1"}})

	require.NoError(t, err)
	assert.Equal(t, []string{eventWarning}, result.Warnings)
	assert.Equal(t, domain.BookingStatusReserved, result.Booking.Status)
}

func TestBookingService_Reserve_AdminOnBehalf(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.expectLocks(tomorrow, "2")
	f.bookings.On("CreateReserved", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.UserID == 42 && *b.CreatedBy == admin.UserID
	}), now).Return(nil).Once()
	f.users.On("GetByID", ctx, int64(42)).Return(&domain.User{ID: 42}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.Anything).Return(nil).Once()

	_, err := f.service.Reserve(ctx, admin, ReserveInput{BusID: 3, Date: tomorrow, Seats: []string{"2"}, UserID: 42})

	assert.NoError(t, err)
	f.bookings.AssertExpectations(t)
}

func details(status domain.BookingStatus, owner int64) *domain.BookingDetails {
	return &domain.BookingDetails{
		Booking: domain.Booking{
			ID:            11,
			UserID:        owner,
			BusID:         3,
			BookingDate:   tomorrow,
			Seats:         "4,5",
			BookingNumber: "BK-0000000B",
			Status:        status,
		},
		Bus: *testBus(),
	}
}

func TestBookingService_RenewHold(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	until := now.Add(30 * time.Minute)
	renewed := details(domain.BookingStatusReserved, 7).Booking
	renewed.ReservedUntil = &until

	f.bookings.On("GetByID", ctx, int64(11)).Return(details(domain.BookingStatusExpired, 7), nil).Once()
	f.bookings.On("RenewHold", ctx, int64(11), until, now, int64(7)).Return(&renewed, nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingReserved
	})).Return(nil).Once()

	result, err := f.service.RenewHold(ctx, customer, 11)

	require.NoError(t, err)
	assert.Equal(t, until, *result.Booking.ReservedUntil)
	assert.Equal(t, int64(250000), result.TotalCents)
}

func TestBookingService_RenewHold_OtherCustomer(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, int64(11)).Return(details(domain.BookingStatusReserved, 8), nil).Once()

	_, err := f.service.RenewHold(context.Background(), customer, 11)

	assert.True(t, domain.IsNotFound(err))
	f.bookings.AssertNotCalled(t, "RenewHold", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Cancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cancelled := details(domain.BookingStatusCancelled, 7).Booking

	f.bookings.On("GetByID", ctx, int64(11)).Return(details(domain.BookingStatusConfirmed, 7), nil).Once()
	f.bookings.On("Cancel", ctx, int64(11), int64(7)).Return(&cancelled, nil).Once()
	f.users.On("GetByID", ctx, int64(7)).Return(&domain.User{ID: 7}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingCancelled && e.Status == "cancelled"
	})).Return(nil).Once()

	result, err := f.service.Cancel(ctx, customer, 11)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, result.Booking.Status)
	f.events.AssertExpectations(t)
}

func TestBookingService_Cancel_AlreadyCancelled(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, int64(11)).Return(details(domain.BookingStatusCancelled, 7), nil).Once()

	result, err := f.service.Cancel(context.Background(), customer, 11)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, result.Booking.Status)
	f.bookings.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishBooking", mock.Anything, mock.Anything)
}

func TestBookingService_Cancel_AdminAnyBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cancelled := details(domain.BookingStatusCancelled, 8).Booking

	f.bookings.On("GetByID", ctx, int64(11)).Return(details(domain.BookingStatusReserved, 8), nil).Once()
	f.bookings.On("Cancel", ctx, int64(11), admin.UserID).Return(&cancelled, nil).Once()
	f.users.On("GetByID", ctx, int64(8)).Return(&domain.User{ID: 8}, nil).Once()
	f.events.On("PublishBooking", ctx, mock.Anything).Return(nil).Once()

	_, err := f.service.Cancel(ctx, admin, 11)

	assert.NoError(t, err)
}

func TestBookingService_ExpireStale(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	expired := []domain.Booking{
		{ID: 1, UserID: 7, BookingNumber: "BK-1", Status: domain.BookingStatusExpired},
		{ID: 2, UserID: 8, BookingNumber: "BK-2", Status: domain.BookingStatusExpired},
	}

	f.bookings.On("ExpireLapsed", ctx, now).Return(expired, nil).Once()
	f.users.On("GetByID", ctx, mock.Anything).Return(&domain.User{}, nil).Twice()
	f.events.On("PublishBooking", ctx, mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventBookingExpired
	})).Return(nil).Twice()

	result, err := f.service.ExpireStale(ctx)

	require.NoError(t, err)
	assert.Len(t, result, 2)
	f.events.AssertExpectations(t)
}

func TestBookingService_Availability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	held := now.Add(time.Minute)
	lapsed := now.Add(-time.Minute)

	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.bookings.On("ListForBusDate", ctx, int64(3), tomorrow).Return([]domain.Booking{
		{ID: 1, Seats: "1,2", Status: domain.BookingStatusConfirmed},
		{ID: 2, Seats: "3", Status: domain.BookingStatusReserved, ReservedUntil: &held},
		{ID: 3, Seats: "4", Status: domain.BookingStatusReserved, ReservedUntil: &lapsed},
	}, nil).Once()

	a, err := f.service.Availability(ctx, 3, tomorrow)

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, a.BookedSeats)
	assert.Equal(t, 37, a.AvailableSeats)
	assert.Equal(t, "2026-05-02", a.Date)
}

func TestBookingService_Update(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.bookings.On("GetByID", ctx, int64(11)).Return(details(domain.BookingStatusConfirmed, 7), nil).Once()
	f.buses.On("GetByID", ctx, int64(3)).Return(testBus(), nil).Once()
	f.bookings.On("UpdateTrip", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.ID == 11 && b.Seats == "6,7" && *b.UpdatedBy == admin.UserID
	}), now).Return(nil).Once()

	b, err := f.service.Update(ctx, admin, 11, UpdateInput{Seats: []string{"6", "7"}})

	require.NoError(t, err)
	assert.Equal(t, "6,7", b.Seats)
	assert.Equal(t, tomorrow, b.BookingDate)
}

func TestBookingService_Update_RequiresAdmin(t *testing.T) {
	f := newFixture()

	_, err := f.service.Update(context.Background(), customer, 11, UpdateInput{})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNewBookingNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewBookingNumber()
		assert.Regexp(t, `^BK-[0-9A-F]{8}$`, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 95)
}
