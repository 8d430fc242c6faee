package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/google/uuid"
)

const (
	bookingNumberAttempts = 3
	defaultHoldTTL        = 30 * time.Minute
	eventWarning          = "notification could not be queued"
)

type BookingUseCase interface {
	Reserve(ctx context.Context, actor domain.Actor, input ReserveInput) (*Result, error)
	RenewHold(ctx context.Context, actor domain.Actor, bookingID int64) (*Result, error)
	Cancel(ctx context.Context, actor domain.Actor, bookingID int64) (*Result, error)
	ExpireStale(ctx context.Context) ([]domain.Booking, error)
	Availability(ctx context.Context, busID int64, date time.Time) (*Availability, error)
	Update(ctx context.Context, actor domain.Actor, bookingID int64, input UpdateInput) (*domain.Booking, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.BookingDetails, error)
}

type Cache interface {
	AcquireSeatLock(ctx context.Context, busID int64, date time.Time, seat, token string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, busID int64, date time.Time, seat, token string) error
}

type Events interface {
	PublishBooking(ctx context.Context, event kafka.BookingEvent) error
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// ReserveInput asks for seats on a bus for one day. UserID lets an admin
// book on behalf of a customer; zero means the actor.
type ReserveInput struct {
	BusID  int64
	Date   time.Time
	Seats  []string
	UserID int64
}

type UpdateInput struct {
	BusID  int64
	Date   time.Time
	Seats  []string
	UserID int64
}

type Result struct {
	Booking    *domain.Booking `json:"booking"`
	TotalCents int64           `json:"total_cents"`
	Warnings   []string        `json:"warnings,omitempty"`
}

type Availability struct {
	BusID          int64    `json:"bus_id"`
	Date           string   `json:"booking_date"`
	Capacity       int      `json:"capacity"`
	BookedSeats    []string `json:"booked_seats"`
	AvailableSeats int      `json:"available_seats"`
}

type BookingService struct {
	bookings    repository.BookingRepository
	buses       repository.BusRepository
	users       UserReader
	cache       Cache
	events      Events
	logger      *slog.Logger
	loc         *time.Location
	holdTTL     time.Duration
	seatLockTTL time.Duration
	now         func() time.Time
	newNumber   func() string
}

type BookingServiceOption func(*BookingService)

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithSeatLockTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.seatLockTTL = ttl
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	buses repository.BusRepository,
	users UserReader,
	cache Cache,
	events Events,
	loc *time.Location,
	holdTTL time.Duration,
	logger *slog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	if holdTTL <= 0 {
		holdTTL = defaultHoldTTL
	}
	service := &BookingService{
		bookings:    bookings,
		buses:       buses,
		users:       users,
		cache:       cache,
		events:      events,
		logger:      logger,
		loc:         loc,
		holdTTL:     holdTTL,
		seatLockTTL: 10 * time.Second,
		now:         time.Now,
		newNumber:   NewBookingNumber,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// NewBookingNumber returns "BK-" followed by 8 random uppercase hex digits.
func NewBookingNumber() string {
	id := uuid.New()
	return domain.BookingNumberPrefix + strings.ToUpper(fmt.Sprintf("%x", id[:4]))
}

func (s *BookingService) Reserve(ctx context.Context, actor domain.Actor, input ReserveInput) (*Result, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	userID := actor.UserID
	if input.UserID != 0 && input.UserID != actor.UserID {
		if err := actor.RequireAdmin(); err != nil {
			return nil, err
		}
		userID = input.UserID
	}

	bus, err := s.buses.GetByID(ctx, input.BusID)
	if err != nil {
		return nil, err
	}
	seats, err := validateSeats(input.Seats, bus)
	if err != nil {
		return nil, err
	}
	now := s.now()
	date := domain.DateOf(input.Date, time.UTC)
	if err := s.checkDate(bus, date, now); err != nil {
		return nil, err
	}

	release, err := s.lockSeats(ctx, bus.ID, date, seats)
	if err != nil {
		return nil, err
	}
	defer release()

	until := now.Add(s.holdTTL)
	b := &domain.Booking{
		UserID:        userID,
		RouteID:       bus.RouteID,
		BusID:         bus.ID,
		BookingDate:   date,
		Seats:         domain.JoinSeats(seats),
		Status:        domain.BookingStatusReserved,
		ReservedUntil: &until,
		CreatedBy:     &actor.UserID,
		UpdatedBy:     &actor.UserID,
	}
	for attempt := 1; ; attempt++ {
		b.BookingNumber = s.newNumber()
		err = s.bookings.CreateReserved(ctx, b, now)
		if !errors.Is(err, repository.ErrDuplicateBookingNumber) || attempt == bookingNumberAttempts {
			break
		}
		s.logger.WarnContext(ctx, "booking number collision, retrying", "booking_number", b.BookingNumber, "attempt", attempt)
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking reserved",
		"booking_number", b.BookingNumber, "bus_id", bus.ID, "seats", b.Seats, "reserved_until", until)
	return &Result{
		Booking:    b,
		TotalCents: domain.TotalPriceCents(len(seats), bus.PriceCents),
		Warnings:   s.publish(ctx, kafka.EventBookingReserved, *b, bus),
	}, nil
}

func (s *BookingService) RenewHold(ctx context.Context, actor domain.Actor, bookingID int64) (*Result, error) {
	current, err := s.owned(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	renewed, err := s.bookings.RenewHold(ctx, bookingID, now.Add(s.holdTTL), now, actor.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking hold renewed", "booking_number", renewed.BookingNumber, "reserved_until", renewed.ReservedUntil)
	return &Result{
		Booking:    renewed,
		TotalCents: domain.TotalPriceCents(renewed.SeatCount(), current.Bus.PriceCents),
		Warnings:   s.publish(ctx, kafka.EventBookingReserved, *renewed, &current.Bus),
	}, nil
}

func (s *BookingService) Cancel(ctx context.Context, actor domain.Actor, bookingID int64) (*Result, error) {
	current, err := s.owned(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	total := domain.TotalPriceCents(current.SeatCount(), current.Bus.PriceCents)
	if current.Status == domain.BookingStatusCancelled {
		b := current.Booking
		return &Result{Booking: &b, TotalCents: total}, nil
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID, actor.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking cancelled", "booking_number", cancelled.BookingNumber, "actor", actor.UserID)
	return &Result{
		Booking:    cancelled,
		TotalCents: total,
		Warnings:   s.publish(ctx, kafka.EventBookingCancelled, *cancelled, &current.Bus),
	}, nil
}

// ExpireStale records lapsed holds as expired. Availability never depends
// on it; lapsed holds are already ignored when seats are counted.
func (s *BookingService) ExpireStale(ctx context.Context) ([]domain.Booking, error) {
	expired, err := s.bookings.ExpireLapsed(ctx, s.now())
	if err != nil {
		return nil, err
	}
	for _, b := range expired {
		s.publish(ctx, kafka.EventBookingExpired, b, nil)
	}
	if len(expired) > 0 {
		s.logger.InfoContext(ctx, "expired lapsed holds", "count", len(expired))
	}
	return expired, nil
}

func (s *BookingService) Availability(ctx context.Context, busID int64, date time.Time) (*Availability, error) {
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	day := domain.DateOf(date, time.UTC)
	bookings, err := s.bookings.ListForBusDate(ctx, busID, day)
	if err != nil {
		return nil, err
	}
	booked := domain.SortedSeats(domain.ActiveSeats(bookings, s.now()))
	return &Availability{
		BusID:          bus.ID,
		Date:           day.Format(time.DateOnly),
		Capacity:       bus.Capacity,
		BookedSeats:    booked,
		AvailableSeats: max(bus.Capacity-len(booked), 0),
	}, nil
}

// Update lets an admin move a booking to another bus, day or seat set.
// The seat check ignores the booking itself.
func (s *BookingService) Update(ctx context.Context, actor domain.Actor, bookingID int64, input UpdateInput) (*domain.Booking, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	busID := input.BusID
	if busID == 0 {
		busID = current.BusID
	}
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	seats := input.Seats
	if len(seats) == 0 {
		seats = current.SeatList()
	}
	seats, err = validateSeats(seats, bus)
	if err != nil {
		return nil, err
	}

	b := current.Booking
	b.BusID = bus.ID
	b.RouteID = bus.RouteID
	b.Seats = domain.JoinSeats(seats)
	if !input.Date.IsZero() {
		b.BookingDate = domain.DateOf(input.Date, time.UTC)
	}
	if input.UserID != 0 {
		b.UserID = input.UserID
	}
	b.UpdatedBy = &actor.UserID
	if err := s.bookings.UpdateTrip(ctx, &b, s.now()); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "booking updated", "booking_number", b.BookingNumber, "actor", actor.UserID)
	return &b, nil
}

func (s *BookingService) List(ctx context.Context, actor domain.Actor) ([]domain.BookingDetails, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.bookings.ListAll(ctx)
}

// owned loads a booking the actor may act on. Bookings of other customers
// are reported as missing.
func (s *BookingService) owned(ctx context.Context, actor domain.Actor, bookingID int64) (*domain.BookingDetails, error) {
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
	return current, nil
}

func (s *BookingService) checkDate(bus *domain.Bus, date, now time.Time) error {
	today := domain.DateOf(now, s.loc)
	if date.Before(today) {
		return domain.NewValidation("booking_date", "cannot book a past date")
	}
	if date.Equal(today) && bus.DepartedBy(date, now, s.loc) {
		return domain.NewValidation("booking_date", fmt.Sprintf("bus departed at %s today", bus.Departure))
	}
	return nil
}

// lockSeats takes the in-flight Redis lock for every seat. A seat already
// locked by another request fails fast; Redis errors only skip the fast
// path since the database check decides.
func (s *BookingService) lockSeats(ctx context.Context, busID int64, date time.Time, seats []string) (func(), error) {
	if s.cache == nil {
		return func() {}, nil
	}
	token := uuid.NewString()
	var locked []string
	release := func() {
		for _, seat := range locked {
			if err := s.cache.ReleaseSeatLock(context.WithoutCancel(ctx), busID, date, seat, token); err != nil {
				s.logger.WarnContext(ctx, "release seat lock", "bus_id", busID, "seat", seat, "error", err)
			}
		}
	}
	for _, seat := range seats {
		ok, err := s.cache.AcquireSeatLock(ctx, busID, date, seat, token, s.seatLockTTL)
		if err != nil {
			s.logger.WarnContext(ctx, "acquire seat lock", "bus_id", busID, "seat", seat, "error", err)
			continue
		}
		if !ok {
			release()
			return nil, domain.ValidationError{
				Field:     "seat_number",
				Msg:       "seat is being booked by another request",
				Conflicts: []string{seat},
			}
		}
		locked = append(locked, seat)
	}
	return release, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, b domain.Booking, bus *domain.Bus) []string {
	if s.events == nil {
		return nil
	}
	var user *domain.User
	if s.users != nil {
		u, err := s.users.GetByID(ctx, b.UserID)
		if err != nil {
			s.logger.WarnContext(ctx, "load event recipient", "user_id", b.UserID, "error", err)
		} else {
			user = u
		}
	}
	if err := s.events.PublishBooking(ctx, kafka.NewBookingEvent(eventType, b, bus, user)); err != nil {
		s.logger.ErrorContext(ctx, "publish booking event", "type", eventType, "booking_number", b.BookingNumber, "error", err)
		return []string{eventWarning}
	}
	return nil
}

func validateSeats(raw []string, bus *domain.Bus) ([]string, error) {
	seats := domain.ParseSeats(strings.Join(raw, ","))
	if len(seats) == 0 {
		return nil, domain.NewValidation("seat_number", "at least one seat is required")
	}
	seen := make(map[string]struct{}, len(seats))
	for _, seat := range seats {
		if _, dup := seen[seat]; dup {
			return nil, domain.NewValidation("seat_number", fmt.Sprintf("seat %s is listed twice", seat))
		}
		seen[seat] = struct{}{}
		if !bus.HasSeat(seat) {
			return nil, domain.NewValidation("seat_number", fmt.Sprintf("seat %s is not between 1 and %d", seat, bus.Capacity))
		}
	}
	return seats, nil
}

var _ BookingUseCase = (*BookingService)(nil)
