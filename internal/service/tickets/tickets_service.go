package tickets

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/busbooking/internal/docs"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
)

type TicketsUseCase interface {
	Upcoming(ctx context.Context, actor domain.Actor) ([]Ticket, error)
	Past(ctx context.Context, actor domain.Actor) ([]Ticket, error)
	Detail(ctx context.Context, actor domain.Actor, bookingID int64) (*TicketDetail, error)
	Dashboard(ctx context.Context, actor domain.Actor) (*Dashboard, error)
	TicketPDF(ctx context.Context, actor domain.Actor, bookingID int64) ([]byte, string, error)
}

type PaymentReader interface {
	LatestForBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
}

// Ticket is a booking as shown to its owner.
type Ticket struct {
	domain.BookingDetails
	EffectiveStatus domain.BookingStatus `json:"effective_status"`
	SeatCount       int                  `json:"seat_count"`
	TotalCents      int64                `json:"total_price_cents"`
	TotalPrice      string               `json:"total_price"`
	ArrivalTime     string               `json:"arrival_time,omitempty"`
}

type TicketDetail struct {
	Ticket
	Payment *domain.Payment `json:"payment,omitempty"`
}

type Dashboard struct {
	TotalBookings     int                       `json:"total_bookings"`
	UpcomingBookings  int                       `json:"upcoming_bookings"`
	CompletedBookings int                       `json:"completed_bookings"`
	LatestBooking     *Ticket                   `json:"latest_booking,omitempty"`
	FavoriteRoutes    []repository.RouteCount   `json:"favorite_routes"`
	PreferredBusTypes []repository.BusTypeCount `json:"preferred_bus_types"`
}

type TicketsService struct {
	bookings repository.BookingRepository
	payments PaymentReader
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

type Option func(*TicketsService)

func WithClock(now func() time.Time) Option {
	return func(s *TicketsService) {
		s.now = now
	}
}

func NewTicketsService(
	bookings repository.BookingRepository,
	payments PaymentReader,
	loc *time.Location,
	logger *slog.Logger,
	opts ...Option,
) *TicketsService {
	s := &TicketsService{
		bookings: bookings,
		payments: payments,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upcoming lists the actor's bookings from today on, soonest first.
func (s *TicketsService) Upcoming(ctx context.Context, actor domain.Actor) ([]Ticket, error) {
	return s.list(ctx, actor, true)
}

// Past lists the actor's bookings before today, latest first.
func (s *TicketsService) Past(ctx context.Context, actor domain.Actor) ([]Ticket, error) {
	return s.list(ctx, actor, false)
}

func (s *TicketsService) list(ctx context.Context, actor domain.Actor, upcoming bool) ([]Ticket, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	now := s.now()
	bookings, err := s.bookings.ListTickets(ctx, repository.TicketFilter{
		UserID:   actor.UserID,
		Today:    domain.DateOf(now, s.loc),
		Upcoming: upcoming,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Ticket, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, NewTicket(b, now))
	}
	return out, nil
}

func (s *TicketsService) Detail(ctx context.Context, actor domain.Actor, bookingID int64) (*TicketDetail, error) {
	b, err := s.owned(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	payment, err := s.payments.LatestForBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: NewTicket(*b, s.now()), Payment: payment}, nil
}

func (s *TicketsService) Dashboard(ctx context.Context, actor domain.Actor) (*Dashboard, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	now := s.now()
	stats, err := s.bookings.Stats(ctx, actor.UserID, domain.DateOf(now, s.loc))
	if err != nil {
		return nil, err
	}
	latest, err := s.bookings.LatestForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalBookings:     stats.Total,
		UpcomingBookings:  stats.Upcoming,
		CompletedBookings: stats.Total - stats.Upcoming,
		FavoriteRoutes:    stats.FavoriteRoutes,
		PreferredBusTypes: stats.PreferredBusTypes,
	}
	if latest != nil {
		t := NewTicket(*latest, now)
		d.LatestBooking = &t
	}
	return d, nil
}

func (s *TicketsService) TicketPDF(ctx context.Context, actor domain.Actor, bookingID int64) ([]byte, string, error) {
	detail, err := s.Detail(ctx, actor, bookingID)
	if err != nil {
		return nil, "", err
	}
	pdf, name, err := docs.ETicket(docs.Ticket{
		Booking:     detail.BookingDetails,
		Status:      detail.EffectiveStatus,
		TotalCents:  detail.TotalCents,
		Payment:     detail.Payment,
		GeneratedAt: s.now().In(s.loc),
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.InfoContext(ctx, "e-ticket rendered", "booking_number", detail.BookingNumber, "bytes", len(pdf))
	return pdf, name, nil
}

func (s *TicketsService) owned(ctx context.Context, actor domain.Actor, bookingID int64) (*domain.BookingDetails, error) {
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
	return b, nil
}

// NewTicket annotates b with its seat count, price and status as of now.
func NewTicket(b domain.BookingDetails, now time.Time) Ticket {
	count := b.SeatCount()
	total := domain.TotalPriceCents(count, b.Bus.PriceCents)
	t := Ticket{
		BookingDetails:  b,
		EffectiveStatus: b.EffectiveStatus(now),
		SeatCount:       count,
		TotalCents:      total,
		TotalPrice:      domain.FormatCents(total),
	}
	if at, ok := b.Bus.ArrivalTime(); ok {
		t.ArrivalTime = at.String()
	}
	return t
}

var _ TicketsUseCase = (*TicketsService)(nil)
