package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
)

type CatalogUseCase interface {
	ListRoutes(ctx context.Context) ([]domain.Route, error)
	GetRoute(ctx context.Context, id int64) (*domain.Route, error)
	CreateRoute(ctx context.Context, actor domain.Actor, input RouteInput) (*domain.Route, error)
	UpdateRoute(ctx context.Context, actor domain.Actor, id int64, input RouteInput) (*domain.Route, error)
	DeleteRoute(ctx context.Context, actor domain.Actor, id int64) error

	ListBuses(ctx context.Context) ([]BusView, error)
	GetBus(ctx context.Context, id int64) (*BusView, error)
	CreateBus(ctx context.Context, actor domain.Actor, input BusInput) (*BusView, error)
	UpdateBus(ctx context.Context, actor domain.Actor, id int64, input BusInput) (*BusView, error)
	DeleteBus(ctx context.Context, actor domain.Actor, id int64) error

	Search(ctx context.Context, origin, destination string, date time.Time) ([]BusAvailability, error)
	Locations(ctx context.Context) (*Locations, error)
}

type Cache interface {
	GetRoutes(ctx context.Context) ([]domain.Route, error)
	SetRoutes(ctx context.Context, routes []domain.Route) error
	GetBuses(ctx context.Context) ([]domain.Bus, error)
	SetBuses(ctx context.Context, buses []domain.Bus) error
	InvalidateCatalog(ctx context.Context) error
}

// SeatReader lists the bookings that may hold seats on a bus for a day.
type SeatReader interface {
	ListForBusDate(ctx context.Context, busID int64, date time.Time) ([]domain.Booking, error)
}

type RouteInput struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Duration    string   `json:"duration"`
	DistanceKm  *float64 `json:"distance_km"`
}

type BusInput struct {
	BusNumber     string         `json:"bus_number"`
	Capacity      int            `json:"capacity"`
	RouteID       int64          `json:"route_id"`
	Type          domain.BusType `json:"bus_type"`
	DepartureTime string         `json:"departure_time"`
	PriceCents    int64          `json:"price_cents"`
}

// BusView is a bus with its derived arrival time.
type BusView struct {
	domain.Bus
	ArrivalTime string `json:"arrival_time,omitempty"`
}

type BusAvailability struct {
	BusView
	BookedSeats    []string `json:"booked_seats"`
	AvailableSeats int      `json:"available_seats"`
}

type Locations struct {
	Origins      []string `json:"origins"`
	Destinations []string `json:"destinations"`
}

type CatalogService struct {
	routes   repository.RouteRepository
	buses    repository.BusRepository
	bookings SeatReader
	cache    Cache
	logger   *slog.Logger
	loc      *time.Location
	now      func() time.Time
}

type Option func(*CatalogService)

func WithClock(now func() time.Time) Option {
	return func(s *CatalogService) {
		s.now = now
	}
}

func NewCatalogService(
	routes repository.RouteRepository,
	buses repository.BusRepository,
	bookings SeatReader,
	cache Cache,
	loc *time.Location,
	logger *slog.Logger,
	opts ...Option,
) *CatalogService {
	s := &CatalogService{
		routes:   routes,
		buses:    buses,
		bookings: bookings,
		cache:    cache,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CatalogService) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetRoutes(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	routes, err := s.routes.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetRoutes(ctx, routes); err != nil {
			s.logger.WarnContext(ctx, "cache routes", "error", err)
		}
	}
	return routes, nil
}

func (s *CatalogService) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	return s.routes.GetByID(ctx, id)
}

func (s *CatalogService) CreateRoute(ctx context.Context, actor domain.Actor, input RouteInput) (*domain.Route, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	route, err := input.route()
	if err != nil {
		return nil, err
	}
	route.CreatedBy = &actor.UserID
	if err := s.routes.Create(ctx, route); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return route, nil
}

func (s *CatalogService) UpdateRoute(ctx context.Context, actor domain.Actor, id int64, input RouteInput) (*domain.Route, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	route, err := input.route()
	if err != nil {
		return nil, err
	}
	route.ID = id
	route.UpdatedBy = &actor.UserID
	if err := s.routes.Update(ctx, route); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return route, nil
}

func (s *CatalogService) DeleteRoute(ctx context.Context, actor domain.Actor, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if err := s.routes.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) ListBuses(ctx context.Context) ([]BusView, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetBuses(ctx); err == nil && cached != nil {
			return views(cached), nil
		}
	}

	buses, err := s.buses.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetBuses(ctx, buses); err != nil {
			s.logger.WarnContext(ctx, "cache buses", "error", err)
		}
	}
	return views(buses), nil
}

func (s *CatalogService) GetBus(ctx context.Context, id int64) (*BusView, error) {
	bus, err := s.buses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := view(*bus)
	return &v, nil
}

func (s *CatalogService) CreateBus(ctx context.Context, actor domain.Actor, input BusInput) (*BusView, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	bus, err := s.bus(ctx, input)
	if err != nil {
		return nil, err
	}
	bus.CreatedBy = &actor.UserID
	if err := s.buses.Create(ctx, bus); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	v := view(*bus)
	return &v, nil
}

func (s *CatalogService) UpdateBus(ctx context.Context, actor domain.Actor, id int64, input BusInput) (*BusView, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	bus, err := s.bus(ctx, input)
	if err != nil {
		return nil, err
	}
	bus.ID = id
	bus.UpdatedBy = &actor.UserID
	if err := s.buses.Update(ctx, bus); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	v := view(*bus)
	return &v, nil
}

func (s *CatalogService) DeleteBus(ctx context.Context, actor domain.Actor, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if err := s.buses.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Search lists buses between origin and destination on date with their
// seat availability. Buses that already left today are skipped and past
// dates yield nothing.
func (s *CatalogService) Search(ctx context.Context, origin, destination string, date time.Time) ([]BusAvailability, error) {
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return nil, domain.NewValidation("route", "origin and destination are required")
	}

	now := s.now()
	today := domain.DateOf(now, s.loc)
	day := domain.DateOf(date, time.UTC)
	if day.Before(today) {
		return []BusAvailability{}, nil
	}

	buses, err := s.buses.ListByRoute(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	results := make([]BusAvailability, 0, len(buses))
	for _, bus := range buses {
		if day.Equal(today) && bus.DepartedBy(day, now, s.loc) {
			continue
		}
		bookings, err := s.bookings.ListForBusDate(ctx, bus.ID, day)
		if err != nil {
			return nil, err
		}
		booked := domain.SortedSeats(domain.ActiveSeats(bookings, now))
		results = append(results, BusAvailability{
			BusView:        view(bus),
			BookedSeats:    booked,
			AvailableSeats: max(bus.Capacity-len(booked), 0),
		})
	}
	return results, nil
}

func (s *CatalogService) Locations(ctx context.Context) (*Locations, error) {
	origins, destinations, err := s.routes.Locations(ctx)
	if err != nil {
		return nil, err
	}
	return &Locations{Origins: origins, Destinations: destinations}, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.logger.WarnContext(ctx, "invalidate catalog cache", "error", err)
	}
}

func (s *CatalogService) bus(ctx context.Context, input BusInput) (*domain.Bus, error) {
	number := strings.TrimSpace(input.BusNumber)
	if number == "" {
		return nil, domain.NewValidation("bus_number", "is required")
	}
	if input.Capacity <= 0 {
		return nil, domain.NewValidation("capacity", "must be greater than 0")
	}
	if input.PriceCents < 0 {
		return nil, domain.NewValidation("price_cents", "must not be negative")
	}
	if !input.Type.Valid() {
		return nil, domain.NewValidation("bus_type", "must be one of Express, Cargo, Metro")
	}
	departure, err := domain.ParseClock(strings.TrimSpace(input.DepartureTime))
	if err != nil {
		return nil, err
	}
	route, err := s.routes.GetByID(ctx, input.RouteID)
	if err != nil {
		return nil, err
	}
	return &domain.Bus{
		BusNumber:  number,
		Capacity:   input.Capacity,
		RouteID:    route.ID,
		Route:      route,
		Type:       input.Type,
		Departure:  departure,
		PriceCents: input.PriceCents,
	}, nil
}

func (in RouteInput) route() (*domain.Route, error) {
	origin, destination := strings.TrimSpace(in.Origin), strings.TrimSpace(in.Destination)
	if origin == "" {
		return nil, domain.NewValidation("origin", "is required")
	}
	if destination == "" {
		return nil, domain.NewValidation("destination", "is required")
	}
	duration := strings.TrimSpace(in.Duration)
	if _, err := domain.ParseDuration(duration); err != nil {
		return nil, domain.ValidationError{Field: "duration", Msg: "expected H:M[:S], <hours>h [minutes] or <hours>", Err: err}
	}
	if in.DistanceKm != nil && *in.DistanceKm < 0 {
		return nil, domain.NewValidation("distance_km", "must not be negative")
	}
	return &domain.Route{Origin: origin, Destination: destination, Duration: duration, DistanceKm: in.DistanceKm}, nil
}

func view(bus domain.Bus) BusView {
	v := BusView{Bus: bus}
	if at, ok := bus.ArrivalTime(); ok {
		v.ArrivalTime = at.String()
	}
	return v
}

func views(buses []domain.Bus) []BusView {
	out := make([]BusView, 0, len(buses))
	for _, b := range buses {
		out = append(out, view(b))
	}
	return out
}

var _ CatalogUseCase = (*CatalogService)(nil)
