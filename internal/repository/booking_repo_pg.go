package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateBookingNumber signals a booking number collision; callers
// retry with a fresh number.
var ErrDuplicateBookingNumber = errors.New("booking number already exists")

type TicketFilter struct {
	UserID int64
	Today  time.Time
	// Upcoming selects booking_date >= Today ascending; otherwise
	// booking_date < Today descending.
	Upcoming bool
}

type RouteCount struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Count       int    `json:"count"`
}

type BusTypeCount struct {
	BusType domain.BusType `json:"bus_type"`
	Count   int            `json:"count"`
}

type UserBookingStats struct {
	Total             int            `json:"total_bookings"`
	Upcoming          int            `json:"upcoming_bookings"`
	FavoriteRoutes    []RouteCount   `json:"favorite_routes"`
	PreferredBusTypes []BusTypeCount `json:"preferred_bus_types"`
}

type BookingRepository interface {
	// CreateReserved inserts b after checking its seats against the active
	// bookings of the same bus and date, all under a row lock on the bus.
	CreateReserved(ctx context.Context, b *domain.Booking, now time.Time) error
	GetByID(ctx context.Context, id int64) (*domain.BookingDetails, error)
	ListForBusDate(ctx context.Context, busID int64, date time.Time) ([]domain.Booking, error)
	ListTickets(ctx context.Context, filter TicketFilter) ([]domain.BookingDetails, error)
	ListAll(ctx context.Context) ([]domain.BookingDetails, error)
	RenewHold(ctx context.Context, id int64, until, now time.Time, actorID int64) (*domain.Booking, error)
	UpdateTrip(ctx context.Context, b *domain.Booking, now time.Time) error
	Cancel(ctx context.Context, id int64, actorID int64) (*domain.Booking, error)
	ExpireLapsed(ctx context.Context, now time.Time) ([]domain.Booking, error)
	LatestForUser(ctx context.Context, userID int64) (*domain.BookingDetails, error)
	Stats(ctx context.Context, userID int64, today time.Time) (*UserBookingStats, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `b.id, b.user_id, b.route_id, b.bus_id, b.booking_date, b.seat_number, b.booking_number, b.status,
	b.reserved_until, b.created_at, b.updated_at, b.created_by, b.updated_by`

const bookingDetailsFrom = ` FROM booking b
	JOIN buses bu ON bu.id = b.bus_id
	JOIN routes r ON r.id = bu.route_id
	JOIN users u ON u.id = b.user_id`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.RouteID, &b.BusID, &b.BookingDate, &b.Seats, &b.BookingNumber, &b.Status,
		&b.ReservedUntil, &b.CreatedAt, &b.UpdatedAt, &b.CreatedBy, &b.UpdatedBy); err != nil {
		return nil, err
	}
	return &b, nil
}

// scanBookingDetails reads bookingColumns, busColumns, u.name, u.email.
func scanBookingDetails(row pgx.Row) (*domain.BookingDetails, error) {
	var (
		b                   domain.Booking
		bus                 domain.Bus
		route               domain.Route
		departure           string
		userName, userEmail string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.RouteID, &b.BusID, &b.BookingDate, &b.Seats, &b.BookingNumber, &b.Status,
		&b.ReservedUntil, &b.CreatedAt, &b.UpdatedAt, &b.CreatedBy, &b.UpdatedBy,
		&bus.ID, &bus.BusNumber, &bus.Capacity, &bus.RouteID, &bus.Type, &departure, &bus.PriceCents,
		&bus.CreatedAt, &bus.UpdatedAt, &bus.CreatedBy, &bus.UpdatedBy,
		&route.ID, &route.Origin, &route.Destination, &route.Duration, &route.DistanceKm, &route.CreatedAt, &route.UpdatedAt,
		&userName, &userEmail); err != nil {
		return nil, err
	}
	clock, err := domain.ParseClock(departure)
	if err != nil {
		return nil, err
	}
	bus.Departure = clock
	bus.Route = &route
	return &domain.BookingDetails{Booking: b, Bus: bus, UserName: userName, UserEmail: userEmail}, nil
}

const bookingDetailsSelect = `SELECT ` + bookingColumns + `, ` + busColumns + `, u.name, u.email` + bookingDetailsFrom

func (r *PGBookingRepository) queryDetails(ctx context.Context, query string, args ...any) ([]domain.BookingDetails, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.BookingDetails, 0)
	for rows.Next() {
		d, err := scanBookingDetails(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

// lockBus takes the per-bus row lock that serializes seat allocation.
func lockBus(ctx context.Context, tx pgx.Tx, busID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM buses WHERE id=$1 FOR UPDATE`, busID).Scan(&id)
	return notFound("bus", err)
}

// takenSeats returns the seats of active bookings for (bus, date), leaving
// out excludeID.
func takenSeats(ctx context.Context, tx pgx.Tx, busID int64, date time.Time, excludeID int64, now time.Time) (map[string]int64, error) {
	rows, err := tx.Query(ctx, `SELECT `+bookingColumns+` FROM booking b
		WHERE b.bus_id=$1 AND b.booking_date=$2 AND b.status IN ('reserved', 'confirmed') AND b.id <> $3`,
		busID, date, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domain.ActiveSeats(bookings, now), nil
}

func checkSeats(ctx context.Context, tx pgx.Tx, b *domain.Booking, now time.Time) error {
	taken, err := takenSeats(ctx, tx, b.BusID, b.BookingDate, b.ID, now)
	if err != nil {
		return err
	}
	if conflicts := domain.SeatConflictsWith(b.SeatList(), taken); len(conflicts) > 0 {
		return domain.ValidationError{Field: "seat_number", Conflicts: conflicts}
	}
	return nil
}

func (r *PGBookingRepository) CreateReserved(ctx context.Context, b *domain.Booking, now time.Time) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockBus(ctx, tx, b.BusID); err != nil {
			return err
		}
		if err := checkSeats(ctx, tx, b, now); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `INSERT INTO booking (user_id, route_id, bus_id, booking_date, seat_number, booking_number, status, reserved_until, created_by, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING id, created_at, updated_at`,
			b.UserID, b.RouteID, b.BusID, b.BookingDate, b.Seats, b.BookingNumber, b.Status, b.ReservedUntil, b.CreatedBy).
			Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	})
	if _, ok := uniqueConstraint(err); ok {
		return ErrDuplicateBookingNumber
	}
	return missingUser(err)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.BookingDetails, error) {
	d, err := scanBookingDetails(r.db.QueryRow(ctx, bookingDetailsSelect+` WHERE b.id=$1`, id))
	if err != nil {
		return nil, notFound("booking", err)
	}
	return d, nil
}

func (r *PGBookingRepository) ListForBusDate(ctx context.Context, busID int64, date time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM booking b
		WHERE b.bus_id=$1 AND b.booking_date=$2 AND b.status IN ('reserved', 'confirmed') ORDER BY b.id`, busID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) ListTickets(ctx context.Context, filter TicketFilter) ([]domain.BookingDetails, error) {
	query := bookingDetailsSelect + ` WHERE b.user_id=$1 AND b.status <> 'cancelled' AND b.booking_date < $2 ORDER BY b.booking_date DESC, b.id DESC`
	if filter.Upcoming {
		query = bookingDetailsSelect + ` WHERE b.user_id=$1 AND b.status <> 'cancelled' AND b.booking_date >= $2 ORDER BY b.booking_date ASC, b.id ASC`
	}
	return r.queryDetails(ctx, query, filter.UserID, filter.Today)
}

// ListAll returns every booking, newest first, each with its latest payment.
func (r *PGBookingRepository) ListAll(ctx context.Context) ([]domain.BookingDetails, error) {
	list, err := r.queryDetails(ctx, bookingDetailsSelect+` ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT DISTINCT ON (p.booking_id) `+paymentColumns+`
		FROM payments p JOIN booking b ON b.id = p.booking_id
		ORDER BY p.booking_id, p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[int64]*domain.Payment)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		latest[p.BookingID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Payment = latest[list[i].ID]
	}
	return list, nil
}

func (r *PGBookingRepository) LatestForUser(ctx context.Context, userID int64) (*domain.BookingDetails, error) {
	d, err := scanBookingDetails(r.db.QueryRow(ctx, bookingDetailsSelect+` WHERE b.user_id=$1 ORDER BY b.id DESC LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// lockBooking reads a booking row under lock, after locking its bus.
func lockBooking(ctx context.Context, tx pgx.Tx, id int64) (*domain.Booking, error) {
	var busID int64
	if err := tx.QueryRow(ctx, `SELECT bus_id FROM booking WHERE id=$1`, id).Scan(&busID); err != nil {
		return nil, notFound("booking", err)
	}
	if err := lockBus(ctx, tx, busID); err != nil {
		return nil, err
	}
	b, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM booking b WHERE b.id=$1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound("booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) RenewHold(ctx context.Context, id int64, until, now time.Time, actorID int64) (*domain.Booking, error) {
	var renewed *domain.Booking
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := lockBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		switch b.Status {
		case domain.BookingStatusReserved, domain.BookingStatusExpired:
		default:
			return domain.NewValidation("status", "only reserved bookings can be held, booking is "+string(b.Status))
		}
		if !b.IsActive(now) {
			if err := checkSeats(ctx, tx, b, now); err != nil {
				return err
			}
		}
		renewed, err = scanBooking(tx.QueryRow(ctx, `UPDATE booking b SET status='reserved', reserved_until=$1, updated_by=$2, updated_at=now()
			WHERE b.id=$3 RETURNING `+bookingColumns, until, actorRef(actorID), id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return renewed, nil
}

// UpdateTrip rewrites bus, route, date and seats of b, re-checking seats
// when the booking is active.
func (r *PGBookingRepository) UpdateTrip(ctx context.Context, b *domain.Booking, now time.Time) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := lockBooking(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		if b.BusID != current.BusID {
			if err := lockBus(ctx, tx, b.BusID); err != nil {
				return err
			}
		}
		b.Status = current.Status
		b.ReservedUntil = current.ReservedUntil
		if b.IsActive(now) {
			if err := checkSeats(ctx, tx, b, now); err != nil {
				return err
			}
		}
		return tx.QueryRow(ctx, `UPDATE booking SET user_id=$1, route_id=$2, bus_id=$3, booking_date=$4, seat_number=$5, updated_by=$6, updated_at=now()
			WHERE id=$7 RETURNING booking_number, created_at, updated_at`,
			b.UserID, b.RouteID, b.BusID, b.BookingDate, b.Seats, b.UpdatedBy, b.ID).
			Scan(&b.BookingNumber, &b.CreatedAt, &b.UpdatedAt)
	})
	return missingUser(err)
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id int64, actorID int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE booking b SET status='cancelled', reserved_until=NULL, updated_by=$1, updated_at=now()
		WHERE b.id=$2 RETURNING `+bookingColumns, actorRef(actorID), id))
	if err != nil {
		return nil, notFound("booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) ExpireLapsed(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE booking b SET status='expired', updated_at=now()
		WHERE b.status='reserved' AND b.reserved_until <= $1 RETURNING `+bookingColumns, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func (r *PGBookingRepository) Stats(ctx context.Context, userID int64, today time.Time) (*UserBookingStats, error) {
	stats := &UserBookingStats{
		FavoriteRoutes:    make([]RouteCount, 0),
		PreferredBusTypes: make([]BusTypeCount, 0),
	}
	if err := r.db.QueryRow(ctx, `SELECT count(*), count(*) FILTER (WHERE booking_date >= $2)
		FROM booking WHERE user_id=$1 AND status <> 'cancelled'`, userID, today).
		Scan(&stats.Total, &stats.Upcoming); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT r.origin, r.destination, count(*) AS n
		FROM booking b JOIN buses bu ON bu.id = b.bus_id JOIN routes r ON r.id = bu.route_id
		WHERE b.user_id=$1 AND b.status <> 'cancelled'
		GROUP BY r.origin, r.destination ORDER BY n DESC, r.origin LIMIT 3`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rc RouteCount
		if err := rows.Scan(&rc.Origin, &rc.Destination, &rc.Count); err != nil {
			return nil, err
		}
		stats.FavoriteRoutes = append(stats.FavoriteRoutes, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	typeRows, err := r.db.Query(ctx, `SELECT bu.bus_type, count(*) AS n
		FROM booking b JOIN buses bu ON bu.id = b.bus_id
		WHERE b.user_id=$1 AND b.status <> 'cancelled'
		GROUP BY bu.bus_type ORDER BY n DESC, bu.bus_type LIMIT 3`, userID)
	if err != nil {
		return nil, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var tc BusTypeCount
		if err := typeRows.Scan(&tc.BusType, &tc.Count); err != nil {
			return nil, err
		}
		stats.PreferredBusTypes = append(stats.PreferredBusTypes, tc)
	}
	return stats, typeRows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
