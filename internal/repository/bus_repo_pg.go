package repository

import (
	"context"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BusRepository interface {
	List(ctx context.Context) ([]domain.Bus, error)
	GetByID(ctx context.Context, id int64) (*domain.Bus, error)
	ListByRoute(ctx context.Context, origin, destination string) ([]domain.Bus, error)
	Create(ctx context.Context, bus *domain.Bus) error
	Update(ctx context.Context, bus *domain.Bus) error
	Delete(ctx context.Context, id int64) error
}

type PGBusRepository struct {
	db DB
}

func NewBusRepository(db DB) BusRepository {
	return &PGBusRepository{db: db}
}

// busColumns selects a bus joined with its route (alias bu / r).
const busColumns = `bu.id, bu.bus_number, bu.capacity, bu.route_id, bu.bus_type, to_char(bu.departure_time, 'HH24:MI'), bu.price_cents,
	bu.created_at, bu.updated_at, bu.created_by, bu.updated_by,
	r.id, r.origin, r.destination, r.duration, r.distance_km, r.created_at, r.updated_at`

const busFrom = ` FROM buses bu JOIN routes r ON r.id = bu.route_id`

func scanBus(row pgx.Row) (*domain.Bus, error) {
	var (
		b         domain.Bus
		route     domain.Route
		departure string
	)
	if err := row.Scan(&b.ID, &b.BusNumber, &b.Capacity, &b.RouteID, &b.Type, &departure, &b.PriceCents,
		&b.CreatedAt, &b.UpdatedAt, &b.CreatedBy, &b.UpdatedBy,
		&route.ID, &route.Origin, &route.Destination, &route.Duration, &route.DistanceKm, &route.CreatedAt, &route.UpdatedAt); err != nil {
		return nil, err
	}
	clock, err := domain.ParseClock(departure)
	if err != nil {
		return nil, err
	}
	b.Departure = clock
	b.Route = &route
	return &b, nil
}

func (r *PGBusRepository) query(ctx context.Context, query string, args ...any) ([]domain.Bus, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buses := make([]domain.Bus, 0)
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, err
		}
		buses = append(buses, *b)
	}
	return buses, rows.Err()
}

func (r *PGBusRepository) List(ctx context.Context) ([]domain.Bus, error) {
	return r.query(ctx, `SELECT `+busColumns+busFrom+` ORDER BY bu.id`)
}

func (r *PGBusRepository) GetByID(ctx context.Context, id int64) (*domain.Bus, error) {
	b, err := scanBus(r.db.QueryRow(ctx, `SELECT `+busColumns+busFrom+` WHERE bu.id=$1`, id))
	if err != nil {
		return nil, notFound("bus", err)
	}
	return b, nil
}

func (r *PGBusRepository) ListByRoute(ctx context.Context, origin, destination string) ([]domain.Bus, error) {
	return r.query(ctx, `SELECT `+busColumns+busFrom+` WHERE r.origin=$1 AND r.destination=$2 ORDER BY bu.departure_time`, origin, destination)
}

func (r *PGBusRepository) Create(ctx context.Context, bus *domain.Bus) error {
	err := r.db.QueryRow(ctx, `INSERT INTO buses (bus_number, capacity, route_id, bus_type, departure_time, price_cents, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id, created_at, updated_at`,
		bus.BusNumber, bus.Capacity, bus.RouteID, bus.Type, bus.Departure.String(), bus.PriceCents, bus.CreatedBy).
		Scan(&bus.ID, &bus.CreatedAt, &bus.UpdatedAt)
	return err
}

func (r *PGBusRepository) Update(ctx context.Context, bus *domain.Bus) error {
	err := r.db.QueryRow(ctx, `UPDATE buses SET bus_number=$1, capacity=$2, route_id=$3, bus_type=$4, departure_time=$5, price_cents=$6, updated_by=$7, updated_at=now()
		WHERE id=$8 RETURNING created_at, updated_at`,
		bus.BusNumber, bus.Capacity, bus.RouteID, bus.Type, bus.Departure.String(), bus.PriceCents, bus.UpdatedBy, bus.ID).
		Scan(&bus.CreatedAt, &bus.UpdatedAt)
	return notFound("bus", err)
}

func (r *PGBusRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM buses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "bus"}
	}
	return nil
}

var _ BusRepository = (*PGBusRepository)(nil)
