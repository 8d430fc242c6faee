package repository

import (
	"context"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type RouteRepository interface {
	List(ctx context.Context) ([]domain.Route, error)
	GetByID(ctx context.Context, id int64) (*domain.Route, error)
	Create(ctx context.Context, route *domain.Route) error
	Update(ctx context.Context, route *domain.Route) error
	Delete(ctx context.Context, id int64) error
	Locations(ctx context.Context) (origins, destinations []string, err error)
}

type PGRouteRepository struct {
	db DB
}

func NewRouteRepository(db DB) RouteRepository {
	return &PGRouteRepository{db: db}
}

const routeColumns = `id, origin, destination, duration, distance_km, created_at, updated_at, created_by, updated_by`

func scanRoute(row pgx.Row) (*domain.Route, error) {
	var r domain.Route
	if err := row.Scan(&r.ID, &r.Origin, &r.Destination, &r.Duration, &r.DistanceKm, &r.CreatedAt, &r.UpdatedAt, &r.CreatedBy, &r.UpdatedBy); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PGRouteRepository) List(ctx context.Context) ([]domain.Route, error) {
	rows, err := r.db.Query(ctx, `SELECT `+routeColumns+` FROM routes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := make([]domain.Route, 0)
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	return routes, rows.Err()
}

func (r *PGRouteRepository) GetByID(ctx context.Context, id int64) (*domain.Route, error) {
	route, err := scanRoute(r.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=$1`, id))
	if err != nil {
		return nil, notFound("route", err)
	}
	return route, nil
}

func (r *PGRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	return r.db.QueryRow(ctx, `INSERT INTO routes (origin, destination, duration, distance_km, created_by, updated_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, updated_at`,
		route.Origin, route.Destination, route.Duration, route.DistanceKm, route.CreatedBy).
		Scan(&route.ID, &route.CreatedAt, &route.UpdatedAt)
}

func (r *PGRouteRepository) Update(ctx context.Context, route *domain.Route) error {
	err := r.db.QueryRow(ctx, `UPDATE routes SET origin=$1, destination=$2, duration=$3, distance_km=$4, updated_by=$5, updated_at=now()
		WHERE id=$6 RETURNING created_at, updated_at`,
		route.Origin, route.Destination, route.Duration, route.DistanceKm, route.UpdatedBy, route.ID).
		Scan(&route.CreatedAt, &route.UpdatedAt)
	return notFound("route", err)
}

func (r *PGRouteRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM routes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError{Resource: "route"}
	}
	return nil
}

func (r *PGRouteRepository) Locations(ctx context.Context) ([]string, []string, error) {
	origins, err := r.distinct(ctx, `SELECT DISTINCT origin FROM routes ORDER BY origin`)
	if err != nil {
		return nil, nil, err
	}
	destinations, err := r.distinct(ctx, `SELECT DISTINCT destination FROM routes ORDER BY destination`)
	if err != nil {
		return nil, nil, err
	}
	return origins, destinations, nil
}

func (r *PGRouteRepository) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

var _ RouteRepository = (*PGRouteRepository)(nil)
