package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
)

type LocationRepository interface {
	WithTx(tx pgx.Tx) LocationRepository
	Create(ctx context.Context, loc *domain.Location) error
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	List(ctx context.Context) ([]domain.Location, error)
}

type locationRepository struct {
	q Querier
}

func NewLocationRepository(q Querier) LocationRepository {
	return &locationRepository{q: q}
}

func (r *locationRepository) WithTx(tx pgx.Tx) LocationRepository {
	return &locationRepository{q: tx}
}

const locationColumns = `id, building_name, floor_number, room_identifier, created_at`

func (r *locationRepository) Create(ctx context.Context, loc *domain.Location) error {
	const query = `
        INSERT INTO locations (building_name, floor_number, room_identifier)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.q.QueryRow(ctx, query, loc.BuildingName, loc.FloorNumber, loc.RoomIdentifier).
		Scan(&loc.ID, &loc.CreatedAt)
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id=$1`

	var loc domain.Location
	if err := r.q.QueryRow(ctx, query, id).Scan(
		&loc.ID,
		&loc.BuildingName,
		&loc.FloorNumber,
		&loc.RoomIdentifier,
		&loc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepository) List(ctx context.Context) ([]domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations ORDER BY building_name, floor_number, room_identifier`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.BuildingName, &loc.FloorNumber, &loc.RoomIdentifier, &loc.CreatedAt); err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}
