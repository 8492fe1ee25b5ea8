package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ayachi01/FixItWeb/internal/domain"
	"github.com/ayachi01/FixItWeb/internal/repository"
	apperrors "github.com/ayachi01/FixItWeb/pkg/util"
)

// LocationService manages the campus location catalog.
type LocationService struct {
	locations repository.LocationRepository
}

// NewLocationService builds the service.
func NewLocationService(locations repository.LocationRepository) *LocationService {
	return &LocationService{locations: locations}
}

// CreateLocation registers a (building, floor, room) triple. The triple is
// unique; duplicates surface as a conflict.
func (s *LocationService) CreateLocation(ctx context.Context, actor Actor, building, floor, room string) (*domain.Location, error) {
	if !actor.Bundle.CanManageUsers && !actor.Bundle.IsAdminLevel {
		return nil, apperrors.NewForbidden("admin role required to manage locations")
	}
	building = strings.TrimSpace(building)
	floor = strings.TrimSpace(floor)
	room = strings.TrimSpace(room)
	if building == "" || floor == "" || room == "" {
		return nil, apperrors.NewValidationError("building, floor, and room are required", nil)
	}

	loc := &domain.Location{
		BuildingName:   building,
		FloorNumber:    floor,
		RoomIdentifier: room,
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// GetLocation fetches one location.
func (s *LocationService) GetLocation(ctx context.Context, id string) (*domain.Location, error) {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("location", nil)
		}
		return nil, err
	}
	return loc, nil
}

// ListLocations returns the full catalog, ordered for display.
func (s *LocationService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return s.locations.List(ctx)
}
