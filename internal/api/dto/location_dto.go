package dto

import "github.com/ayachi01/FixItWeb/internal/domain"

// LocationCreateRequest payload for registering a location.
type LocationCreateRequest struct {
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Room     string `json:"room"`
}

// LocationResponse is the public location representation.
type LocationResponse struct {
	ID       string `json:"id"`
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Room     string `json:"room"`
	Label    string `json:"label"`
}

// NewLocationResponse maps a location.
func NewLocationResponse(loc *domain.Location) LocationResponse {
	return LocationResponse{
		ID:       loc.ID,
		Building: loc.BuildingName,
		Floor:    loc.FloorNumber,
		Room:     loc.RoomIdentifier,
		Label:    loc.Label(),
	}
}
