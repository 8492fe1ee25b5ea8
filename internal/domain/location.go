package domain

import (
	"fmt"
	"time"
)

// Location identifies a unique (building, floor, room) triple on campus.
type Location struct {
	ID             string
	BuildingName   string
	FloorNumber    string
	RoomIdentifier string
	CreatedAt      time.Time
}

// Label builds the display string for the location.
func (l Location) Label() string {
	return fmt.Sprintf("%s - Floor %s - %s", l.BuildingName, l.FloorNumber, l.RoomIdentifier)
}
