package pilotdash

import "fmt"

// Status is the vehicle arm state as served by the status resource.
type Status struct {
	Armed bool `json:"armed"`
}

func (s Status) String() string {
	if s.Armed {
		return "ARMED"
	}
	return "DISARMED"
}

// Position is the last GPS fix served by the position resource.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LatLng returns the position as a map coordinate.
func (p Position) LatLng() LatLng {
	return LatLng{Lat: p.Latitude, Lng: p.Longitude}
}

type LatLng struct {
	Lat float64
	Lng float64
}

func (l LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}

type MapType string

const (
	MapTypeRoadmap   MapType = "roadmap"
	MapTypeSatellite MapType = "satellite"
	MapTypeHybrid    MapType = "hybrid"
	MapTypeTerrain   MapType = "terrain"
)

var MapTypes = []MapType{
	MapTypeRoadmap,
	MapTypeSatellite,
	MapTypeHybrid,
	MapTypeTerrain,
}
