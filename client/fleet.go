package client

import "github.com/gbd-solar/solartech-api/utils"

// Marker is a technician position ready to be drawn on a map.
type Marker struct {
	TechnicianID uint
	Name         string
	Latitude     float64
	Longitude    float64
	IsOnline     bool
}

// FleetMarkers returns a marker for every entry with a usable position.
// Entries without a location or with an invalid one (including 0,0) are
// skipped here but stay in the roster.
func FleetMarkers(entries []FleetEntry) []Marker {
	markers := make([]Marker, 0, len(entries))
	for _, e := range entries {
		if e.LastLocation == nil {
			continue
		}
		if !utils.IsValidCoordinate(e.LastLocation.Latitude, e.LastLocation.Longitude) {
			continue
		}
		markers = append(markers, Marker{
			TechnicianID: e.ID,
			Name:         e.Name,
			Latitude:     e.LastLocation.Latitude,
			Longitude:    e.LastLocation.Longitude,
			IsOnline:     e.IsOnline,
		})
	}
	return markers
}

// OnlineCount counts the entries currently online.
func OnlineCount(entries []FleetEntry) int {
	n := 0
	for _, e := range entries {
		if e.IsOnline {
			n++
		}
	}
	return n
}
