package models

import "time"

// LandCandidate is one field outline read from a KML export, reduced to its centroid.
type LandCandidate struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RouteSuggestion is a stored candidate of the route planner. Coords is the
// "lat, lng" pair Google Maps accepts as a waypoint.
type RouteSuggestion struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Coords    string    `db:"coords" json:"coords"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	Ordering  *int      `db:"ordering" json:"ordering,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RouteOrderRequest is the visiting order chosen by the operator, candidate ids
// first to last.
type RouteOrderRequest struct {
	Order []int64 `json:"order"`
}

// RouteSuggestResult is the ordered route, ready to hand to a map client.
type RouteSuggestResult struct {
	Suggestions []RouteSuggestion `json:"suggestions"`
	Coords      []string          `json:"coords"`
}
