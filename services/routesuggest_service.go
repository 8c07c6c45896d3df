package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/importer"
	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/models"
)

// A route needs a start and a goal. Google Maps directions accept at most 10 points.
const (
	MinRouteCandidates = 2
	MaxRouteCandidates = 10
)

// waypoint formats a centroid the way Google Maps expects a waypoint: "lat, lng".
func waypoint(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lng, 'f', -1, 64)
}

// ImportRouteCandidates reads the field outlines of a KML export and stores their
// centroids as the new route candidates, replacing the previous set.
func ImportRouteCandidates(ctx context.Context, r io.Reader) ([]models.RouteSuggestion, error) {
	candidates, err := importer.ParseKML(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(candidates) < MinRouteCandidates {
		return nil, fmt.Errorf("%w: at least %d places are required, found %d", ErrInvalidInput, MinRouteCandidates, len(candidates))
	}
	if len(candidates) > MaxRouteCandidates {
		return nil, fmt.Errorf("%w: at most %d places are allowed, found %d", ErrInvalidInput, MaxRouteCandidates, len(candidates))
	}

	rows := make([]models.RouteSuggestion, len(candidates))
	for i, c := range candidates {
		rows[i] = models.RouteSuggestion{
			Name:      c.Name,
			Coords:    waypoint(c.Latitude, c.Longitude),
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
		}
	}
	stored, err := database.ReplaceRouteSuggestions(ctx, rows)
	if err != nil {
		return nil, err
	}
	logging.L().Info("Service: route candidates imported", zap.Int("candidates", len(stored)))
	return stored, nil
}

// ListRouteSuggestions returns the stored candidates, ordered ones first.
func ListRouteSuggestions(ctx context.Context) ([]models.RouteSuggestion, error) {
	return database.ListRouteSuggestions(ctx, nil)
}

// OrderRouteSuggestions saves the visiting order. ids must name every stored
// candidate exactly once.
func OrderRouteSuggestions(ctx context.Context, ids []int64) ([]models.RouteSuggestion, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: order must list the candidates", ErrInvalidInput)
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: candidate %d is listed twice", ErrInvalidInput, id)
		}
		seen[id] = true
	}
	current, err := database.ListRouteSuggestions(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(current) {
		return nil, fmt.Errorf("%w: order lists %d of %d candidates", ErrInvalidInput, len(ids), len(current))
	}

	ordered, err := database.SetRouteSuggestOrdering(ctx, ids)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		return nil, err
	}
	logging.L().Info("Service: route order saved", zap.Int64s("order", ids))
	return ordered, nil
}

// GetRouteSuggestResult returns the candidates in visiting order with their waypoints.
func GetRouteSuggestResult(ctx context.Context) (models.RouteSuggestResult, error) {
	suggestions, err := database.ListRouteSuggestions(ctx, nil)
	if err != nil {
		return models.RouteSuggestResult{}, err
	}
	result := models.RouteSuggestResult{
		Suggestions: suggestions,
		Coords:      make([]string, len(suggestions)),
	}
	for i, s := range suggestions {
		result.Coords[i] = s.Coords
	}
	return result, nil
}
