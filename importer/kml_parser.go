package importer

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/duri0214/soil-analysis/models"
)

type kmlRing struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

type kmlPolygon struct {
	Outer kmlRing `xml:"outerBoundaryIs"`
}

type kmlPlacemark struct {
	Name     string       `xml:"name"`
	Polygons []kmlPolygon `xml:"Polygon"`
	Multi    []kmlPolygon `xml:"MultiGeometry>Polygon"`
	Point    string       `xml:"Point>coordinates"`
}

func (p kmlPlacemark) coordinates() string {
	switch {
	case len(p.Polygons) > 0:
		return p.Polygons[0].Outer.Coordinates
	case len(p.Multi) > 0:
		return p.Multi[0].Outer.Coordinates
	default:
		return p.Point
	}
}

// ParseKML reads every Placemark of a KML document, at any folder depth, and
// reduces its outline to a centroid. Placemarks come back in document order.
func ParseKML(r io.Reader) ([]models.LandCandidate, error) {
	dec := xml.NewDecoder(r)
	var candidates []models.LandCandidate
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read KML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &start); err != nil {
			return nil, fmt.Errorf("failed to read placemark %d: %w", len(candidates)+1, err)
		}
		name := strings.TrimSpace(pm.Name)
		lat, lng, err := Centroid(pm.coordinates())
		if err != nil {
			return nil, fmt.Errorf("placemark %q: %w", name, err)
		}
		candidates = append(candidates, models.LandCandidate{Name: name, Latitude: lat, Longitude: lng})
	}
	return candidates, nil
}

// Centroid averages the distinct points of a KML coordinates string ("lng,lat[,alt]"
// tuples separated by whitespace). A closed ring repeats its first point, which is
// counted once. Both axes are rounded to 7 decimals.
func Centroid(coords string) (lat, lng float64, err error) {
	seen := make(map[[2]float64]struct{})
	var points [][2]float64
	for _, tuple := range strings.Fields(coords) {
		parts := strings.Split(tuple, ",")
		if len(parts) != 2 && len(parts) != 3 {
			return 0, 0, fmt.Errorf("coordinate %q is not lng,lat[,alt]", tuple)
		}
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("longitude in %q: %w", tuple, err)
		}
		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("latitude in %q: %w", tuple, err)
		}
		p := [2]float64{x, y}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		points = append(points, p)
	}
	if len(points) == 0 {
		return 0, 0, errors.New("no coordinates")
	}
	for _, p := range points {
		lng += p[0]
		lat += p[1]
	}
	n := float64(len(points))
	return round7(lat / n), round7(lng / n), nil
}

func round7(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}
