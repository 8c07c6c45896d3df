package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duri0214/soil-analysis/models"
)

const fieldsKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>fields</name>
    <Folder>
      <Placemark>
        <name>北圃場</name>
        <Polygon>
          <outerBoundaryIs>
            <LinearRing>
              <coordinates>
                139,35,0 139,36,0 140,36,0 140,35,0 139,35,0
              </coordinates>
            </LinearRing>
          </outerBoundaryIs>
        </Polygon>
      </Placemark>
    </Folder>
    <Placemark>
      <name> 南圃場 </name>
      <MultiGeometry>
        <Polygon>
          <outerBoundaryIs><LinearRing><coordinates>0,0 0,1 1,0 0,0</coordinates></LinearRing></outerBoundaryIs>
        </Polygon>
      </MultiGeometry>
    </Placemark>
    <Placemark>
      <name>倉庫</name>
      <Point><coordinates>139.7671248,35.6812362,0</coordinates></Point>
    </Placemark>
  </Document>
</kml>`

func TestParseKML(t *testing.T) {
	got, err := ParseKML(strings.NewReader(fieldsKML))
	require.NoError(t, err)
	assert.Equal(t, []models.LandCandidate{
		{Name: "北圃場", Latitude: 35.5, Longitude: 139.5},
		{Name: "南圃場", Latitude: 0.3333333, Longitude: 0.3333333},
		{Name: "倉庫", Latitude: 35.6812362, Longitude: 139.7671248},
	}, got)
}

func TestParseKML_Errors(t *testing.T) {
	_, err := ParseKML(strings.NewReader(`<kml><Placemark><name>x</name></Placemark></kml>`))
	assert.ErrorContains(t, err, "no coordinates")

	_, err = ParseKML(strings.NewReader(`<kml><Placemark><name>x</name><Point><coordinates>abc,1</coordinates></Point></Placemark></kml>`))
	assert.ErrorContains(t, err, "longitude")

	_, err = ParseKML(strings.NewReader(`<kml><Placemark>`))
	assert.Error(t, err)

	got, err := ParseKML(strings.NewReader(`<kml><Document/></kml>`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCentroid_CountsRepeatedPointsOnce(t *testing.T) {
	// With the closing point counted twice the mean latitude would be 35.175.
	lat, lng, err := Centroid("139.1,35.1 139.2,35.2 139.3,35.3 139.1,35.1")
	require.NoError(t, err)
	assert.Equal(t, 35.2, lat)
	assert.Equal(t, 139.2, lng)
}

func TestCentroid_RoundsToSevenDecimals(t *testing.T) {
	lat, lng, err := Centroid("0,0\n1,0\t0,2")
	require.NoError(t, err)
	assert.Equal(t, 0.6666667, lat)
	assert.Equal(t, 0.3333333, lng)
}

func TestCentroid_BadTuples(t *testing.T) {
	for _, coords := range []string{"", "  ", "139", "1,2,3,4", "139,north"} {
		_, _, err := Centroid(coords)
		assert.Error(t, err, "%q", coords)
	}
}
