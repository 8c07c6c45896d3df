package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duri0214/soil-analysis/models"
)

func tokyo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func deviceCSV(device, setDatetime string, rows ...string) string {
	lines := []string{
		device + ",Digital Cone Penetrometer",
		"Memory No.,100",
		"Latitude,35.6",
		"Longitude,139.7",
		"Set Depth,60",
		"Date and Time," + setDatetime,
		"Spring,1",
		"Cone,2",
		"",
		"Depth [cm],Pressure [kPa]",
	}
	return strings.Join(append(lines, rows...), "\r\n") + "\r\n"
}

func TestParseSoilHardnessCSV(t *testing.T) {
	loc := tokyo(t)
	pf, err := ParseSoilHardnessCSV(strings.NewReader(deviceCSV("DIK-5531", " 23.07.01 12:34:56", "1,245", "2, 300")), loc, "DIK-")
	require.NoError(t, err)

	want := models.SoilHardnessHeader{
		DeviceName:  "DIK-5531",
		SetMemory:   100,
		SetDepth:    60,
		SetDatetime: time.Date(2023, 7, 1, 12, 34, 56, 0, loc),
		SetSpring:   1,
		SetCone:     2,
	}
	if diff := cmp.Diff(want, pf.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []models.SoilHardnessReading{{Depth: 1, Pressure: 245}, {Depth: 2, Pressure: 300}}, pf.Readings)

	recs := pf.ToMeasurements(7, "batch-1")
	require.Len(t, recs, 2)
	assert.Equal(t, int64(7), recs[1].DeviceID)
	assert.Equal(t, "batch-1", recs[1].CsvFolder)
	assert.Equal(t, 300, recs[1].Pressure)
	assert.Equal(t, 60, recs[0].SetDepth)
	assert.Nil(t, recs[0].LandBlockID)
}

func TestParseSoilHardnessCSV_NoReadings(t *testing.T) {
	pf, err := ParseSoilHardnessCSV(strings.NewReader(deviceCSV("DIK-5531", "23.07.01 12:34:56")), tokyo(t), "DIK-")
	require.NoError(t, err)
	assert.Empty(t, pf.Readings)
}

func TestParseSoilHardnessCSV_Errors(t *testing.T) {
	loc := tokyo(t)
	cases := map[string]string{
		"device prefix":  deviceCSV("ABC-1234", "23.07.01 12:34:56", "1,2"),
		"bad datetime":   deviceCSV("DIK-5531", "2023/07/01 12:34", "1,2"),
		"bad pressure":   deviceCSV("DIK-5531", "23.07.01 12:34:56", "1,abc"),
		"missing column": deviceCSV("DIK-5531", "23.07.01 12:34:56", "1"),
		"short header":   "DIK-5531,x\r\nMemory No.,1\r\n",
		"bad memory":     strings.Replace(deviceCSV("DIK-5531", "23.07.01 12:34:56"), "Memory No.,100", "Memory No.,one", 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSoilHardnessCSV(strings.NewReader(body), loc, "DIK-")
			assert.Error(t, err)
		})
	}
}

func TestParseSetDatetime(t *testing.T) {
	loc := tokyo(t)
	got, err := ParseSetDatetime(" 23.07.01 12:34:56", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2023, 7, 1, 3, 34, 56, 0, time.UTC)))

	_, err = ParseSetDatetime("invalid", loc)
	assert.Error(t, err)
}
