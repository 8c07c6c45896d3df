// Package importer reads the CSV files written by DIK soil hardness meters.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/duri0214/soil-analysis/models"
)

// HeaderLines is the number of attribute lines before the first reading.
const HeaderLines = 10

// SetDatetimeLayout is the device clock format, e.g. "23.07.01 12:34:56".
const SetDatetimeLayout = "06.01.02 15:04:05"

// ParsedFile is one device CSV: its attributes and its (depth, pressure) rows.
type ParsedFile struct {
	Header   models.SoilHardnessHeader
	Readings []models.SoilHardnessReading
}

// ParseSoilHardnessCSV reads a device CSV. The 10 header lines are
//
//	1 device name (first field, must carry devicePrefix)
//	2 memory slot (second field)
//	3 latitude, 4 longitude (ignored)
//	5 set depth, 6 set datetime in loc, 7 spring, 8 cone (second field each)
//	9 blank, 10 column header
//
// and every following line is a depth,pressure pair. Any malformed value fails the file.
func ParseSoilHardnessCSV(r io.Reader, loc *time.Location, devicePrefix string) (ParsedFile, error) {
	br := bufio.NewReader(r)
	var lines [HeaderLines][]string
	for i := 0; i < HeaderLines; i++ {
		fields, err := readHeaderLine(br)
		if err != nil {
			return ParsedFile{}, fmt.Errorf("header line %d: %w", i+1, err)
		}
		lines[i] = fields
	}

	var pf ParsedFile
	var err error
	if pf.Header.DeviceName, err = parseDevice(field(lines[0], 0), devicePrefix); err != nil {
		return ParsedFile{}, err
	}
	if pf.Header.SetMemory, err = parseInt(field(lines[1], 1), "memory"); err != nil {
		return ParsedFile{}, err
	}
	if pf.Header.SetDepth, err = parseInt(field(lines[4], 1), "setdepth"); err != nil {
		return ParsedFile{}, err
	}
	if pf.Header.SetDatetime, err = ParseSetDatetime(field(lines[5], 1), loc); err != nil {
		return ParsedFile{}, err
	}
	if pf.Header.SetSpring, err = parseInt(field(lines[6], 1), "setspring"); err != nil {
		return ParsedFile{}, err
	}
	if pf.Header.SetCone, err = parseInt(field(lines[7], 1), "setcone"); err != nil {
		return ParsedFile{}, err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	dec, err := csvutil.NewDecoder(readingColumns{r: cr}, "depth", "pressure")
	if err != nil && !errors.Is(err, io.EOF) {
		return ParsedFile{}, fmt.Errorf("failed to create CSV decoder for readings: %w", err)
	}
	if err == nil {
		if err := dec.Decode(&pf.Readings); err != nil && !errors.Is(err, io.EOF) {
			return ParsedFile{}, fmt.Errorf("failed to decode readings: %w", err)
		}
	}
	return pf, nil
}

// ParseSetDatetime parses the device clock value as local time of loc.
func ParseSetDatetime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(SetDatetimeLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("setdatetime %q is not a yy.MM.dd HH:mm:ss datetime", s)
	}
	return t, nil
}

// ToMeasurements expands a parsed file into rows ready for insertion.
func (pf ParsedFile) ToMeasurements(deviceID int64, folder string) []models.SoilHardnessMeasurement {
	recs := make([]models.SoilHardnessMeasurement, 0, len(pf.Readings))
	for _, r := range pf.Readings {
		recs = append(recs, models.SoilHardnessMeasurement{
			SetMemory:   pf.Header.SetMemory,
			SetDatetime: pf.Header.SetDatetime,
			SetDepth:    pf.Header.SetDepth,
			SetSpring:   pf.Header.SetSpring,
			SetCone:     pf.Header.SetCone,
			Depth:       r.Depth,
			Pressure:    r.Pressure,
			CsvFolder:   folder,
			DeviceID:    deviceID,
		})
	}
	return recs
}

func parseDevice(s, prefix string) (string, error) {
	name := strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	if !strings.HasPrefix(name, prefix) {
		return "", fmt.Errorf("invalid device format: %q", s)
	}
	return name, nil
}

func parseInt(s, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s %q is not an integer", name, s)
	}
	return v, nil
}

// readHeaderLine splits one raw line. encoding/csv would skip the blank line 9.
func readHeaderLine(br *bufio.Reader) ([]string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// readingColumns feeds csvutil the first two trimmed columns of each data row.
type readingColumns struct {
	r *csv.Reader
}

func (c readingColumns) Read() ([]string, error) {
	rec, err := c.r.Read()
	if err != nil {
		return nil, err
	}
	if len(rec) > 2 {
		rec = rec[:2]
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}
