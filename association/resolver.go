package association

import (
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

// ManualSubRunSize is the number of readings one land block receives in manual mode.
const ManualSubRunSize = 60

// Assignment is the land block and ledger resolved for one measurement.
type Assignment struct {
	MeasurementID int64
	LandBlockID   int64
	LandLedgerID  int64
}

// AssignByRule walks the sampling order catalog over the window. The needle moves to
// the next land block at every record index i > 0 where i is a multiple of
// setDepth*times, taking setDepth from the record itself. A needle that runs past the
// catalog fails the whole window.
func AssignByRule(window []models.SoilHardnessMeasurement, orders []models.SamplingOrder, times int, ledgerID int64) ([]Assignment, error) {
	if len(window) == 0 {
		return nil, nil
	}
	if times <= 0 {
		return nil, fmt.Errorf("%w: sampling times must be positive, got %d", ErrConfiguration, times)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no sampling order registered for the sampling method", ErrConfiguration)
	}
	if err := ValidateUniformDepth(window); err != nil {
		return nil, err
	}

	sorted := SortOrders(orders)
	assignments := make([]Assignment, 0, len(window))
	needle := 0
	for i, rec := range window {
		boundary := rec.SetDepth * times
		if boundary <= 0 {
			return nil, fmt.Errorf("%w: measurement %d has set depth %d", ErrConfiguration, rec.ID, rec.SetDepth)
		}
		if i > 0 && i%boundary == 0 {
			needle++
		}
		if needle > len(sorted)-1 {
			return nil, fmt.Errorf("%w: record %d needs sampling order #%d but only %d are registered",
				ErrConfiguration, i, needle+1, len(sorted))
		}
		assignments = append(assignments, Assignment{
			MeasurementID: rec.ID,
			LandBlockID:   sorted[needle].LandBlockID,
			LandLedgerID:  ledgerID,
		})
	}
	return assignments, nil
}

// AssignManually gives the i-th run of 60 readings to landBlockIDs[i].
func AssignManually(window []models.SoilHardnessMeasurement, landBlockIDs []int64, ledgerID int64) ([]Assignment, error) {
	required := RequiredSubRuns(len(window))
	if len(landBlockIDs) < required {
		return nil, fmt.Errorf("%w: window of %d readings needs %d land blocks, got %d",
			ErrConfiguration, len(window), required, len(landBlockIDs))
	}
	assignments := make([]Assignment, 0, len(window))
	for i, rec := range window {
		assignments = append(assignments, Assignment{
			MeasurementID: rec.ID,
			LandBlockID:   landBlockIDs[i/ManualSubRunSize],
			LandLedgerID:  ledgerID,
		})
	}
	return assignments, nil
}

// RequiredSubRuns is ceil(n / ManualSubRunSize).
func RequiredSubRuns(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + ManualSubRunSize - 1) / ManualSubRunSize
}

// ValidateUniformDepth rejects a window whose readings do not share one set depth.
func ValidateUniformDepth(window []models.SoilHardnessMeasurement) error {
	if len(window) == 0 {
		return nil
	}
	want := window[0].SetDepth
	for _, rec := range window[1:] {
		if rec.SetDepth != want {
			return fmt.Errorf("%w: memory %d has set depth %d, expected %d",
				ErrNonUniformDepth, rec.SetMemory, rec.SetDepth, want)
		}
	}
	return nil
}

// Apply stamps the assignments onto the matching records in place.
func Apply(records []models.SoilHardnessMeasurement, assignments []Assignment) {
	byID := make(map[int64]Assignment, len(assignments))
	for _, a := range assignments {
		byID[a.MeasurementID] = a
	}
	for i := range records {
		a, ok := byID[records[i].ID]
		if !ok {
			continue
		}
		block, ledger := a.LandBlockID, a.LandLedgerID
		records[i].LandBlockID = &block
		records[i].LandLedgerID = &ledger
	}
}
