package association

import (
	"time"

	"github.com/duri0214/soil-analysis/models"
)

// measurements builds n readings with consecutive IDs. Every perSlot readings share a
// memory slot, starting from firstSlot.
func measurements(n, perSlot, firstSlot, setDepth int) []models.SoilHardnessMeasurement {
	base := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)
	recs := make([]models.SoilHardnessMeasurement, n)
	for i := range recs {
		slot := firstSlot + i/perSlot
		recs[i] = models.SoilHardnessMeasurement{
			ID:          int64(i + 1),
			SetMemory:   slot,
			SetDatetime: base.Add(time.Duration(slot) * time.Minute),
			SetDepth:    setDepth,
			Depth:       i % perSlot,
			Pressure:    100 + i,
		}
	}
	return recs
}

func orders(blocks ...int64) []models.SamplingOrder {
	out := make([]models.SamplingOrder, len(blocks))
	for i, b := range blocks {
		out[i] = models.SamplingOrder{ID: int64(i + 1), SamplingMethodID: 1, LandBlockID: b, Ordering: i + 1}
	}
	return out
}

func blocksOf(assignments []Assignment) []int64 {
	out := make([]int64, len(assignments))
	for i, a := range assignments {
		out[i] = a.LandBlockID
	}
	return out
}
