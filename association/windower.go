package association

import (
	"math"
	"sort"

	"github.com/duri0214/soil-analysis/models"
)

// SamplesPerBlock is the number of probings taken inside one land block.
const SamplesPerBlock = 5

// TotalSamplingCount is the window size of one full pass of a sampling method.
func TotalSamplingCount(times int) int {
	return SamplesPerBlock * times
}

// SlotRange is a closed range of memory slots. It is empty when Last < First.
type SlotRange struct {
	First int
	Last  int
}

// MaxAnchor is the highest memory slot a window may start at. Memory numbers are
// stored in a 32-bit column.
const MaxAnchor = math.MaxInt32

// NewSlotRange returns [anchor, anchor+total-1]. The upper bound saturates at
// math.MaxInt instead of wrapping.
func NewSlotRange(anchor, total int) SlotRange {
	if total > 0 && anchor > math.MaxInt-(total-1) {
		return SlotRange{First: anchor, Last: math.MaxInt}
	}
	return SlotRange{First: anchor, Last: anchor + total - 1}
}

func (r SlotRange) Empty() bool { return r.Last < r.First }

func (r SlotRange) Contains(slot int) bool {
	return !r.Empty() && slot >= r.First && slot <= r.Last
}

// Len is the number of memory slots covered by the range.
func (r SlotRange) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

// SelectWindow returns the measurements whose memory slot lies in
// [anchor, anchor+total-1], ordered by ID. Slots missing from records are simply
// absent from the result; overlapping windows are not detected here.
func SelectWindow(records []models.SoilHardnessMeasurement, anchor, total int) []models.SoilHardnessMeasurement {
	r := NewSlotRange(anchor, total)
	var window []models.SoilHardnessMeasurement
	for _, rec := range records {
		if r.Contains(rec.SetMemory) {
			window = append(window, rec)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].ID < window[j].ID
	})
	return window
}

// SortOrders returns a copy of orders sorted by Ordering.
func SortOrders(orders []models.SamplingOrder) []models.SamplingOrder {
	sorted := make([]models.SamplingOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ordering < sorted[j].Ordering
	})
	return sorted
}
