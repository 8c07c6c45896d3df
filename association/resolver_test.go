package association

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	blockA1 int64 = 11
	blockB2 int64 = 22
	blockA3 int64 = 13
	blockC1 int64 = 31
	blockC3 int64 = 33
)

func TestAssignByRule_SegmentsOfSetDepthTimesTimes(t *testing.T) {
	window := measurements(16, 4, 1, 4)

	got, err := AssignByRule(window, orders(blockA1, blockB2, blockA3, blockC1), 1, 7)
	require.NoError(t, err)

	want := []int64{
		blockA1, blockA1, blockA1, blockA1,
		blockB2, blockB2, blockB2, blockB2,
		blockA3, blockA3, blockA3, blockA3,
		blockC1, blockC1, blockC1, blockC1,
	}
	if diff := cmp.Diff(want, blocksOf(got)); diff != "" {
		t.Errorf("land blocks mismatch (-want +got):\n%s", diff)
	}
	for i, a := range got {
		assert.Equal(t, window[i].ID, a.MeasurementID)
		assert.Equal(t, int64(7), a.LandLedgerID)
	}
}

func TestAssignByRule_TwentyRecordsNeedFiveOrders(t *testing.T) {
	window := measurements(20, 4, 1, 4)

	_, err := AssignByRule(window, orders(blockA1, blockB2, blockA3, blockC1), 1, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	got, err := AssignByRule(window, orders(blockA1, blockB2, blockA3, blockC1, blockC3), 1, 7)
	require.NoError(t, err)
	blocks := blocksOf(got)
	assert.Equal(t, blockB2, blocks[4])
	assert.Equal(t, blockA3, blocks[8])
	assert.Equal(t, blockC1, blocks[12])
	assert.Equal(t, blockC3, blocks[16])
	assert.Equal(t, blockC3, blocks[19])
}

func TestAssignByRule_TimesWidensBoundary(t *testing.T) {
	window := measurements(12, 3, 1, 3)

	got, err := AssignByRule(window, orders(blockA1, blockB2), 2, 1)
	require.NoError(t, err)
	want := []int64{blockA1, blockA1, blockA1, blockA1, blockA1, blockA1,
		blockB2, blockB2, blockB2, blockB2, blockB2, blockB2}
	assert.Equal(t, want, blocksOf(got))
}

func TestAssignByRule_UsesOrderingNotSliceOrder(t *testing.T) {
	window := measurements(4, 2, 1, 2)
	shuffled := orders(blockA1, blockB2)
	shuffled[0], shuffled[1] = shuffled[1], shuffled[0]

	got, err := AssignByRule(window, shuffled, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{blockA1, blockA1, blockB2, blockB2}, blocksOf(got))
}

func TestAssignByRule_ConfigurationErrors(t *testing.T) {
	window := measurements(4, 2, 1, 2)

	_, err := AssignByRule(window, nil, 1, 1)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = AssignByRule(window, orders(blockA1), 0, 1)
	assert.ErrorIs(t, err, ErrConfiguration)

	zeroDepth := measurements(4, 2, 1, 0)
	_, err = AssignByRule(zeroDepth, orders(blockA1), 1, 1)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAssignByRule_RejectsMixedSetDepth(t *testing.T) {
	window := measurements(8, 4, 1, 4)
	window[5].SetDepth = 3

	got, err := AssignByRule(window, orders(blockA1, blockB2), 1, 1)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrNonUniformDepth)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAssignByRule_EmptyWindow(t *testing.T) {
	got, err := AssignByRule(nil, orders(blockA1), 1, 1)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssignByRule_Idempotent(t *testing.T) {
	window := measurements(16, 4, 1, 4)
	catalog := orders(blockA1, blockB2, blockA3, blockC1)

	first, err := AssignByRule(window, catalog, 1, 3)
	require.NoError(t, err)
	Apply(window, first)

	second, err := AssignByRule(window, catalog, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, second, len(window))
}

func TestAssignManually_SubRunsOfSixty(t *testing.T) {
	const x, y, z int64 = 100, 200, 300
	window := measurements(150, 30, 1, 30)

	got, err := AssignManually(window, []int64{x, y, z}, 5)
	require.NoError(t, err)
	require.Len(t, got, 150)
	for i, a := range got {
		switch {
		case i < 60:
			assert.Equal(t, x, a.LandBlockID, "record %d", i)
		case i < 120:
			assert.Equal(t, y, a.LandBlockID, "record %d", i)
		default:
			assert.Equal(t, z, a.LandBlockID, "record %d", i)
		}
		assert.Equal(t, int64(5), a.LandLedgerID)
	}
}

func TestAssignManually_TooFewLandBlocks(t *testing.T) {
	window := measurements(150, 30, 1, 30)

	got, err := AssignManually(window, []int64{1, 2}, 5)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRequiredSubRuns(t *testing.T) {
	assert.Equal(t, 0, RequiredSubRuns(0))
	assert.Equal(t, 1, RequiredSubRuns(1))
	assert.Equal(t, 1, RequiredSubRuns(60))
	assert.Equal(t, 2, RequiredSubRuns(61))
	assert.Equal(t, 3, RequiredSubRuns(150))
}

func TestApply_OnlyTouchesAssignedRecords(t *testing.T) {
	records := measurements(6, 2, 1, 2)
	window := SelectWindow(records, 1, 2)
	require.Len(t, window, 4)

	assignments, err := AssignManually(window, []int64{blockA1}, 9)
	require.NoError(t, err)
	Apply(records, assignments)

	for _, rec := range records[:4] {
		require.True(t, rec.Associated())
		assert.Equal(t, blockA1, *rec.LandBlockID)
		assert.Equal(t, int64(9), *rec.LandLedgerID)
	}
	for _, rec := range records[4:] {
		assert.Nil(t, rec.LandBlockID)
		assert.Nil(t, rec.LandLedgerID)
	}
}
