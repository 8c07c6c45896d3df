package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duri0214/soil-analysis/association"
	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/models"
)

func TestAssociateByRule(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "A1", "A2", "A3", "A4", "A5")
	probes(t, ctx, f.deviceID, 3, 3, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	result, err := AssociateByRule(ctx, models.RuleAssociationRequest{LandLedgerID: f.ledger.ID, Anchors: []int{1, 6}})
	require.NoError(t, err)

	assert.False(t, result.Failed())
	assert.True(t, result.Complete)
	assert.Zero(t, result.Unassociated)
	assert.Equal(t, ModeRule, result.Mode)
	require.Len(t, result.Windows, 2)
	for _, w := range result.Windows {
		assert.Equal(t, 5, w.Expected)
		assert.Equal(t, 15, w.Selected)
		assert.Equal(t, 15, w.Assigned)
		assert.Equal(t, string(association.StateAssigned), w.State)
		assert.Empty(t, w.Warning)
	}

	for _, anchor := range []int{1, 6} {
		got := blocksBySlot(t, ctx, anchor, 5)
		for i, block := range f.blocks {
			assert.Equal(t, []int64{block, block, block}, got[anchor+i], "slot %d", anchor+i)
		}
	}
}

func TestAssociateByRule_FailedWindowKeepsOthers(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "A1", "A2", "A3", "A4", "A5")
	probes(t, ctx, f.deviceID, 3, 3, 1, 2, 3, 4, 5, 6, 7, 9, 10)
	probes(t, ctx, f.deviceID, 3, 4, 8)

	result, err := AssociateByRule(ctx, models.RuleAssociationRequest{LandLedgerID: f.ledger.ID, Anchors: []int{1, 6}})
	require.NoError(t, err)

	assert.True(t, result.Failed())
	require.Len(t, result.Windows, 2)
	assert.Empty(t, result.Windows[0].Error)
	assert.Equal(t, 15, result.Windows[0].Assigned)
	assert.Contains(t, result.Windows[1].Error, "set depth")
	assert.Equal(t, string(association.StateUnassociated), result.Windows[1].State)
	assert.Zero(t, result.Windows[1].Assigned)

	assert.False(t, result.Complete)
	assert.Equal(t, 15, result.Unassociated)
	assert.Equal(t, f.blocks[0], blocksBySlot(t, ctx, 1, 5)[1][0])
	for _, blocks := range blocksBySlot(t, ctx, 6, 5) {
		assert.Equal(t, []int64{0, 0, 0}, blocks)
	}
}

func TestAssociateByRule_ShortWindowWarns(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "A1", "A2", "A3", "A4", "A5")
	probes(t, ctx, f.deviceID, 3, 3, 1, 2, 3)

	result, err := AssociateByRule(ctx, models.RuleAssociationRequest{LandLedgerID: f.ledger.ID, Anchors: []int{1}})
	require.NoError(t, err)

	require.Len(t, result.Windows, 1)
	w := result.Windows[0]
	assert.Empty(t, w.Error)
	assert.Equal(t, 9, w.Assigned)
	assert.Contains(t, w.Warning, "found 3")
	assert.True(t, result.Complete)
}

func TestAssociateByRule_RunsPastOrders(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "A1", "A2")
	probes(t, ctx, f.deviceID, 3, 3, 1, 2, 3)

	result, err := AssociateByRule(ctx, models.RuleAssociationRequest{LandLedgerID: f.ledger.ID, Anchors: []int{1}})
	require.NoError(t, err)
	require.True(t, result.Failed())
	assert.Contains(t, result.Windows[0].Error, "sampling order #3")
	assert.Equal(t, 9, result.Unassociated)
}

func TestAssociateByRule_InvalidRequests(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "A1")

	_, err := AssociateByRule(ctx, models.RuleAssociationRequest{LandLedgerID: f.ledger.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AssociateByRule(ctx, models.RuleAssociationRequest{Anchors: []int{1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = AssociateByRule(ctx, models.RuleAssociationRequest{LandLedgerID: 999, Anchors: []int{1}})
	assert.ErrorIs(t, err, database.ErrNotFound)

	for _, anchor := range []int{-1, association.MaxAnchor + 1, math.MaxInt} {
		_, err = AssociateByRule(ctx, models.RuleAssociationRequest{LandLedgerID: f.ledger.ID, Anchors: []int{1, anchor}})
		assert.ErrorIs(t, err, ErrInvalidInput, "anchor %d", anchor)

		_, err = AssociateManually(ctx, anchor, models.ManualAssociationRequest{LandLedgerID: f.ledger.ID, LandBlockIDs: f.blocks})
		assert.ErrorIs(t, err, ErrInvalidInput, "anchor %d", anchor)

		_, err = GetIndividualAssociationView(ctx, anchor, f.ledger.ID)
		assert.ErrorIs(t, err, ErrInvalidInput, "anchor %d", anchor)
	}
}

func TestAssociateByRule_Idempotent(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "A1", "A2", "A3", "A4", "A5")
	probes(t, ctx, f.deviceID, 3, 3, 1, 2, 3, 4, 5)
	req := models.RuleAssociationRequest{LandLedgerID: f.ledger.ID, Anchors: []int{1}}

	first, err := AssociateByRule(ctx, req)
	require.NoError(t, err)
	require.True(t, first.Complete)
	before := blocksBySlot(t, ctx, 1, 5)

	second, err := AssociateByRule(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.Failed())
	assert.True(t, second.Complete)
	assert.Zero(t, second.Unassociated)
	assert.Equal(t, 15, second.Windows[0].Assigned)

	assert.Equal(t, before, blocksBySlot(t, ctx, 1, 5))
	window, err := database.SelectWindow(ctx, database.DB, 1, 5)
	require.NoError(t, err)
	assert.Len(t, window, 15)
	unassociated, err := database.CountUnassociatedMeasurements(ctx, database.DB)
	require.NoError(t, err)
	assert.Zero(t, unassociated)
}

func TestAssociateManually(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "B1", "B2", "B3")
	probes(t, ctx, f.deviceID, 30, 30, 11, 12, 13, 14, 15)

	result, err := AssociateManually(ctx, 11, models.ManualAssociationRequest{LandLedgerID: f.ledger.ID, LandBlockIDs: f.blocks})
	require.NoError(t, err)

	require.Len(t, result.Windows, 1)
	w := result.Windows[0]
	assert.Empty(t, w.Error)
	assert.Equal(t, 150, w.Selected)
	assert.Equal(t, 150, w.Assigned)
	assert.Equal(t, ModeManual, result.Mode)
	assert.True(t, result.Complete)

	window, err := database.SelectWindow(ctx, database.DB, 11, 5)
	require.NoError(t, err)
	require.Len(t, window, 150)
	for i, m := range window {
		require.NotNil(t, m.LandBlockID)
		assert.Equal(t, f.blocks[i/60], *m.LandBlockID, "record %d", i)
		assert.Equal(t, f.ledger.ID, *m.LandLedgerID)
	}
}

func TestAssociateManually_TooFewBlocks(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "B1", "B2", "B3")
	probes(t, ctx, f.deviceID, 30, 30, 11, 12, 13, 14, 15)

	result, err := AssociateManually(ctx, 11, models.ManualAssociationRequest{LandLedgerID: f.ledger.ID, LandBlockIDs: f.blocks[:2]})
	require.NoError(t, err)
	require.True(t, result.Failed())
	assert.Contains(t, result.Windows[0].Error, "needs 3 land blocks")
	assert.Equal(t, 150, result.Unassociated)
}

func TestAssociateManually_UnknownBlock(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "B1")

	_, err := AssociateManually(ctx, 1, models.ManualAssociationRequest{LandLedgerID: f.ledger.ID, LandBlockIDs: []int64{f.blocks[0], 404}})
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "404")
}

func TestAssociationViews(t *testing.T) {
	ctx := setupDB(t)
	f := seedLedger(t, ctx, 1, "A1", "A2")
	probes(t, ctx, f.deviceID, 3, 3, 1, 2, 7)

	overview, err := GetAssociationOverview(ctx)
	require.NoError(t, err)
	require.Len(t, overview.Pending, 3)
	assert.Equal(t, 3, overview.Pending[0].Count)
	require.Len(t, overview.Ledgers, 1)

	view, err := GetIndividualAssociationView(ctx, 1, f.ledger.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Anchor)
	require.Len(t, view.Groups, 2)
	assert.Equal(t, []int{1, 2}, []int{view.Groups[0].SetMemory, view.Groups[1].SetMemory})
	assert.Len(t, view.LandBlocks, 2)
}
