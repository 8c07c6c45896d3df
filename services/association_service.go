package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/association"
	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/metrics"
	"github.com/duri0214/soil-analysis/models"
)

const (
	ModeRule   = "rule"
	ModeManual = "manual"
)

// resolveFunc turns the selected window into assignments.
type resolveFunc func(window []models.SoilHardnessMeasurement) ([]association.Assignment, error)

// ledgerPlan is what both modes need to know about a ledger before touching windows.
type ledgerPlan struct {
	ledger models.LandLedger
	method models.SamplingMethod
	total  int
}

func loadLedgerPlan(ctx context.Context, ledgerID int64) (ledgerPlan, error) {
	if ledgerID <= 0 {
		return ledgerPlan{}, fmt.Errorf("%w: land ledger id is required", ErrInvalidInput)
	}
	ledger, err := database.GetLandLedger(ctx, nil, ledgerID)
	if err != nil {
		return ledgerPlan{}, err
	}
	method, err := database.GetSamplingMethod(ctx, nil, ledger.SamplingMethodID)
	if err != nil {
		return ledgerPlan{}, err
	}
	if method.Times <= 0 {
		return ledgerPlan{}, fmt.Errorf("%w: sampling method %q has times %d", association.ErrConfiguration, method.Name, method.Times)
	}
	return ledgerPlan{ledger: ledger, method: method, total: association.TotalSamplingCount(method.Times)}, nil
}

func checkAnchor(anchor int) error {
	if anchor < 0 || anchor > association.MaxAnchor {
		return fmt.Errorf("%w: anchor %d is outside memory slots 0..%d", ErrInvalidInput, anchor, association.MaxAnchor)
	}
	return nil
}

// AssociateByRule stamps every window starting at one of the anchors with the land
// blocks of the ledger's sampling order. Windows are independent: a failing window is
// reported and left unassociated while the others are committed.
func AssociateByRule(ctx context.Context, req models.RuleAssociationRequest) (models.AssociationResult, error) {
	if len(req.Anchors) == 0 {
		return models.AssociationResult{}, fmt.Errorf("%w: at least one anchor is required", ErrInvalidInput)
	}
	for _, anchor := range req.Anchors {
		if err := checkAnchor(anchor); err != nil {
			return models.AssociationResult{}, err
		}
	}
	plan, err := loadLedgerPlan(ctx, req.LandLedgerID)
	if err != nil {
		return models.AssociationResult{}, err
	}
	orders, err := database.ListSamplingOrders(ctx, nil, plan.method.ID)
	if err != nil {
		return models.AssociationResult{}, err
	}
	logging.L().Info("Service: rule association started",
		zap.Int64("ledger", plan.ledger.ID),
		zap.Ints("anchors", req.Anchors),
		zap.Int("total", plan.total),
		zap.Int("orders", len(orders)),
	)

	result := models.AssociationResult{LandLedgerID: plan.ledger.ID, Mode: ModeRule}
	for _, anchor := range req.Anchors {
		wr := runWindow(ctx, ModeRule, anchor, plan.total, []association.Event{association.EventSelectRule},
			func(window []models.SoilHardnessMeasurement) ([]association.Assignment, error) {
				return association.AssignByRule(window, orders, plan.method.Times, plan.ledger.ID)
			})
		result.Windows = append(result.Windows, wr)
	}
	return finishAssociation(ctx, result)
}

// AssociateManually stamps the window at anchor with operator supplied land blocks, one
// per 60-record sub-run.
func AssociateManually(ctx context.Context, anchor int, req models.ManualAssociationRequest) (models.AssociationResult, error) {
	if err := checkAnchor(anchor); err != nil {
		return models.AssociationResult{}, err
	}
	if len(req.LandBlockIDs) == 0 {
		return models.AssociationResult{}, fmt.Errorf("%w: at least one land block is required", ErrInvalidInput)
	}
	plan, err := loadLedgerPlan(ctx, req.LandLedgerID)
	if err != nil {
		return models.AssociationResult{}, err
	}
	missing, err := database.MissingCatalogIDs(ctx, database.DB, database.CatalogLandBlocks, req.LandBlockIDs)
	if err != nil {
		return models.AssociationResult{}, err
	}
	if len(missing) > 0 {
		return models.AssociationResult{}, fmt.Errorf("%w: unknown land blocks %v", association.ErrConfiguration, missing)
	}
	logging.L().Info("Service: manual association started",
		zap.Int64("ledger", plan.ledger.ID),
		zap.Int("anchor", anchor),
		zap.Int64s("land_blocks", req.LandBlockIDs),
	)

	wr := runWindow(ctx, ModeManual, anchor, plan.total,
		[]association.Event{association.EventRequestManual, association.EventSubmitManual},
		func(window []models.SoilHardnessMeasurement) ([]association.Assignment, error) {
			return association.AssignManually(window, req.LandBlockIDs, plan.ledger.ID)
		})
	result := models.AssociationResult{LandLedgerID: plan.ledger.ID, Mode: ModeManual, Windows: []models.WindowResult{wr}}
	return finishAssociation(ctx, result)
}

// runWindow selects, resolves and updates one window inside its own transaction.
func runWindow(ctx context.Context, mode string, anchor, total int, events []association.Event, resolve resolveFunc) models.WindowResult {
	wr := models.WindowResult{Anchor: anchor, Expected: total}
	state, err := association.Walk(events...)
	if err != nil {
		wr.State = string(association.StateUnassociated)
		wr.Error = err.Error()
		return wr
	}

	err = database.WithTx(ctx, func(tx *sql.Tx) error {
		window, err := database.SelectWindow(ctx, tx, anchor, total)
		if err != nil {
			return err
		}
		wr.Selected = len(window)
		if slots := countSlots(window); slots != total {
			wr.Warning = fmt.Sprintf("expected %d memory slots from %d, found %d", total, anchor, slots)
			logging.L().Warn("Service: window size differs from the sampling method",
				zap.String("mode", mode), zap.Int("anchor", anchor),
				zap.Int("expected_slots", total), zap.Int("found_slots", slots),
			)
		}

		assignments, err := resolve(window)
		if err != nil {
			return err
		}
		n, err := database.UpdateAssociations(ctx, tx, assignments)
		if err != nil {
			return err
		}
		wr.Assigned = n
		return nil
	})

	if err != nil {
		state, _ = association.Next(state, association.EventFail)
		wr.State = string(state)
		wr.Assigned = 0
		wr.Error = err.Error()
		metrics.AssociationWindows.WithLabelValues(mode, "failed").Inc()
		logging.L().Error("Service: association window failed",
			zap.String("mode", mode), zap.Int("anchor", anchor), zap.Error(err),
		)
		return wr
	}

	state, _ = association.Next(state, association.EventPersist)
	wr.State = string(state)
	metrics.AssociationWindows.WithLabelValues(mode, "assigned").Inc()
	metrics.AssociationRecords.WithLabelValues(mode).Add(float64(wr.Assigned))
	logging.L().Info("Service: association window assigned",
		zap.String("mode", mode), zap.Int("anchor", anchor), zap.Int("records", wr.Assigned),
	)
	return wr
}

func finishAssociation(ctx context.Context, result models.AssociationResult) (models.AssociationResult, error) {
	n, err := database.CountUnassociatedMeasurements(ctx, database.DB)
	if err != nil {
		return result, err
	}
	result.Unassociated = n
	result.Complete = n == 0
	return result, nil
}

func countSlots(window []models.SoilHardnessMeasurement) int {
	seen := make(map[int]struct{}, len(window))
	for _, m := range window {
		seen[m.SetMemory] = struct{}{}
	}
	return len(seen)
}

// GetAssociationOverview lists the unassociated probings and the ledgers to pick from.
func GetAssociationOverview(ctx context.Context) (models.AssociationOverview, error) {
	pending, err := database.ListPendingMemoryGroups(ctx)
	if err != nil {
		return models.AssociationOverview{}, err
	}
	ledgers, err := database.ListLandLedgers(ctx)
	if err != nil {
		return models.AssociationOverview{}, err
	}
	return models.AssociationOverview{Pending: pending, Ledgers: ledgers}, nil
}

// GetIndividualAssociationView shows the probings of the window the ledger's sampling
// method spans from anchor, with the land blocks an operator can choose.
func GetIndividualAssociationView(ctx context.Context, anchor int, ledgerID int64) (models.IndividualAssociationView, error) {
	if err := checkAnchor(anchor); err != nil {
		return models.IndividualAssociationView{}, err
	}
	plan, err := loadLedgerPlan(ctx, ledgerID)
	if err != nil {
		return models.IndividualAssociationView{}, err
	}
	groups, err := database.ListMemoryGroups(ctx, anchor, plan.total)
	if err != nil {
		return models.IndividualAssociationView{}, err
	}
	blocks, err := database.ListCatalogEntries(ctx, database.CatalogLandBlocks)
	if err != nil {
		return models.IndividualAssociationView{}, err
	}
	return models.IndividualAssociationView{
		Anchor:       anchor,
		LandLedgerID: plan.ledger.ID,
		Groups:       groups,
		LandBlocks:   blocks,
	}, nil
}

// IsConfigurationError reports whether err should be shown to the operator as a setup
// problem rather than a server fault.
func IsConfigurationError(err error) bool {
	return errors.Is(err, association.ErrConfiguration)
}
