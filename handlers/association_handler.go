package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/association"
	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/services"
)

// AssociationOverviewHandler lists the unassociated probings and the ledgers.
// Expects GET /api/soilhardness/association
func AssociationOverviewHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := services.GetAssociationOverview(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	overview.Pending = nonNil(overview.Pending)
	overview.Ledgers = nonNil(overview.Ledgers)
	respondWithJSON(w, http.StatusOK, overview)
}

// RuleAssociationHandler associates whole windows by the ledger's sampling order.
// Expects POST /api/soilhardness/association
// with JSON body: {"landledger": 1, "anchors": [1, 6]}
func RuleAssociationHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RuleAssociationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	logging.L().Info("Handler: received rule association request",
		zap.Int64("ledger", req.LandLedgerID), zap.Ints("anchors", req.Anchors))

	result, err := services.AssociateByRule(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithAssociation(w, result)
}

// IndividualAssociationViewHandler expects
// GET /api/soilhardness/association/individual/{anchor}?ledger=N
func IndividualAssociationViewHandler(w http.ResponseWriter, r *http.Request) {
	anchor, err := anchorParam(r)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	ledgerID, err := strconv.ParseInt(r.URL.Query().Get("ledger"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing or invalid 'ledger' query parameter")
		return
	}
	view, err := services.GetIndividualAssociationView(r.Context(), anchor, ledgerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	view.Groups = nonNil(view.Groups)
	view.LandBlocks = nonNil(view.LandBlocks)
	respondWithJSON(w, http.StatusOK, view)
}

// ManualAssociationHandler associates one window with operator chosen land blocks.
// Expects POST /api/soilhardness/association/individual/{anchor}
// with JSON body: {"landledger": 1, "landblocks": [3, 4, 5]}
func ManualAssociationHandler(w http.ResponseWriter, r *http.Request) {
	anchor, err := anchorParam(r)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	var req models.ManualAssociationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	logging.L().Info("Handler: received manual association request",
		zap.Int64("ledger", req.LandLedgerID), zap.Int("anchor", anchor), zap.Int64s("land_blocks", req.LandBlockIDs))

	result, err := services.AssociateManually(r.Context(), anchor, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithAssociation(w, result)
}

// respondWithAssociation answers 422 when any window failed, still sending the per
// window outcome so committed windows are visible to the caller.
func respondWithAssociation(w http.ResponseWriter, result models.AssociationResult) {
	if result.Windows == nil {
		result.Windows = []models.WindowResult{}
	}
	if result.Failed() {
		respondWithJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func anchorParam(r *http.Request) (int, error) {
	anchor, err := strconv.Atoi(r.PathValue("anchor"))
	if err != nil || anchor < 0 || anchor > association.MaxAnchor {
		return 0, fmt.Errorf("%w: anchor must be a memory slot number, got %q", services.ErrInvalidInput, r.PathValue("anchor"))
	}
	return anchor, nil
}
