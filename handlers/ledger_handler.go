package handlers

import (
	"net/http"

	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/services"
)

// LedgersHandler lists (GET) or records (POST) sampling ledgers.
// Expects /api/ledgers
func LedgersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		ledgers, err := services.ListLedgers(r.Context())
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nonNil(ledgers))
		return
	}

	var l models.LandLedger
	if err := decodeJSON(r, &l); err != nil {
		respondWithServiceError(w, err)
		return
	}
	created, err := services.CreateLedger(r.Context(), l)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// ChemicalScoresHandler lists (GET) or adds (POST) the chemistry scores of a ledger.
// Expects /api/ledgers/{id}/chemical-scores; POST takes a JSON array of scores.
func ChemicalScoresHandler(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if r.Method == http.MethodGet {
		scores, err := services.ListChemicalScores(r.Context(), ledgerID)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nonNil(scores))
		return
	}

	var scores []models.LandScoreChemical
	if err := decodeJSON(r, &scores); err != nil {
		respondWithServiceError(w, err)
		return
	}
	saved, err := services.SaveChemicalScores(r.Context(), ledgerID, scores)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, saved)
}

type reviewRequest struct {
	Comment string `json:"comment"`
	Remark  string `json:"remark"`
}

// ReviewHandler expects PUT /api/ledgers/{id}/review with {"comment": "...", "remark": "..."}.
func ReviewHandler(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	review, err := services.SaveLandReview(r.Context(), ledgerID, req.Comment, req.Remark)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, review)
}

// ReportHandler expects GET /api/ledgers/{id}/report
func ReportHandler(w http.ResponseWriter, r *http.Request) {
	ledgerID, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	report, err := services.GetChemicalReport(r.Context(), ledgerID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	report.Scores = nonNil(report.Scores)
	respondWithJSON(w, http.StatusOK, report)
}
