package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/services"
)

// maxKMLBytes caps a KML upload. Exports of ten fields are a few kilobytes.
const maxKMLBytes = 8 << 20

// RouteSuggestUploadHandler stores the fields of an uploaded KML file as route candidates.
// Expects POST /api/routesuggest/upload (multipart, field "file")
func RouteSuggestUploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxKMLBytes)
	if err := r.ParseMultipartForm(maxKMLBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithServiceError(w, err)
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing 'file' in upload")
		return
	}
	defer file.Close()

	logging.L().Info("Handler: received KML upload", zap.String("filename", header.Filename), zap.Int64("bytes", header.Size))
	stored, err := services.ImportRouteCandidates(r.Context(), file)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, stored)
}

// RouteSuggestListHandler lists the current route candidates.
// Expects GET /api/routesuggest
func RouteSuggestListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := services.ListRouteSuggestions(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(list))
}

// RouteSuggestOrderHandler saves the visiting order chosen by the operator.
// Expects POST /api/routesuggest/ordering
func RouteSuggestOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RouteOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	ordered, err := services.OrderRouteSuggestions(r.Context(), req.Order)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, ordered)
}

func RouteSuggestResultHandler(w http.ResponseWriter, r *http.Request) {
	result, err := services.GetRouteSuggestResult(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	result.Suggestions = nonNil(result.Suggestions)
	respondWithJSON(w, http.StatusOK, result)
}
