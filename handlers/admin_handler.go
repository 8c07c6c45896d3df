package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/config"
	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/services"
	"github.com/duri0214/soil-analysis/storage"
)

const defaultMaxUploadMB = 64

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logging.L().Error("Handler: failed to marshal JSON response", zap.Error(err))
		http.Error(w, `{"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string) {
	logging.L().Warn("Handler: API error", zap.Int("status", code), zap.String("message", message))
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps a service error onto its HTTP status.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case services.IsConfigurationError(err):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
	default:
		logging.L().Error("Handler: request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", services.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", services.ErrInvalidInput, name, r.PathValue(name))
	}
	return id, nil
}

// HealthHandler reports whether the database answers.
// Expects GET /api/health
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		logging.L().Error("Handler: health check failed", zap.Error(err))
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "database connection error"})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "soil analysis backend is healthy"})
}

// UploadHandler imports a zip of soil hardness CSV files.
// Expects POST multipart/form-data to /api/soilhardness/upload with the zip in "file"
// and an optional "reset=true" to empty the measurement table first.
func UploadHandler(store storage.ArchiveStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxMB := config.AppConfig.Server.MaxUploadMB
		if maxMB <= 0 {
			maxMB = defaultMaxUploadMB
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxMB<<20)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
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

		var opts services.ImportOptions
		if v := r.FormValue("reset"); v != "" {
			if opts.Reset, err = strconv.ParseBool(v); err != nil {
				respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid 'reset' value %q", v))
				return
			}
		}

		logging.L().Info("Handler: received soil hardness upload",
			zap.String("filename", header.Filename), zap.Int64("bytes", header.Size), zap.Bool("reset", opts.Reset))
		summary, err := services.ImportUpload(r.Context(), store, file, opts)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, summary)
	}
}

// ImportErrorsHandler lists the files skipped by the latest import.
// Expects GET /api/soilhardness/import-errors
func ImportErrorsHandler(w http.ResponseWriter, r *http.Request) {
	errs, err := services.ListImportErrors(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(errs))
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
