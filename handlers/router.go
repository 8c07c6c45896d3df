package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/metrics"
	"github.com/duri0214/soil-analysis/storage"
)

// NewRouter wires every API route. Uploaded archives are kept in store.
func NewRouter(store storage.ArchiveStore) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", HealthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/companies", ListCompaniesHandler)
	mux.HandleFunc("POST /api/companies", CreateCompanyHandler)
	mux.HandleFunc("GET /api/companies/{id}", GetCompanyHandler)
	mux.HandleFunc("GET /api/companies/{companyID}/lands", ListLandsHandler)
	mux.HandleFunc("POST /api/companies/{companyID}/lands", CreateLandHandler)
	mux.HandleFunc("GET /api/companies/{companyID}/lands/{id}", GetLandHandler)

	mux.HandleFunc("GET /api/catalogs/{catalog}", CatalogHandler)
	mux.HandleFunc("POST /api/catalogs/{catalog}", CatalogHandler)
	mux.HandleFunc("GET /api/land-periods", LandPeriodsHandler)
	mux.HandleFunc("POST /api/land-periods", LandPeriodsHandler)
	mux.HandleFunc("GET /api/sampling-methods", SamplingMethodsHandler)
	mux.HandleFunc("POST /api/sampling-methods", SamplingMethodsHandler)
	mux.HandleFunc("GET /api/sampling-methods/{id}/orders", SamplingOrdersHandler)
	mux.HandleFunc("POST /api/sampling-methods/{id}/orders", SamplingOrdersHandler)

	mux.HandleFunc("GET /api/ledgers", LedgersHandler)
	mux.HandleFunc("POST /api/ledgers", LedgersHandler)
	mux.HandleFunc("GET /api/ledgers/{id}/chemical-scores", ChemicalScoresHandler)
	mux.HandleFunc("POST /api/ledgers/{id}/chemical-scores", ChemicalScoresHandler)
	mux.HandleFunc("PUT /api/ledgers/{id}/review", ReviewHandler)
	mux.HandleFunc("GET /api/ledgers/{id}/report", ReportHandler)

	mux.HandleFunc("POST /api/soilhardness/upload", UploadHandler(store))
	mux.HandleFunc("GET /api/soilhardness/import-errors", ImportErrorsHandler)
	mux.HandleFunc("GET /api/soilhardness/association", AssociationOverviewHandler)
	mux.HandleFunc("POST /api/soilhardness/association", RuleAssociationHandler)
	mux.HandleFunc("GET /api/soilhardness/association/individual/{anchor}", IndividualAssociationViewHandler)
	mux.HandleFunc("POST /api/soilhardness/association/individual/{anchor}", ManualAssociationHandler)

	mux.HandleFunc("GET /api/routesuggest", RouteSuggestListHandler)
	mux.HandleFunc("POST /api/routesuggest/upload", RouteSuggestUploadHandler)
	mux.HandleFunc("POST /api/routesuggest/ordering", RouteSuggestOrderHandler)
	mux.HandleFunc("GET /api/routesuggest/result", RouteSuggestResultHandler)

	return logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.L().Debug("Handler: request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
