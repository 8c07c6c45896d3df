package handlers

import (
	"net/http"

	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/services"
)

// ListCompaniesHandler lists the agricultural companies.
// Expects GET /api/companies
func ListCompaniesHandler(w http.ResponseWriter, r *http.Request) {
	companies, err := services.ListAgriCompanies(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, nonNil(companies))
}

// CreateCompanyHandler expects POST /api/companies with a company JSON body.
func CreateCompanyHandler(w http.ResponseWriter, r *http.Request) {
	var c models.Company
	if err := decodeJSON(r, &c); err != nil {
		respondWithServiceError(w, err)
		return
	}
	created, err := services.CreateCompany(r.Context(), c)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// GetCompanyHandler expects GET /api/companies/{id}
func GetCompanyHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	c, err := services.GetCompany(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

// ListLandsHandler lists the lands of a company with their ledgers.
// Expects GET /api/companies/{companyID}/lands
func ListLandsHandler(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	lands, err := services.ListLandsWithLedgers(r.Context(), companyID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lands)
}

// CreateLandHandler expects POST /api/companies/{companyID}/lands with a land JSON body.
func CreateLandHandler(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	var l models.Land
	if err := decodeJSON(r, &l); err != nil {
		respondWithServiceError(w, err)
		return
	}
	created, err := services.CreateLand(r.Context(), companyID, l)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// GetLandHandler expects GET /api/companies/{companyID}/lands/{id}
func GetLandHandler(w http.ResponseWriter, r *http.Request) {
	companyID, err := pathID(r, "companyID")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	l, err := services.GetLand(r.Context(), companyID, id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, l)
}

type catalogEntryRequest struct {
	Name   string `json:"name"`
	Remark string `json:"remark"`
}

// CatalogHandler lists (GET) or extends (POST) one reference catalog.
// Expects /api/catalogs/{catalog} where {catalog} is crops, cultivation-types,
// devices, land-blocks or company-categories.
func CatalogHandler(w http.ResponseWriter, r *http.Request) {
	c, err := database.ParseCatalog(r.PathValue("catalog"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	if r.Method == http.MethodGet {
		entries, err := services.ListCatalog(r.Context(), c)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nonNil(entries))
		return
	}

	var req catalogEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	entry, err := services.CreateCatalogEntry(r.Context(), c, req.Name, req.Remark)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, entry)
}

// LandPeriodsHandler lists (GET) or creates (POST) land periods.
// Expects /api/land-periods
func LandPeriodsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		periods, err := services.ListLandPeriods(r.Context())
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nonNil(periods))
		return
	}

	var p models.LandPeriod
	if err := decodeJSON(r, &p); err != nil {
		respondWithServiceError(w, err)
		return
	}
	created, err := services.CreateLandPeriod(r.Context(), p)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

// SamplingMethodsHandler lists (GET) or creates (POST) sampling methods.
// Expects /api/sampling-methods
func SamplingMethodsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		methods, err := services.ListSamplingMethods(r.Context())
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nonNil(methods))
		return
	}

	var m models.SamplingMethod
	if err := decodeJSON(r, &m); err != nil {
		respondWithServiceError(w, err)
		return
	}
	created, err := services.CreateSamplingMethod(r.Context(), m)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

type samplingOrdersRequest struct {
	LandBlockIDs []int64 `json:"landblocks"`
}

// SamplingOrdersHandler reads (GET) or replaces (POST) the land block traversal of a
// sampling method. Expects /api/sampling-methods/{id}/orders
func SamplingOrdersHandler(w http.ResponseWriter, r *http.Request) {
	methodID, err := pathID(r, "id")
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if r.Method == http.MethodGet {
		orders, err := services.ListSamplingOrders(r.Context(), methodID)
		if err != nil {
			respondWithServiceError(w, err)
			return
		}
		respondWithJSON(w, http.StatusOK, nonNil(orders))
		return
	}

	var req samplingOrdersRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	orders, err := services.SetSamplingOrders(r.Context(), methodID, req.LandBlockIDs)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}
