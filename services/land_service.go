package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/utils"
)

// ListAgriCompanies returns the agricultural companies.
func ListAgriCompanies(ctx context.Context) ([]models.Company, error) {
	return database.ListCompaniesByCategory(ctx, models.CompanyCategoryAgri)
}

// CreateCompany registers a company, agricultural unless a category is given.
func CreateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return models.Company{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}
	if c.CategoryID == 0 {
		c.CategoryID = models.CompanyCategoryAgri
	}
	return database.CreateCompany(ctx, c)
}

// ListLandsWithLedgers returns the lands of a company, each with its ledgers.
func ListLandsWithLedgers(ctx context.Context, companyID int64) ([]models.LandWithLedgers, error) {
	if _, err := database.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}
	lands, err := database.ListLandsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(lands))
	for i, l := range lands {
		ids[i] = l.ID
	}
	byLand, err := database.ListLandLedgersByLands(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.LandWithLedgers, 0, len(lands))
	for _, l := range lands {
		ledgers := byLand[l.ID]
		if ledgers == nil {
			ledgers = []models.LandLedger{}
		}
		out = append(out, models.LandWithLedgers{Land: l, Ledgers: ledgers})
	}
	return out, nil
}

// CreateLand registers a land under an existing company.
func CreateLand(ctx context.Context, companyID int64, l models.Land) (models.Land, error) {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" || l.Prefecture == "" || l.Location == "" || l.Owner == "" {
		return models.Land{}, fmt.Errorf("%w: land name, prefecture, location and owner are required", ErrInvalidInput)
	}
	if _, err := database.GetCompany(ctx, companyID); err != nil {
		return models.Land{}, err
	}
	l.CompanyID = companyID
	return database.CreateLand(ctx, l)
}

// CreateLedger records a sampling event after checking the sampling method exists.
func CreateLedger(ctx context.Context, l models.LandLedger) (models.LandLedger, error) {
	if l.LandID <= 0 || l.SamplingMethodID <= 0 || l.SamplingDate.IsZero() {
		return models.LandLedger{}, fmt.Errorf("%w: land, sampling method and sampling date are required", ErrInvalidInput)
	}
	if _, err := database.GetSamplingMethod(ctx, nil, l.SamplingMethodID); err != nil {
		return models.LandLedger{}, err
	}
	return database.CreateLandLedger(ctx, l)
}

// CreateCatalogEntry adds a named entry to one of the reference catalogs. Land block
// and device names are normalized so "a1 " and "A1" are the same block.
func CreateCatalogEntry(ctx context.Context, c database.Catalog, name, remark string) (models.CatalogEntry, error) {
	switch c {
	case database.CatalogLandBlocks:
		name = utils.NormalizeBlockName(name)
	case database.CatalogDevices:
		name = utils.NormalizeDeviceName(name)
	default:
		name = strings.TrimSpace(name)
	}
	if name == "" {
		return models.CatalogEntry{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return database.CreateCatalogEntry(ctx, c, name, remark)
}

// SetSamplingOrders replaces the land block traversal of a sampling method.
func SetSamplingOrders(ctx context.Context, methodID int64, blockIDs []int64) ([]models.SamplingOrder, error) {
	if len(blockIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one land block is required", ErrInvalidInput)
	}
	if _, err := database.GetSamplingMethod(ctx, nil, methodID); err != nil {
		return nil, err
	}
	missing, err := database.MissingCatalogIDs(ctx, database.DB, database.CatalogLandBlocks, blockIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown land blocks %v", ErrInvalidInput, missing)
	}
	return database.ReplaceSamplingOrders(ctx, methodID, blockIDs)
}

// CreateSamplingMethod registers a sampling method.
func CreateSamplingMethod(ctx context.Context, m models.SamplingMethod) (models.SamplingMethod, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" || m.Times <= 0 {
		return models.SamplingMethod{}, fmt.Errorf("%w: sampling method needs a name and positive times", ErrInvalidInput)
	}
	return database.CreateSamplingMethod(ctx, m)
}

// GetCompany returns one company.
func GetCompany(ctx context.Context, id int64) (models.Company, error) {
	return database.GetCompany(ctx, id)
}

// GetLand returns one land of a company.
func GetLand(ctx context.Context, companyID, id int64) (models.Land, error) {
	return database.GetLand(ctx, companyID, id)
}

// ListCatalog returns the entries of a reference catalog.
func ListCatalog(ctx context.Context, c database.Catalog) ([]models.CatalogEntry, error) {
	return database.ListCatalogEntries(ctx, c)
}

// ListLandPeriods returns the land periods, latest year first.
func ListLandPeriods(ctx context.Context) ([]models.LandPeriod, error) {
	return database.ListLandPeriods(ctx)
}

// CreateLandPeriod registers a season of a year.
func CreateLandPeriod(ctx context.Context, p models.LandPeriod) (models.LandPeriod, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Year <= 0 {
		return models.LandPeriod{}, fmt.Errorf("%w: land period needs a year and a name", ErrInvalidInput)
	}
	return database.CreateLandPeriod(ctx, p)
}

// ListSamplingMethods returns every sampling method.
func ListSamplingMethods(ctx context.Context) ([]models.SamplingMethod, error) {
	return database.ListSamplingMethods(ctx)
}

// ListSamplingOrders returns the land block traversal of a sampling method.
func ListSamplingOrders(ctx context.Context, methodID int64) ([]models.SamplingOrder, error) {
	if _, err := database.GetSamplingMethod(ctx, nil, methodID); err != nil {
		return nil, err
	}
	return database.ListSamplingOrders(ctx, nil, methodID)
}

// ListLedgers returns every ledger.
func ListLedgers(ctx context.Context) ([]models.LandLedger, error) {
	return database.ListLandLedgers(ctx)
}

// ListChemicalScores returns the chemistry scores of a ledger.
func ListChemicalScores(ctx context.Context, ledgerID int64) ([]models.LandScoreChemical, error) {
	if _, err := database.GetLandLedger(ctx, nil, ledgerID); err != nil {
		return nil, err
	}
	return database.ListLandScoreChemicals(ctx, ledgerID)
}
