package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/models"
)

// chemicalField binds one score column to its average slot.
type chemicalField struct {
	label string
	score func(*models.LandScoreChemical) *float64
	avg   func(*models.ChemicalAverages) **float64
}

var chemicalFields = map[string]chemicalField{
	"ec":                    {"EC(mS/cm)", func(s *models.LandScoreChemical) *float64 { return s.EC }, func(a *models.ChemicalAverages) **float64 { return &a.EC }},
	"nh4n":                  {"NH4-N(mg/100g)", func(s *models.LandScoreChemical) *float64 { return s.NH4N }, func(a *models.ChemicalAverages) **float64 { return &a.NH4N }},
	"no3n":                  {"NO3-N(mg/100g)", func(s *models.LandScoreChemical) *float64 { return s.NO3N }, func(a *models.ChemicalAverages) **float64 { return &a.NO3N }},
	"total_nitrogen":        {"無機態窒素", func(s *models.LandScoreChemical) *float64 { return s.TotalNitrogen }, func(a *models.ChemicalAverages) **float64 { return &a.TotalNitrogen }},
	"nh4_per_nitrogen":      {"NH4/無機態窒素", func(s *models.LandScoreChemical) *float64 { return s.NH4PerNitrogen }, func(a *models.ChemicalAverages) **float64 { return &a.NH4PerNitrogen }},
	"ph":                    {"ph", func(s *models.LandScoreChemical) *float64 { return s.PH }, func(a *models.ChemicalAverages) **float64 { return &a.PH }},
	"cao":                   {"CaO(mg/100g)", func(s *models.LandScoreChemical) *float64 { return s.CaO }, func(a *models.ChemicalAverages) **float64 { return &a.CaO }},
	"mgo":                   {"MgO(mg/100g)", func(s *models.LandScoreChemical) *float64 { return s.MgO }, func(a *models.ChemicalAverages) **float64 { return &a.MgO }},
	"k2o":                   {"K2O(mg/100g)", func(s *models.LandScoreChemical) *float64 { return s.K2O }, func(a *models.ChemicalAverages) **float64 { return &a.K2O }},
	"base_saturation":       {"塩基飽和度(%)", func(s *models.LandScoreChemical) *float64 { return s.BaseSaturation }, func(a *models.ChemicalAverages) **float64 { return &a.BaseSaturation }},
	"cao_per_mgo":           {"CaO/MgO", func(s *models.LandScoreChemical) *float64 { return s.CaOPerMgO }, func(a *models.ChemicalAverages) **float64 { return &a.CaOPerMgO }},
	"mgo_per_k2o":           {"MgO/K2O", func(s *models.LandScoreChemical) *float64 { return s.MgOPerK2O }, func(a *models.ChemicalAverages) **float64 { return &a.MgOPerK2O }},
	"phosphorus_absorption": {"リン吸(mg/100g)", func(s *models.LandScoreChemical) *float64 { return s.PhosphorusAbsorption }, func(a *models.ChemicalAverages) **float64 { return &a.PhosphorusAbsorption }},
	"p2o5":                  {"P2O5(mg/100g)", func(s *models.LandScoreChemical) *float64 { return s.P2O5 }, func(a *models.ChemicalAverages) **float64 { return &a.P2O5 }},
	"cec":                   {"CEC(meq/100g)", func(s *models.LandScoreChemical) *float64 { return s.CEC }, func(a *models.ChemicalAverages) **float64 { return &a.CEC }},
	"humus":                 {"腐植(%)", func(s *models.LandScoreChemical) *float64 { return s.Humus }, func(a *models.ChemicalAverages) **float64 { return &a.Humus }},
	"bulk_density":          {"仮比重", func(s *models.LandScoreChemical) *float64 { return s.BulkDensity }, func(a *models.ChemicalAverages) **float64 { return &a.BulkDensity }},
}

// chartLayout is the four bar charts of the ledger report, in display order.
var chartLayout = []struct {
	title  string
	fields []string
}{
	{"窒素関連（1圃場の全エリア平均）", []string{"ec", "nh4n", "no3n", "total_nitrogen", "nh4_per_nitrogen"}},
	{"塩基類関連（1圃場の全エリア平均）", []string{"ph", "cao", "mgo", "k2o", "base_saturation", "cao_per_mgo", "mgo_per_k2o"}},
	{"リン酸関連（1圃場の全エリア平均）", []string{"phosphorus_absorption", "p2o5"}},
	{"土壌ポテンシャル関連（1圃場の全エリア平均）", []string{"cec", "humus", "bulk_density"}},
}

// AggregateChemicalScores averages every chemistry field over the scores that carry a
// value for it. A field nobody measured stays nil.
func AggregateChemicalScores(scores []models.LandScoreChemical) models.ChemicalAverages {
	var avg models.ChemicalAverages
	for _, f := range chemicalFields {
		var sum float64
		var n int
		for i := range scores {
			if v := f.score(&scores[i]); v != nil {
				sum += *v
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			*f.avg(&avg) = &mean
		}
	}
	return avg
}

// BuildCharts lays the averages out as the four report charts. Missing values plot as 0.
func BuildCharts(avg models.ChemicalAverages) []models.ChartSeries {
	charts := make([]models.ChartSeries, 0, len(chartLayout))
	for _, layout := range chartLayout {
		series := models.ChartSeries{Title: layout.title}
		for _, key := range layout.fields {
			f := chemicalFields[key]
			series.Labels = append(series.Labels, f.label)
			var v float64
			if p := *f.avg(&avg); p != nil {
				v = *p
			}
			series.Values = append(series.Values, v)
		}
		charts = append(charts, series)
	}
	return charts
}

// GetChemicalReport collects everything the report page of a ledger renders.
func GetChemicalReport(ctx context.Context, ledgerID int64) (models.ChemicalReport, error) {
	ledger, err := database.GetLandLedger(ctx, nil, ledgerID)
	if err != nil {
		return models.ChemicalReport{}, err
	}
	scores, err := database.ListLandScoreChemicals(ctx, ledgerID)
	if err != nil {
		return models.ChemicalReport{}, err
	}
	review, err := database.GetLandReview(ctx, ledgerID)
	if err != nil {
		return models.ChemicalReport{}, err
	}
	avg := AggregateChemicalScores(scores)
	return models.ChemicalReport{
		Ledger:   ledger,
		Scores:   scores,
		Averages: avg,
		Charts:   BuildCharts(avg),
		Review:   review,
	}, nil
}

// SaveChemicalScores attaches chemistry scores to a ledger.
func SaveChemicalScores(ctx context.Context, ledgerID int64, scores []models.LandScoreChemical) ([]models.LandScoreChemical, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no chemical scores given", ErrInvalidInput)
	}
	if _, err := database.GetLandLedger(ctx, nil, ledgerID); err != nil {
		return nil, err
	}
	for i := range scores {
		if scores[i].LandBlockID <= 0 {
			return nil, fmt.Errorf("%w: score #%d has no land block", ErrInvalidInput, i+1)
		}
		scores[i].LandLedgerID = ledgerID
	}
	if _, err := database.SaveLandScoreChemicals(ctx, scores); err != nil {
		return nil, err
	}
	return database.ListLandScoreChemicals(ctx, ledgerID)
}

// SaveLandReview writes the evaluation comment of a ledger.
func SaveLandReview(ctx context.Context, ledgerID int64, comment, remark string) (models.LandReview, error) {
	if strings.TrimSpace(comment) == "" {
		return models.LandReview{}, fmt.Errorf("%w: comment is required", ErrInvalidInput)
	}
	if _, err := database.GetLandLedger(ctx, nil, ledgerID); err != nil {
		return models.LandReview{}, err
	}
	return database.UpsertLandReview(ctx, ledgerID, comment, remark)
}
