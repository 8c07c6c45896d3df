package models

import "time"

// LandScoreChemical is the soil chemistry of one land block for one ledger.
// Every measured value is optional.
type LandScoreChemical struct {
	ID                   int64     `db:"id" json:"id"`
	EC                   *float64  `db:"ec" json:"ec,omitempty"`
	NH4N                 *float64  `db:"nh4n" json:"nh4n,omitempty"`
	NO3N                 *float64  `db:"no3n" json:"no3n,omitempty"`
	TotalNitrogen        *float64  `db:"total_nitrogen" json:"total_nitrogen,omitempty"`
	NH4PerNitrogen       *float64  `db:"nh4_per_nitrogen" json:"nh4_per_nitrogen,omitempty"`
	PH                   *float64  `db:"ph" json:"ph,omitempty"`
	CaO                  *float64  `db:"cao" json:"cao,omitempty"`
	MgO                  *float64  `db:"mgo" json:"mgo,omitempty"`
	K2O                  *float64  `db:"k2o" json:"k2o,omitempty"`
	BaseSaturation       *float64  `db:"base_saturation" json:"base_saturation,omitempty"`
	CaOPerMgO            *float64  `db:"cao_per_mgo" json:"cao_per_mgo,omitempty"`
	MgOPerK2O            *float64  `db:"mgo_per_k2o" json:"mgo_per_k2o,omitempty"`
	PhosphorusAbsorption *float64  `db:"phosphorus_absorption" json:"phosphorus_absorption,omitempty"`
	P2O5                 *float64  `db:"p2o5" json:"p2o5,omitempty"`
	CEC                  *float64  `db:"cec" json:"cec,omitempty"`
	Humus                *float64  `db:"humus" json:"humus,omitempty"`
	BulkDensity          *float64  `db:"bulk_density" json:"bulk_density,omitempty"`
	Remark               string    `db:"remark" json:"remark,omitempty"`
	LandBlockID          int64     `db:"land_block_id" json:"land_block_id"`
	LandBlockName        string    `db:"-" json:"land_block_name,omitempty"`
	LandLedgerID         int64     `db:"land_ledger_id" json:"land_ledger_id"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// ChemicalAverages is the per-field mean of the chemistry scores of one ledger.
// A field stays nil when no score carries a value for it.
type ChemicalAverages struct {
	EC                   *float64 `json:"ec"`
	NH4N                 *float64 `json:"nh4n"`
	NO3N                 *float64 `json:"no3n"`
	TotalNitrogen        *float64 `json:"total_nitrogen"`
	NH4PerNitrogen       *float64 `json:"nh4_per_nitrogen"`
	PH                   *float64 `json:"ph"`
	CaO                  *float64 `json:"cao"`
	MgO                  *float64 `json:"mgo"`
	K2O                  *float64 `json:"k2o"`
	BaseSaturation       *float64 `json:"base_saturation"`
	CaOPerMgO            *float64 `json:"cao_per_mgo"`
	MgOPerK2O            *float64 `json:"mgo_per_k2o"`
	PhosphorusAbsorption *float64 `json:"phosphorus_absorption"`
	P2O5                 *float64 `json:"p2o5"`
	CEC                  *float64 `json:"cec"`
	Humus                *float64 `json:"humus"`
	BulkDensity          *float64 `json:"bulk_density"`
}

// ChartSeries is the data of one bar chart on the chemical report.
type ChartSeries struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ChemicalReport is everything the report page renders for one ledger.
type ChemicalReport struct {
	Ledger   LandLedger          `json:"ledger"`
	Scores   []LandScoreChemical `json:"scores"`
	Averages ChemicalAverages    `json:"averages"`
	Charts   []ChartSeries       `json:"charts"`
	Review   *LandReview         `json:"review,omitempty"`
}

// LandReview is the evaluation comment written for a ledger.
type LandReview struct {
	ID           int64      `db:"id" json:"id"`
	Comment      string     `db:"comment" json:"comment"`
	Remark       string     `db:"remark" json:"remark,omitempty"`
	LandLedgerID int64      `db:"land_ledger_id" json:"land_ledger_id"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
