package models

import "time"

// SamplingMethod is a sampling protocol such as the 5-point method.
// Times is how many 5-probing groups make up one full pass over a land.
type SamplingMethod struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Times     int       `db:"times" json:"times"`
	Remark    string    `db:"remark" json:"remark,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SamplingOrder is one step of the land block traversal for a sampling method.
type SamplingOrder struct {
	ID               int64  `db:"id" json:"id"`
	SamplingMethodID int64  `db:"sampling_method_id" json:"sampling_method_id"`
	LandBlockID      int64  `db:"land_block_id" json:"land_block_id"`
	LandBlockName    string `db:"-" json:"land_block_name,omitempty"`
	Ordering         int    `db:"ordering" json:"ordering"`
}

// LandLedger is one sampling event on a land.
type LandLedger struct {
	ID                  int64      `db:"id" json:"id"`
	SamplingDate        time.Time  `db:"sampling_date" json:"sampling_date"`
	AnalysisRequestDate *time.Time `db:"analysis_request_date" json:"analysis_request_date,omitempty"`
	ReportingDate       *time.Time `db:"reporting_date" json:"reporting_date,omitempty"`
	AnalysisNumber      *int64     `db:"analysis_number" json:"analysis_number,omitempty"`
	AnalyticalAgencyID  int64      `db:"analytical_agency_id" json:"analytical_agency_id"`
	CropID              int64      `db:"crop_id" json:"crop_id"`
	LandID              int64      `db:"land_id" json:"land_id"`
	LandPeriodID        int64      `db:"land_period_id" json:"land_period_id"`
	SamplingMethodID    int64      `db:"sampling_method_id" json:"sampling_method_id"`
	SamplingStaff       string     `db:"sampling_staff" json:"sampling_staff"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
