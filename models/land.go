package models

import "time"

// Land is a field owned by a company.
type Land struct {
	ID                int64      `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Prefecture        string     `db:"prefecture" json:"prefecture"`
	Location          string     `db:"location" json:"location"`
	LatLon            string     `db:"latlon" json:"latlon,omitempty"`
	Area              *float64   `db:"area" json:"area,omitempty"`
	Remark            string     `db:"remark" json:"remark,omitempty"`
	CompanyID         int64      `db:"company_id" json:"company_id"`
	CultivationTypeID int64      `db:"cultivation_type_id" json:"cultivation_type_id"`
	Owner             string     `db:"owner" json:"owner"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// LandWithLedgers pairs a land with the ledgers recorded for it.
type LandWithLedgers struct {
	Land    Land         `json:"land"`
	Ledgers []LandLedger `json:"ledgers"`
}

// LandPeriod names a season of a year, e.g. 2022 "planting".
type LandPeriod struct {
	ID        int64     `db:"id" json:"id"`
	Year      int       `db:"year" json:"year"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
