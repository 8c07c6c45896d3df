package models

import "time"

// CatalogEntry is a row of one of the small named reference catalogs
// (crops, cultivation types, devices, land blocks, company categories).
type CatalogEntry struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Remark    string    `db:"remark" json:"remark,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LandBlock is a named sub-division of a land, e.g. "A1".
type LandBlock = CatalogEntry

// Device is a soil hardness meter, e.g. "DIK-5531".
type Device = CatalogEntry

// CompanyCategoryAgri is the category id of agricultural companies.
const CompanyCategoryAgri int64 = 1
