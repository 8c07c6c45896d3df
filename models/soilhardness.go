package models

import "time"

// SoilHardnessMeasurement is one raw reading from a soil hardness meter.
// LandBlockID and LandLedgerID stay nil until the reading is associated.
type SoilHardnessMeasurement struct {
	ID           int64      `db:"id" json:"id"`
	SetMemory    int        `db:"set_memory" json:"set_memory"`
	SetDatetime  time.Time  `db:"set_datetime" json:"set_datetime"`
	SetDepth     int        `db:"set_depth" json:"set_depth"`
	SetSpring    int        `db:"set_spring" json:"set_spring"`
	SetCone      int        `db:"set_cone" json:"set_cone"`
	Depth        int        `db:"depth" json:"depth"`
	Pressure     int        `db:"pressure" json:"pressure"`
	CsvFolder    string     `db:"csv_folder" json:"csv_folder"`
	DeviceID     int64      `db:"device_id" json:"device_id"`
	LandBlockID  *int64     `db:"land_block_id" json:"land_block_id,omitempty"`
	LandLedgerID *int64     `db:"land_ledger_id" json:"land_ledger_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Associated reports whether the reading already carries a land block and ledger.
func (m SoilHardnessMeasurement) Associated() bool {
	return m.LandBlockID != nil && m.LandLedgerID != nil
}

// SoilHardnessReading is a data line of a device CSV (after the 10 header lines).
type SoilHardnessReading struct {
	Depth    int `csv:"depth"`
	Pressure int `csv:"pressure"`
}

// SoilHardnessHeader holds the attributes found in the first 10 lines of a device CSV.
type SoilHardnessHeader struct {
	DeviceName  string
	SetMemory   int
	SetDepth    int
	SetDatetime time.Time
	SetSpring   int
	SetCone     int
}

// MemoryGroup is one probing as shown on the association screens: the readings of
// one memory slot grouped together.
type MemoryGroup struct {
	SetMemory   int       `db:"set_memory" json:"set_memory"`
	SetDatetime time.Time `db:"set_datetime" json:"set_datetime"`
	Count       int       `db:"cnt" json:"count"`
}

// SoilHardnessImportError records why one CSV file could not be imported.
type SoilHardnessImportError struct {
	ID        int64     `db:"id" json:"id"`
	CsvFile   string    `db:"csv_file" json:"csv_file"`
	CsvFolder string    `db:"csv_folder" json:"csv_folder"`
	Message   string    `db:"message" json:"message"`
	Remark    string    `db:"remark" json:"remark,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
