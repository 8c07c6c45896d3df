package models

// RuleAssociationRequest is the JSON body of POST /api/soilhardness/association.
// Each anchor is the first memory slot of one window.
type RuleAssociationRequest struct {
	LandLedgerID int64 `json:"landledger"`
	Anchors      []int `json:"anchors"`
}

// ManualAssociationRequest is the JSON body of
// POST /api/soilhardness/association/individual/{anchor}.
// LandBlockIDs holds one land block per 60-record sub-run of the window.
type ManualAssociationRequest struct {
	LandLedgerID int64   `json:"landledger"`
	LandBlockIDs []int64 `json:"landblocks"`
}

// WindowResult reports what happened to one association window.
type WindowResult struct {
	Anchor   int    `json:"anchor"`
	Expected int    `json:"expected"`
	Selected int    `json:"selected"`
	Assigned int    `json:"assigned"`
	State    string `json:"state"`
	Warning  string `json:"warning,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AssociationResult is returned by both association modes. Complete is true once no
// unassociated measurement is left in the table.
type AssociationResult struct {
	LandLedgerID int64          `json:"landledger"`
	Mode         string         `json:"mode"`
	Windows      []WindowResult `json:"windows"`
	Complete     bool           `json:"complete"`
	Unassociated int            `json:"unassociated"`
}

// Failed reports whether any window of the submission failed.
func (r AssociationResult) Failed() bool {
	for _, w := range r.Windows {
		if w.Error != "" {
			return true
		}
	}
	return false
}

// AssociationOverview feeds the association list screen.
type AssociationOverview struct {
	Pending []MemoryGroup `json:"pending"`
	Ledgers []LandLedger  `json:"ledgers"`
}

// IndividualAssociationView feeds the manual association screen of one window.
type IndividualAssociationView struct {
	Anchor       int           `json:"anchor"`
	LandLedgerID int64         `json:"landledger"`
	Groups       []MemoryGroup `json:"groups"`
	LandBlocks   []LandBlock   `json:"land_blocks"`
}

// ImportSummary is the outcome of one soil hardness import run.
type ImportSummary struct {
	BatchID       string                    `json:"batch_id"`
	ArchiveKey    string                    `json:"archive_key,omitempty"`
	FilesSeen     int                       `json:"files_seen"`
	FilesImported int                       `json:"files_imported"`
	RowsImported  int                       `json:"rows_imported"`
	Errors        []SoilHardnessImportError `json:"errors"`
}
