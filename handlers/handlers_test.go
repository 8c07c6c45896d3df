package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duri0214/soil-analysis/config"
	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/storage"
)

func newServer(t *testing.T) (http.Handler, storage.ArchiveStore) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	database.Use(db, "sqlite")
	config.AppConfig = config.Config{}
	config.AppConfig.Import.WorkDir = t.TempDir()
	t.Cleanup(func() {
		db.Close()
		database.DB = nil
		config.AppConfig = config.Config{}
	})
	require.NoError(t, database.Migrate(context.Background()))

	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return NewRouter(store), store
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func create[T any](t *testing.T, h http.Handler, path string, body interface{}) T {
	t.Helper()
	rec := do(t, h, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[T](t, rec)
}

// seed builds a ledger over the HTTP API and returns it with its land block ids.
func seed(t *testing.T, h http.Handler, blocks ...string) (models.LandLedger, []int64) {
	t.Helper()
	create[models.CatalogEntry](t, h, "/api/catalogs/devices", map[string]string{"name": "DIK-5531"})
	crop := create[models.CatalogEntry](t, h, "/api/catalogs/crops", map[string]string{"name": "rice"})
	ctype := create[models.CatalogEntry](t, h, "/api/catalogs/cultivation-types", map[string]string{"name": "open field"})
	var ids []int64
	for _, b := range blocks {
		ids = append(ids, create[models.CatalogEntry](t, h, "/api/catalogs/land-blocks", map[string]string{"name": b}).ID)
	}

	company := create[models.Company](t, h, "/api/companies", map[string]string{"name": "Green Farm"})
	land := create[models.Land](t, h, "/api/companies/"+itoa(company.ID)+"/lands", models.Land{
		Name: "North", Prefecture: "Chiba", Location: "Sakura", Owner: "Tanaka", CultivationTypeID: ctype.ID,
	})
	period := create[models.LandPeriod](t, h, "/api/land-periods", models.LandPeriod{Year: 2023, Name: "planting"})
	method := create[models.SamplingMethod](t, h, "/api/sampling-methods", models.SamplingMethod{Name: "5-point", Times: 1})

	rec := do(t, h, http.MethodPost, "/api/sampling-methods/"+itoa(method.ID)+"/orders", map[string][]int64{"landblocks": ids})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ledger := create[models.LandLedger](t, h, "/api/ledgers", models.LandLedger{
		SamplingDate:       time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		AnalyticalAgencyID: company.ID,
		CropID:             crop.ID,
		LandID:             land.ID,
		LandPeriodID:       period.ID,
		SamplingMethodID:   method.ID,
		SamplingStaff:      "Suzuki",
	})
	return ledger, ids
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func deviceCSV(memory int, rows ...string) string {
	lines := []string{
		"DIK-5531,Digital Cone Penetrometer",
		"Memory No.," + strconv.Itoa(memory),
		"Latitude,35.6",
		"Longitude,139.7",
		"Set Depth,3",
		"Date and Time,23.07.01 12:0" + strconv.Itoa(memory % 10) + ":00",
		"Spring,1",
		"Cone,2",
		"",
		"Depth [cm],Pressure [kPa]",
	}
	return strings.Join(append(lines, rows...), "\r\n") + "\r\n"
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.zip")
	require.NoError(t, err)
	_, err = fw.Write(archive.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/soilhardness/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	h, _ := newServer(t)
	rec := do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	database.DB.Close()
	rec = do(t, h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newServer(t)
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "soil_import_rows_total")
}

func TestErrorMapping(t *testing.T) {
	h, _ := newServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/companies/42", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/companies/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/companies", "{not json").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/companies", map[string]string{"name": ""}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/catalogs/planets", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/api/ledgers", nil).Code)

	rec := do(t, h, http.MethodGet, "/api/catalogs/land-blocks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestLandsWithLedgers(t *testing.T) {
	h, _ := newServer(t)
	ledger, _ := seed(t, h, "A1")

	rec := do(t, h, http.MethodGet, "/api/companies/1/lands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lands := decode[[]models.LandWithLedgers](t, rec)
	require.Len(t, lands, 1)
	require.Len(t, lands[0].Ledgers, 1)
	assert.Equal(t, ledger.ID, lands[0].Ledgers[0].ID)

	rec = do(t, h, http.MethodGet, "/api/companies/1/lands/"+itoa(lands[0].Land.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/companies/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadAndRuleAssociation(t *testing.T) {
	h, store := newServer(t)
	ledger, blocks := seed(t, h, "A1", "A2", "A3", "A4", "A5")

	files := map[string]string{}
	for slot := 1; slot <= 5; slot++ {
		files["batch/"+strconv.Itoa(slot)+".csv"] = deviceCSV(slot, "1,100", "2,150", "3,200")
	}
	files["batch/broken.csv"] = "DIK-5531\r\nnot a header\r\n"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, files))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[models.ImportSummary](t, rec)
	assert.Equal(t, 6, summary.FilesSeen)
	assert.Equal(t, 5, summary.FilesImported)
	assert.Equal(t, 15, summary.RowsImported)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "broken.csv", summary.Errors[0].CsvFile)

	_, rc, err := store.Get(context.Background(), summary.ArchiveKey)
	require.NoError(t, err)
	rc.Close()

	rec = do(t, h, http.MethodGet, "/api/soilhardness/import-errors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.SoilHardnessImportError](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/api/soilhardness/association", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.AssociationOverview](t, rec).Pending, 5)

	rec = do(t, h, http.MethodPost, "/api/soilhardness/association",
		models.RuleAssociationRequest{LandLedgerID: ledger.ID, Anchors: []int{1}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[models.AssociationResult](t, rec)
	assert.True(t, result.Complete)
	require.Len(t, result.Windows, 1)
	assert.Equal(t, 15, result.Windows[0].Assigned)

	window, err := database.SelectWindow(context.Background(), database.DB, 1, 5)
	require.NoError(t, err)
	for _, m := range window {
		assert.Equal(t, blocks[m.SetMemory-1], *m.LandBlockID)
	}
}

func TestUpload_RejectsBadArchive(t *testing.T) {
	h, _ := newServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.zip")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/soilhardness/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/soilhardness/upload", "no multipart")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_TooLarge(t *testing.T) {
	h, _ := newServer(t)
	config.AppConfig.Server.MaxUploadMB = 1

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.zip")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 2<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/soilhardness/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
}

func TestManualAssociation(t *testing.T) {
	h, _ := newServer(t)
	ledger, blocks := seed(t, h, "B1", "B2")

	files := map[string]string{}
	for slot := 1; slot <= 5; slot++ {
		var rows []string
		for d := 1; d <= 20; d++ {
			rows = append(rows, strconv.Itoa(d)+",100")
		}
		files["batch/"+strconv.Itoa(slot)+".csv"] = deviceCSV(slot, rows...)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, files))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/soilhardness/association/individual/1?ledger="+itoa(ledger.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[models.IndividualAssociationView](t, rec)
	assert.Len(t, view.Groups, 5)
	assert.Len(t, view.LandBlocks, 2)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/soilhardness/association/individual/1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/soilhardness/association/individual/x?ledger=1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/soilhardness/association/individual/99999999999?ledger="+itoa(ledger.ID), nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/soilhardness/association/individual/99999999999",
		models.ManualAssociationRequest{LandLedgerID: ledger.ID, LandBlockIDs: blocks}).Code)

	// 100 readings need two 60-reading runs.
	rec = do(t, h, http.MethodPost, "/api/soilhardness/association/individual/1",
		models.ManualAssociationRequest{LandLedgerID: ledger.ID, LandBlockIDs: blocks[:1]})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	failed := decode[models.AssociationResult](t, rec)
	require.Len(t, failed.Windows, 1)
	assert.NotEmpty(t, failed.Windows[0].Error)

	rec = do(t, h, http.MethodPost, "/api/soilhardness/association/individual/1",
		models.ManualAssociationRequest{LandLedgerID: ledger.ID, LandBlockIDs: []int64{blocks[0], 999}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/soilhardness/association/individual/1",
		models.ManualAssociationRequest{LandLedgerID: ledger.ID, LandBlockIDs: blocks})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[models.AssociationResult](t, rec)
	assert.Equal(t, 100, result.Windows[0].Assigned)
	assert.True(t, result.Complete)
}

func TestChemicalReportFlow(t *testing.T) {
	h, _ := newServer(t)
	ledger, blocks := seed(t, h, "A1", "A2")
	base := "/api/ledgers/" + itoa(ledger.ID)

	ec1, ec2 := 0.2, 0.4
	rec := do(t, h, http.MethodPost, base+"/chemical-scores", []models.LandScoreChemical{
		{LandBlockID: blocks[0], EC: &ec1},
		{LandBlockID: blocks[1], EC: &ec2},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, base+"/review", map[string]string{"comment": "add lime"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, base+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[models.ChemicalReport](t, rec)
	require.NotNil(t, report.Averages.EC)
	assert.InDelta(t, 0.3, *report.Averages.EC, 1e-9)
	assert.Len(t, report.Charts, 4)
	require.NotNil(t, report.Review)
	assert.Equal(t, "add lime", report.Review.Comment)

	rec = do(t, h, http.MethodGet, base+"/chemical-scores", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.LandScoreChemical](t, rec), 2)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/ledgers/999/report", nil).Code)
}
