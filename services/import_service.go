package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/config"
	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/importer"
	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/metrics"
	"github.com/duri0214/soil-analysis/models"
	"github.com/duri0214/soil-analysis/storage"
)

// ImportOptions controls one import run.
type ImportOptions struct {
	// Reset empties the measurement table before importing.
	Reset bool
}

// ImportFolder imports every CSV file found below root. A file that fails to parse
// or insert is recorded in the import error table and skipped; the run goes on.
func ImportFolder(ctx context.Context, root string, opts ImportOptions) (models.ImportSummary, error) {
	summary := models.ImportSummary{BatchID: uuid.NewString()}
	log := logging.L().With(zap.String("batch", summary.BatchID))
	log.Info("Service: soil hardness import started", zap.String("folder", root), zap.Bool("reset", opts.Reset))

	loc, err := importLocation()
	if err != nil {
		return summary, err
	}
	if err := database.ClearImportErrors(ctx); err != nil {
		return summary, err
	}
	if opts.Reset {
		if _, err := database.DeleteAllMeasurements(ctx); err != nil {
			return summary, err
		}
	}

	devices, err := database.ListCatalogEntries(ctx, database.CatalogDevices)
	if err != nil {
		return summary, err
	}
	deviceIDs := make(map[string]int64, len(devices))
	for _, d := range devices {
		deviceIDs[d.Name] = d.ID
	}

	files, err := importer.FindCSVFiles(root)
	if err != nil {
		return summary, err
	}
	summary.FilesSeen = len(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		folder := importer.SourceFolder(path)
		rows, err := importFile(ctx, path, folder, loc, deviceIDs)
		if err != nil {
			metrics.ImportFiles.WithLabelValues("failed").Inc()
			log.Warn("Service: skipped soil hardness file",
				zap.String("file", filepath.Base(path)), zap.String("folder", folder), zap.Error(err))
			if _, saveErr := database.SaveImportError(ctx, models.SoilHardnessImportError{
				CsvFile:   filepath.Base(path),
				CsvFolder: folder,
				Message:   err.Error(),
			}); saveErr != nil {
				return summary, saveErr
			}
			continue
		}
		metrics.ImportFiles.WithLabelValues("imported").Inc()
		metrics.ImportRows.Add(float64(rows))
		summary.FilesImported++
		summary.RowsImported += rows
	}

	summary.Errors, err = database.ListImportErrors(ctx)
	if err != nil {
		return summary, err
	}
	log.Info("Service: soil hardness import finished",
		zap.Int("files", summary.FilesSeen),
		zap.Int("imported", summary.FilesImported),
		zap.Int("rows", summary.RowsImported),
		zap.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

// importFile parses one CSV and inserts its rows in a transaction of its own.
func importFile(ctx context.Context, path, folder string, loc *time.Location, deviceIDs map[string]int64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	pf, err := importer.ParseSoilHardnessCSV(f, loc, devicePrefix())
	if err != nil {
		return 0, err
	}
	deviceID, ok := deviceIDs[pf.Header.DeviceName]
	if !ok {
		return 0, fmt.Errorf("device %q is not registered", pf.Header.DeviceName)
	}

	var rows int
	err = database.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err = database.InsertMeasurements(ctx, tx, pf.ToMeasurements(deviceID, folder))
		return err
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// ImportUpload keeps the uploaded zip in the archive store, extracts it to a scratch
// folder and imports the CSV files inside.
func ImportUpload(ctx context.Context, store storage.ArchiveStore, upload io.Reader, opts ImportOptions) (models.ImportSummary, error) {
	workDir := config.AppConfig.Import.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return models.ImportSummary{}, fmt.Errorf("failed to create import work directory: %w", err)
	}

	spool, err := os.CreateTemp(workDir, "upload-*.zip")
	if err != nil {
		return models.ImportSummary{}, fmt.Errorf("failed to spool upload: %w", err)
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()
	size, err := io.Copy(spool, upload)
	if err != nil {
		return models.ImportSummary{}, fmt.Errorf("failed to spool upload: %w", err)
	}

	extractDir, err := os.MkdirTemp(workDir, "extract-*")
	if err != nil {
		return models.ImportSummary{}, err
	}
	defer os.RemoveAll(extractDir)

	if _, err := importer.ExtractZip(spool, size, extractDir); err != nil {
		return models.ImportSummary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	key := storage.NewArchiveKey()
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return models.ImportSummary{}, err
	}
	if _, err := store.Put(ctx, key, spool, "application/zip"); err != nil {
		return models.ImportSummary{}, fmt.Errorf("failed to archive upload: %w", err)
	}
	logging.L().Info("Service: archived soil hardness upload",
		zap.String("key", key), zap.Int64("bytes", size), zap.String("driver", string(store.Driver())))

	summary, err := ImportFolder(ctx, extractDir, opts)
	summary.ArchiveKey = key
	return summary, err
}

// ListImportErrors returns the errors recorded by the latest import run.
func ListImportErrors(ctx context.Context) ([]models.SoilHardnessImportError, error) {
	return database.ListImportErrors(ctx)
}

func importLocation() (*time.Location, error) {
	tz := config.AppConfig.Import.Timezone
	if tz == "" {
		tz = "Asia/Tokyo"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid import timezone %q: %w", tz, err)
	}
	return loc, nil
}

func devicePrefix() string {
	if p := config.AppConfig.Import.DevicePrefix; p != "" {
		return p
	}
	return "DIK-"
}
