package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duri0214/soil-analysis/config"
	"github.com/duri0214/soil-analysis/database"
	"github.com/duri0214/soil-analysis/models"
)

func setupDB(t *testing.T) context.Context {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	database.Use(db, "sqlite")
	config.AppConfig = config.Config{}
	t.Cleanup(func() {
		db.Close()
		database.DB = nil
		config.AppConfig = config.Config{}
	})
	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx))
	return ctx
}

type fixture struct {
	deviceID int64
	company  models.Company
	land     models.Land
	blocks   []int64
	method   models.SamplingMethod
	ledger   models.LandLedger
}

// seedLedger registers one device, the named land blocks and a ledger whose sampling
// method visits the blocks in the given order.
func seedLedger(t *testing.T, ctx context.Context, times int, blockNames ...string) fixture {
	t.Helper()
	var f fixture

	device, err := CreateCatalogEntry(ctx, database.CatalogDevices, "dik-5531", "")
	require.NoError(t, err)
	f.deviceID = device.ID
	crop, err := CreateCatalogEntry(ctx, database.CatalogCrops, "rice", "")
	require.NoError(t, err)
	ctype, err := CreateCatalogEntry(ctx, database.CatalogCultivationTypes, "open field", "")
	require.NoError(t, err)
	for _, name := range blockNames {
		b, err := CreateCatalogEntry(ctx, database.CatalogLandBlocks, name, "")
		require.NoError(t, err)
		f.blocks = append(f.blocks, b.ID)
	}

	f.company, err = CreateCompany(ctx, models.Company{Name: "Green Farm"})
	require.NoError(t, err)
	agency, err := CreateCompany(ctx, models.Company{Name: "Soil Lab"})
	require.NoError(t, err)
	f.land, err = CreateLand(ctx, f.company.ID, models.Land{
		Name: "North", Prefecture: "Chiba", Location: "Sakura", Owner: "Tanaka",
		CultivationTypeID: ctype.ID,
	})
	require.NoError(t, err)
	period, err := CreateLandPeriod(ctx, models.LandPeriod{Year: 2023, Name: "planting"})
	require.NoError(t, err)

	f.method, err = CreateSamplingMethod(ctx, models.SamplingMethod{Name: "5-point", Times: times})
	require.NoError(t, err)
	if len(f.blocks) > 0 {
		_, err = SetSamplingOrders(ctx, f.method.ID, f.blocks)
		require.NoError(t, err)
	}

	f.ledger, err = CreateLedger(ctx, models.LandLedger{
		SamplingDate:       time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		AnalyticalAgencyID: agency.ID,
		CropID:             crop.ID,
		LandID:             f.land.ID,
		LandPeriodID:       period.ID,
		SamplingMethodID:   f.method.ID,
		SamplingStaff:      "Suzuki",
	})
	require.NoError(t, err)
	return f
}

// probes inserts rows readings for every slot, all sharing setDepth.
func probes(t *testing.T, ctx context.Context, deviceID int64, rows, setDepth int, slots ...int) {
	t.Helper()
	base := time.Date(2023, 7, 6, 10, 0, 0, 0, time.UTC)
	var recs []models.SoilHardnessMeasurement
	for _, slot := range slots {
		for depth := 1; depth <= rows; depth++ {
			recs = append(recs, models.SoilHardnessMeasurement{
				SetMemory:   slot,
				SetDatetime: base.Add(time.Duration(slot) * time.Minute),
				SetDepth:    setDepth,
				SetSpring:   1,
				SetCone:     2,
				Depth:       depth,
				Pressure:    100 + depth,
				CsvFolder:   "batch",
				DeviceID:    deviceID,
			})
		}
	}
	_, err := database.InsertMeasurements(ctx, database.DB, recs)
	require.NoError(t, err)
}

// blocksBySlot reads back the land block of every measurement in the window.
func blocksBySlot(t *testing.T, ctx context.Context, anchor, total int) map[int][]int64 {
	t.Helper()
	window, err := database.SelectWindow(ctx, database.DB, anchor, total)
	require.NoError(t, err)
	out := make(map[int][]int64)
	for _, m := range window {
		var block int64
		if m.LandBlockID != nil {
			block = *m.LandBlockID
		}
		out[m.SetMemory] = append(out[m.SetMemory], block)
	}
	return out
}
