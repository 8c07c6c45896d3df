package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

// SaveLandScoreChemicals inserts the chemistry scores of a ledger in one transaction.
func SaveLandScoreChemicals(ctx context.Context, scores []models.LandScoreChemical) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	err := WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, rebind(`
			INSERT INTO land_score_chemicals (
				ec, nh4n, no3n, total_nitrogen, nh4_per_nitrogen, ph, cao, mgo, k2o,
				base_saturation, cao_per_mgo, mgo_per_k2o, phosphorus_absorption, p2o5,
				cec, humus, bulk_density, remark, land_block_id, land_ledger_id, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("failed to prepare chemical score insert statement: %w", err)
		}
		defer stmt.Close()

		createdAt := now()
		for _, s := range scores {
			_, err := stmt.ExecContext(ctx,
				nullFloat(s.EC), nullFloat(s.NH4N), nullFloat(s.NO3N), nullFloat(s.TotalNitrogen),
				nullFloat(s.NH4PerNitrogen), nullFloat(s.PH), nullFloat(s.CaO), nullFloat(s.MgO),
				nullFloat(s.K2O), nullFloat(s.BaseSaturation), nullFloat(s.CaOPerMgO), nullFloat(s.MgOPerK2O),
				nullFloat(s.PhosphorusAbsorption), nullFloat(s.P2O5), nullFloat(s.CEC), nullFloat(s.Humus),
				nullFloat(s.BulkDensity), nullString(s.Remark), s.LandBlockID, s.LandLedgerID, createdAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert chemical score of block %d ledger %d: %w", s.LandBlockID, s.LandLedgerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(scores), nil
}

// ListLandScoreChemicals returns the scores of a ledger ordered by land block name.
func ListLandScoreChemicals(ctx context.Context, ledgerID int64) ([]models.LandScoreChemical, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, rebind(`
		SELECT c.id, c.ec, c.nh4n, c.no3n, c.total_nitrogen, c.nh4_per_nitrogen, c.ph, c.cao, c.mgo, c.k2o,
		       c.base_saturation, c.cao_per_mgo, c.mgo_per_k2o, c.phosphorus_absorption, c.p2o5,
		       c.cec, c.humus, c.bulk_density, c.remark, c.land_block_id, lb.name, c.land_ledger_id, c.created_at
		FROM land_score_chemicals c
		JOIN land_blocks lb ON lb.id = c.land_block_id
		WHERE c.land_ledger_id = ?
		ORDER BY lb.name, c.id`), ledgerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chemical scores of ledger %d: %w", ledgerID, err)
	}
	defer rows.Close()

	var scores []models.LandScoreChemical
	for rows.Next() {
		var s models.LandScoreChemical
		var v [17]sql.NullFloat64
		var remark sql.NullString
		err := rows.Scan(&s.ID,
			&v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6], &v[7], &v[8],
			&v[9], &v[10], &v[11], &v[12], &v[13], &v[14], &v[15], &v[16],
			&remark, &s.LandBlockID, &s.LandBlockName, &s.LandLedgerID, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chemical score row: %w", err)
		}
		for i, dst := range []**float64{
			&s.EC, &s.NH4N, &s.NO3N, &s.TotalNitrogen, &s.NH4PerNitrogen, &s.PH, &s.CaO, &s.MgO, &s.K2O,
			&s.BaseSaturation, &s.CaOPerMgO, &s.MgOPerK2O, &s.PhosphorusAbsorption, &s.P2O5,
			&s.CEC, &s.Humus, &s.BulkDensity,
		} {
			*dst = floatPtr(v[i])
		}
		s.Remark = remark.String
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chemical score rows: %w", err)
	}
	return scores, nil
}

// UpsertLandReview writes the single review of a ledger, replacing an earlier one.
func UpsertLandReview(ctx context.Context, ledgerID int64, comment, remark string) (models.LandReview, error) {
	var review models.LandReview
	err := WithTx(ctx, func(tx *sql.Tx) error {
		ts := now()
		res, err := tx.ExecContext(ctx,
			rebind("UPDATE land_reviews SET comment = ?, remark = ?, updated_at = ? WHERE land_ledger_id = ?"),
			comment, nullString(remark), ts, ledgerID,
		)
		if err != nil {
			return fmt.Errorf("failed to update review of ledger %d: %w", ledgerID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			_, err := insertID(ctx, tx,
				"INSERT INTO land_reviews (comment, remark, land_ledger_id, created_at) VALUES (?, ?, ?, ?)",
				comment, nullString(remark), ledgerID, ts,
			)
			if err != nil {
				return fmt.Errorf("failed to insert review of ledger %d: %w", ledgerID, err)
			}
		}
		r, err := getLandReview(ctx, tx, ledgerID)
		if err != nil {
			return err
		}
		review = *r
		return nil
	})
	if err != nil {
		return models.LandReview{}, err
	}
	return review, nil
}

// GetLandReview returns the review of a ledger, or nil when none was written yet.
func GetLandReview(ctx context.Context, ledgerID int64) (*models.LandReview, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	r, err := getLandReview(ctx, db, ledgerID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return r, err
}

func getLandReview(ctx context.Context, q Querier, ledgerID int64) (*models.LandReview, error) {
	var r models.LandReview
	var remark sql.NullString
	var updatedAt sql.NullTime
	err := q.QueryRowContext(ctx, rebind(`
		SELECT id, comment, remark, land_ledger_id, created_at, updated_at
		FROM land_reviews WHERE land_ledger_id = ?`), ledgerID,
	).Scan(&r.ID, &r.Comment, &remark, &r.LandLedgerID, &r.CreatedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review of ledger %d: %w", ledgerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query review of ledger %d: %w", ledgerID, err)
	}
	r.Remark = remark.String
	r.UpdatedAt = timePtr(updatedAt)
	return &r, nil
}
