// Package store exports the assembled catalog into a SQLite database so
// downstream applications get an indexed offline lookup table in addition
// to the JSON artifact.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/bodii/kfda-catalog/pkg/catalog"
)

const schema = `
DROP TABLE IF EXISTS foods;
DROP TABLE IF EXISTS meta;

CREATE TABLE meta (
	version      INTEGER NOT NULL,
	generated_at TEXT NOT NULL,
	total_count  INTEGER NOT NULL
);

CREATE TABLE foods (
	food_cd       TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	calories      REAL NOT NULL,
	protein       REAL,
	fat           REAL,
	carbohydrates REAL,
	sodium        REAL,
	fiber         REAL,
	sugar         REAL,
	serving_size  REAL,
	serving_unit  TEXT,
	group_name    TEXT,
	maker_name    TEXT
);
`

// Export writes the catalog to a SQLite database at path, replacing any
// existing tables. The whole export runs in one transaction.
func Export(ctx context.Context, path string, cat catalog.Catalog) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (version, generated_at, total_count) VALUES (?, ?, ?)`,
		cat.Version, cat.GeneratedAt, cat.TotalCount,
	); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO foods (
		food_cd, name, calories, protein, fat, carbohydrates,
		sodium, fiber, sugar, serving_size, serving_unit, group_name, maker_name
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range cat.Foods {
		if _, err := stmt.ExecContext(ctx,
			f.FoodCd, f.Name, f.Calories,
			nullFloat(f.Protein), nullFloat(f.Fat), nullFloat(f.Carbohydrates),
			nullFloat(f.Sodium), nullFloat(f.Fiber), nullFloat(f.Sugar),
			nullFloat(f.ServingSize), nullString(f.ServingUnit),
			nullString(f.GroupName), nullString(f.MakerName),
		); err != nil {
			return fmt.Errorf("insert food %s: %w", f.FoodCd, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
