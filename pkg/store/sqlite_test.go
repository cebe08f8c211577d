package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/bodii/kfda-catalog/pkg/catalog"
)

func ptr(v float64) *float64 { return &v }

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		Version:     catalog.Version,
		GeneratedAt: "2026-08-25T12:00:00+0900",
		TotalCount:  2,
		Foods: []catalog.Food{
			{
				FoodCd:        "D101-004160000-0001",
				Name:          "사과",
				Calories:      52,
				Protein:       ptr(0.3),
				Fat:           ptr(0.2),
				Carbohydrates: ptr(13.8),
				ServingSize:   ptr(100),
				ServingUnit:   "g",
				GroupName:     "과일류",
			},
			{
				FoodCd:   "D101-004160000-0002",
				Name:     "물",
				Calories: 0,
			},
		},
	}
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foods.db")

	if err := Export(context.Background(), path, testCatalog()); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open exported db: %v", err)
	}
	defer db.Close()

	var version, totalCount int
	var generatedAt string
	row := db.QueryRow(`SELECT version, generated_at, total_count FROM meta`)
	if err := row.Scan(&version, &generatedAt, &totalCount); err != nil {
		t.Fatalf("read meta: %v", err)
	}
	if version != catalog.Version {
		t.Errorf("meta.version = %d, want %d", version, catalog.Version)
	}
	if generatedAt != "2026-08-25T12:00:00+0900" {
		t.Errorf("meta.generated_at = %q", generatedAt)
	}
	if totalCount != 2 {
		t.Errorf("meta.total_count = %d, want 2", totalCount)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM foods`).Scan(&count); err != nil {
		t.Fatalf("count foods: %v", err)
	}
	if count != 2 {
		t.Errorf("foods count = %d, want 2", count)
	}
}

func TestExport_AbsentFieldsAreNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foods.db")

	if err := Export(context.Background(), path, testCatalog()); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open exported db: %v", err)
	}
	defer db.Close()

	var protein sql.NullFloat64
	var makerName sql.NullString
	row := db.QueryRow(`SELECT protein, maker_name FROM foods WHERE food_cd = ?`, "D101-004160000-0002")
	if err := row.Scan(&protein, &makerName); err != nil {
		t.Fatalf("read food: %v", err)
	}
	if protein.Valid {
		t.Errorf("protein = %v, want NULL", protein.Float64)
	}
	if makerName.Valid {
		t.Errorf("maker_name = %q, want NULL", makerName.String)
	}

	row = db.QueryRow(`SELECT protein FROM foods WHERE food_cd = ?`, "D101-004160000-0001")
	if err := row.Scan(&protein); err != nil {
		t.Fatalf("read food: %v", err)
	}
	if !protein.Valid || protein.Float64 != 0.3 {
		t.Errorf("protein = %+v, want 0.3", protein)
	}
}

func TestExport_ReplacesExistingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foods.db")
	ctx := context.Background()

	if err := Export(ctx, path, testCatalog()); err != nil {
		t.Fatalf("first Export() failed: %v", err)
	}

	second := testCatalog()
	second.Foods = second.Foods[:1]
	second.TotalCount = 1
	if err := Export(ctx, path, second); err != nil {
		t.Fatalf("second Export() failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open exported db: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM foods`).Scan(&count); err != nil {
		t.Fatalf("count foods: %v", err)
	}
	if count != 1 {
		t.Errorf("foods count = %d, want 1 after re-export", count)
	}
}
