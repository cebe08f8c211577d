package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodii/kfda-catalog/internal/testutil"
	"github.com/bodii/kfda-catalog/pkg/catalog"
)

func setupRun(t *testing.T, mock *testutil.MockAPI) string {
	t.Helper()

	t.Setenv("KFDA_API_KEY", "test-key")
	t.Setenv("KFDA_BASE_URL", mock.URL())
	t.Setenv("KFDA_PAGE_DELAY", "0s")
	t.Setenv("KFDA_RETRY_BACKOFF", "0s")
	t.Setenv("KFDA_RATE_LIMIT_WAIT", "0s")
	t.Setenv("KFDA_LOG_LEVEL", "error")

	return filepath.Join(t.TempDir(), "foods.json")
}

func readArtifact(t *testing.T, path string) catalog.Catalog {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var cat catalog.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	return cat
}

func TestRun_InvalidArgs(t *testing.T) {
	if code := run([]string{"-no-such-flag"}); code != ExitInvalidArgs {
		t.Errorf("exit code = %d, want %d", code, ExitInvalidArgs)
	}
}

func TestRun_MissingAPIKey(t *testing.T) {
	t.Setenv("KFDA_API_KEY", "")

	if code := run([]string{"-output", filepath.Join(t.TempDir(), "out.json")}); code != ExitInvalidArgs {
		t.Errorf("exit code = %d, want %d", code, ExitInvalidArgs)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	item := testutil.RepresentativeItem("D101-004160000-0001", "사과", "52")
	item["AMT_NUM3"] = "0.3"
	item["Z10500"] = "900.000g"
	mock := testutil.NewMockAPI(
		testutil.MockResponse{StatusCode: http.StatusOK, Body: testutil.PageBody(150, item)},
		testutil.MockResponse{StatusCode: http.StatusOK, Body: testutil.ErrorBody("03", "NODATA_ERROR")},
	)
	defer mock.Close()

	output := setupRun(t, mock)

	if code := run([]string{"-output", output}); code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}

	cat := readArtifact(t, output)
	if cat.Version != 1 {
		t.Errorf("version = %d, want 1", cat.Version)
	}
	if cat.TotalCount != 1 {
		t.Errorf("totalCount = %d, want 1", cat.TotalCount)
	}
	if len(cat.Foods) != 1 {
		t.Fatalf("foods len = %d, want 1", len(cat.Foods))
	}

	f := cat.Foods[0]
	if f.FoodCd != "D101-004160000-0001" {
		t.Errorf("foodCd = %q", f.FoodCd)
	}
	if f.Name != "사과" {
		t.Errorf("name = %q", f.Name)
	}
	if f.Calories != 52 {
		t.Errorf("calories = %v, want 52", f.Calories)
	}
	if f.Protein == nil || *f.Protein != 0.3 {
		t.Errorf("protein = %v, want 0.3", f.Protein)
	}
	if f.ServingSize == nil || *f.ServingSize != 900 {
		t.Errorf("servingSize = %v, want 900", f.ServingSize)
	}
	if f.ServingUnit != "g" {
		t.Errorf("servingUnit = %q, want g", f.ServingUnit)
	}

	if got := mock.Pages(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("pages fetched = %v, want [1 2]", got)
	}
}

func TestRun_DeduplicatesRepeatedFoodCd(t *testing.T) {
	dup := testutil.RepresentativeItem("D000-1", "중복", "10")
	mock := testutil.NewMockAPI(
		testutil.MockResponse{StatusCode: http.StatusOK, Body: testutil.PageBody(150, dup, dup)},
		testutil.MockResponse{StatusCode: http.StatusOK, Body: testutil.ErrorBody("03", "NODATA_ERROR")},
	)
	defer mock.Close()

	output := setupRun(t, mock)

	if code := run([]string{"-output", output}); code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}

	cat := readArtifact(t, output)
	if cat.TotalCount != 1 {
		t.Errorf("totalCount = %d, want 1 after dedup", cat.TotalCount)
	}
}

func TestRun_NoRecords(t *testing.T) {
	mock := testutil.NewMockAPI(
		testutil.MockResponse{StatusCode: http.StatusOK, Body: testutil.EndBody()},
	)
	defer mock.Close()

	output := setupRun(t, mock)

	if code := run([]string{"-output", output}); code != ExitNoRecords {
		t.Errorf("exit code = %d, want %d", code, ExitNoRecords)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Error("no artifact should be written when zero records survive")
	}
}

func TestRun_SQLiteExport(t *testing.T) {
	mock := testutil.NewMockAPI(
		testutil.MockResponse{
			StatusCode: http.StatusOK,
			Body:       testutil.PageBody(150, testutil.RepresentativeItem("D000-1", "사과", "52")),
		},
		testutil.MockResponse{StatusCode: http.StatusOK, Body: testutil.EndBody()},
	)
	defer mock.Close()

	output := setupRun(t, mock)
	dbPath := filepath.Join(t.TempDir(), "foods.db")

	if code := run([]string{"-output", output, "-sqlite", dbPath}); code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("sqlite database missing: %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.input); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
