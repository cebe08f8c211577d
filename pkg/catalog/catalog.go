// Package catalog defines the canonical food record, deduplication, and
// assembly of the final output artifact.
package catalog

import "time"

// Version is the schema version tag written into the artifact.
const Version = 1

// generatedAtLayout renders a local timestamp with an explicit offset
// marker, e.g. "2026-08-25T14:03:01+0900".
const generatedAtLayout = "2006-01-02T15:04:05-0700"

// kst is the zone the artifact timestamps are pinned to. The source data
// is Korean and downstream consumers expect the +0900 marker.
var kst = time.FixedZone("KST", 9*60*60)

// Food is the canonical, normalized per-food record. FoodCd is the natural
// key of the dataset; each value appears at most once in the final output.
// Optional fields are omitted from JSON when absent.
type Food struct {
	FoodCd        string   `json:"foodCd"`
	Name          string   `json:"name"`
	Calories      float64  `json:"calories"`
	Protein       *float64 `json:"protein,omitempty"`
	Fat           *float64 `json:"fat,omitempty"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty"`
	Sodium        *float64 `json:"sodium,omitempty"`
	Fiber         *float64 `json:"fiber,omitempty"`
	Sugar         *float64 `json:"sugar,omitempty"`
	ServingSize   *float64 `json:"servingSize,omitempty"`
	ServingUnit   string   `json:"servingUnit,omitempty"`
	GroupName     string   `json:"groupName,omitempty"`
	MakerName     string   `json:"makerName,omitempty"`
}

// Catalog is the final output payload handed to the artifact writer.
type Catalog struct {
	Version     int    `json:"version"`
	GeneratedAt string `json:"generatedAt"`
	TotalCount  int    `json:"totalCount"`
	Foods       []Food `json:"foods"`
}

// Dedupe removes repeated records by FoodCd in a single pass, keeping the
// first occurrence and preserving order. Records with an empty FoodCd are
// dropped; normalization guarantees they never occur, but the function
// must not keep an undeduplicatable record if one slips through.
func Dedupe(foods []Food) []Food {
	seen := make(map[string]struct{}, len(foods))
	unique := make([]Food, 0, len(foods))
	for _, f := range foods {
		if f.FoodCd == "" {
			continue
		}
		if _, ok := seen[f.FoodCd]; ok {
			continue
		}
		seen[f.FoodCd] = struct{}{}
		unique = append(unique, f)
	}
	return unique
}

// Assemble wraps an already-deduplicated record set with the artifact
// metadata. Validation happened upstream; this is structural only.
func Assemble(foods []Food, now time.Time) Catalog {
	return Catalog{
		Version:     Version,
		GeneratedAt: now.In(kst).Format(generatedAtLayout),
		TotalCount:  len(foods),
		Foods:       foods,
	}
}
