// Package normalize converts raw API food items into canonical records.
//
// The API's field values are loosely structured text: numerics carry
// thousands separators, serving sizes embed their unit, and optional
// fields arrive empty or missing. Normalization degrades malformed fields
// to absent values and only drops a record when a required field (code,
// name, calories) is unusable.
package normalize

import (
	"github.com/bodii/kfda-catalog/pkg/api"
	"github.com/bodii/kfda-catalog/pkg/catalog"
)

// Raw field names of interest on a FoodNtrCpntDbInfo02 item.
const (
	fieldFoodCd      = "FOOD_CD"
	fieldName        = "FOOD_NM_KR"
	fieldCalories    = "AMT_NUM1"
	fieldProtein     = "AMT_NUM3"
	fieldFat         = "AMT_NUM4"
	fieldCarbs       = "AMT_NUM6"
	fieldSugar       = "AMT_NUM7"
	fieldFiber       = "AMT_NUM8"
	fieldSodium      = "AMT_NUM13"
	fieldServing     = "Z10500"
	fieldServingAlt  = "SERVING_SIZE"
	fieldGroupName   = "FOOD_CAT1_NM"
	fieldMakerName   = "MAKER_NM"
	fieldDBClass     = "DB_CLASS_CM"
	dbClassRepresent = "01"
)

// Representative reports whether the item carries the classification flag
// marking it as the canonical entry for a food rather than a variant.
func Representative(item api.Item) bool {
	return item.String(fieldDBClass) == dbClassRepresent
}

// Normalize converts one raw item into a canonical record. It returns nil
// when the food code, name, or calories are missing or unparseable. It is
// pure and never errors: malformed optional fields become absent values.
func Normalize(item api.Item) *catalog.Food {
	foodCd := item.String(fieldFoodCd)
	name := item.String(fieldName)
	if foodCd == "" || name == "" {
		return nil
	}

	calories := ParseFloat(item.String(fieldCalories))
	if calories == nil {
		return nil
	}

	servingSize, servingUnit := ParseAmount(item.String(fieldServing))
	if servingSize == nil {
		// Fallback: SERVING_SIZE carries a bare numeric run, no unit.
		servingSize, _ = ParseAmount(item.String(fieldServingAlt))
		servingUnit = ""
	}

	return &catalog.Food{
		FoodCd:        foodCd,
		Name:          name,
		Calories:      *calories,
		Protein:       ParseFloat(item.String(fieldProtein)),
		Fat:           ParseFloat(item.String(fieldFat)),
		Carbohydrates: ParseFloat(item.String(fieldCarbs)),
		Sodium:        ParseFloat(item.String(fieldSodium)),
		Fiber:         ParseFloat(item.String(fieldFiber)),
		Sugar:         ParseFloat(item.String(fieldSugar)),
		ServingSize:   servingSize,
		ServingUnit:   servingUnit,
		GroupName:     item.String(fieldGroupName),
		MakerName:     item.String(fieldMakerName),
	}
}
