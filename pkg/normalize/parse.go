package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches a leading numeric run (digits, commas, dots)
// followed by optional unit text, e.g. "900.000g" or "500".
var amountPattern = regexp.MustCompile(`^([\d,.]+)\s*(.*)$`)

// ParseFloat converts a loosely formatted numeric string into a value
// rounded to 2 decimal places. Absent, empty, and unparseable input all
// yield nil; the function never errors. Thousands separators are stripped.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return nil
	}
	rounded := math.Round(v*100) / 100
	return &rounded
}

// ParseAmount splits a serving descriptor of the form <number><unit text>
// into an amount and a unit, e.g. "900.000g" -> 900, "g". The unit is only
// reported when the amount parses; input with no leading numeric run
// yields (nil, "").
func ParseAmount(s string) (*float64, string) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, ""
	}
	amount := ParseFloat(m[1])
	if amount == nil {
		return nil, ""
	}
	return amount, strings.TrimSpace(m[2])
}
