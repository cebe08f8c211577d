package api

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Page is one decoded API response. The result code semantics are left to
// the caller; "00" is success, "03" means no more data, "22" is the in-band
// rate limit signal.
type Page struct {
	Header Header `json:"header"`
	Body   Body   `json:"body"`
}

// Header carries the API result status.
type Header struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
}

// Body carries the payload of a successful page.
type Body struct {
	TotalCount FlexInt  `json:"totalCount"`
	Items      ItemList `json:"items"`
}

// Item is one raw food record as returned by the API. Values are mostly
// strings but numeric fields occasionally arrive as JSON numbers.
type Item map[string]any

// String returns the item's value for key rendered as a trimmed string.
// Absent values and JSON nulls yield "".
func (it Item) String(key string) string {
	switch v := it[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// ItemList decodes the API's inconsistent items field: a list of objects,
// a single object when exactly one record matches, or absent. Anything else
// decodes as empty rather than failing the page.
type ItemList []Item

// UnmarshalJSON implements json.Unmarshaler.
func (l *ItemList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*l = nil
		return nil
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err == nil {
		*l = items
		return nil
	}

	var single Item
	if err := json.Unmarshal(data, &single); err == nil {
		*l = ItemList{single}
		return nil
	}

	*l = nil
	return nil
}

// FlexInt decodes an integer that the API serializes either as a JSON
// number or as a quoted string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = FlexInt(int(v))
	return nil
}
