// Package testutil provides testing utilities for the KFDA catalog
// downloader.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// MockResponse defines one scripted response from the mock API.
type MockResponse struct {
	StatusCode int
	Body       string
}

// MockAPI is a configurable mock of the KFDA open-data endpoint. Scripted
// responses are served in order; once the script is exhausted the final
// entry repeats.
type MockAPI struct {
	server *httptest.Server
	mu     sync.Mutex

	script []MockResponse

	// Tracking
	RequestCount int
	PagesSeen    []int
	LastQuery    url.Values
}

// NewMockAPI creates a mock API server with the given response script.
func NewMockAPI(script ...MockResponse) *MockAPI {
	mock := &MockAPI{script: script}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		idx := mock.RequestCount
		mock.RequestCount++
		mock.LastQuery = r.URL.Query()
		if p := r.URL.Query().Get("pageNo"); p != "" {
			var page int
			fmt.Sscanf(p, "%d", &page)
			mock.PagesSeen = append(mock.PagesSeen, page)
		}
		if idx >= len(mock.script) {
			idx = len(mock.script) - 1
		}
		resp := mock.script[idx]
		mock.mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		w.Write([]byte(resp.Body))
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Requests returns the number of requests served.
func (m *MockAPI) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// Pages returns the pageNo values seen, in order.
func (m *MockAPI) Pages() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.PagesSeen...)
}

// PageBody builds a success ("00") response body with the given total
// count and raw items.
func PageBody(totalCount int, items ...map[string]any) string {
	var encoded any
	switch len(items) {
	case 0:
		encoded = []any{}
	default:
		encoded = items
	}
	return envelope("00", "NORMAL SERVICE.", map[string]any{
		"totalCount": totalCount,
		"items":      encoded,
	})
}

// SingleItemBody builds a success response whose items field is a bare
// object rather than a list, mimicking the API's single-match convention.
func SingleItemBody(totalCount int, item map[string]any) string {
	return envelope("00", "NORMAL SERVICE.", map[string]any{
		"totalCount": totalCount,
		"items":      item,
	})
}

// EndBody builds the "no more data" ("03") response.
func EndBody() string {
	return envelope("03", "NODATA_ERROR", nil)
}

// RateLimitBody builds the in-band rate limit ("22") response.
func RateLimitBody() string {
	return envelope("22", "LIMITED_NUMBER_OF_SERVICE_REQUESTS_EXCEEDS_ERROR", nil)
}

// ErrorBody builds a response with an arbitrary result code.
func ErrorBody(code, msg string) string {
	return envelope(code, msg, nil)
}

// XMLBody returns the gateway's XML error page served for bad keys.
func XMLBody() string {
	return `<OpenAPI_ServiceResponse><cmmMsgHeader><returnAuthMsg>SERVICE_KEY_IS_NOT_REGISTERED_ERROR</returnAuthMsg></cmmMsgHeader></OpenAPI_ServiceResponse>`
}

// RepresentativeItem returns a minimal valid raw item flagged as the
// representative entry for its food.
func RepresentativeItem(foodCd, name, calories string) map[string]any {
	return map[string]any{
		"FOOD_CD":     foodCd,
		"FOOD_NM_KR":  name,
		"AMT_NUM1":    calories,
		"DB_CLASS_CM": "01",
	}
}

func envelope(code, msg string, body map[string]any) string {
	payload := map[string]any{
		"header": map[string]any{
			"resultCode": code,
			"resultMsg":  msg,
		},
	}
	if body != nil {
		payload["body"] = body
	}
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return string(data)
}
