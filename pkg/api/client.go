// Package api provides the KFDA open-data HTTP client that fetches one
// page of food nutrition records per request.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the FoodNtrCpntDbInfo02 inquiry endpoint on the Korean
// public data portal.
const DefaultBaseURL = "https://apis.data.go.kr/1471000/FoodNtrCpntDbInfo02/getFoodNtrCpntDbInq02"

// MaxPageSize is the largest page the API accepts.
const MaxPageSize = 100

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kfda_api_requests_total",
		Help: "Total API page requests by outcome",
	}, []string{"outcome"})

	apiRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kfda_api_request_duration_seconds",
		Help:    "API page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kfda_api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// ServiceKey is the data.go.kr access key (REQUIRED). Keys are issued
	// pre-encoded, so it is appended to the query string verbatim.
	ServiceKey string

	// BaseURL is the API endpoint. Overridden in tests.
	BaseURL string

	// PageSize is the number of records per page, capped at MaxPageSize.
	PageSize int

	// Timeout is the per-request connection/read timeout.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(serviceKey string) Config {
	return Config{
		ServiceKey: serviceKey,
		BaseURL:    DefaultBaseURL,
		PageSize:   MaxPageSize,
		Timeout:    30 * time.Second,
	}
}

// Client fetches pages of raw food records from the KFDA API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("service key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = MaxPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "kfda-api").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// FetchPage issues one GET request for the given 1-based page number and
// decodes the JSON envelope. It does not interpret the in-band result code;
// that is the download loop's job.
func (c *Client) FetchPage(ctx context.Context, pageNo int) (*Page, error) {
	startTime := time.Now()
	defer func() {
		apiRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(pageNo), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Int("page", pageNo).Msg("HTTP request failed")
		apiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		apiRequestsTotal.WithLabelValues("network_error").Inc()
		return nil, &APIError{
			Class:   ErrorClassTransport,
			Message: fmt.Sprintf("fetch page %d", pageNo),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.logger.Warn().
			Int("page", pageNo).
			Int("status", resp.StatusCode).
			Msg("API request error")
		apiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		apiRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &APIError{
			Class:      ErrorClassTransport,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		apiRequestsTotal.WithLabelValues("read_error").Inc()
		return nil, &APIError{
			Class:   ErrorClassTransport,
			Message: fmt.Sprintf("read page %d body", pageNo),
			Err:     err,
		}
	}

	// The gateway serves an XML error page when the key is rejected.
	if isXMLBody(body) {
		c.logger.Error().Int("page", pageNo).Msg("API returned XML - check service key")
		apiErrorsTotal.WithLabelValues(string(ErrorClassAuth)).Inc()
		apiRequestsTotal.WithLabelValues("auth_error").Inc()
		return nil, &APIError{
			Class:   ErrorClassAuth,
			Message: "response is XML, not JSON",
			Err:     ErrInvalidServiceKey,
		}
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		apiRequestsTotal.WithLabelValues("decode_error").Inc()
		return nil, &APIError{
			Class:   ErrorClassTransport,
			Message: fmt.Sprintf("decode page %d", pageNo),
			Err:     err,
		}
	}

	apiRequestsTotal.WithLabelValues("ok").Inc()
	c.logger.Debug().
		Int("page", pageNo).
		Str("result_code", page.Header.ResultCode).
		Int("items", len(page.Body.Items)).
		Msg("Fetched page")

	return &page, nil
}

// PageSize returns the configured page size.
func (c *Client) PageSize() int {
	return c.config.PageSize
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// pageURL builds the request URL. The service key is appended verbatim
// because the portal issues it already percent-encoded.
func (c *Client) pageURL(pageNo int) string {
	params := url.Values{}
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("numOfRows", strconv.Itoa(c.config.PageSize))
	params.Set("type", "json")
	return fmt.Sprintf("%s?serviceKey=%s&%s", c.config.BaseURL, c.config.ServiceKey, params.Encode())
}

func isXMLBody(body []byte) bool {
	for _, b := range body {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '<':
			return true
		default:
			return false
		}
	}
	return false
}
