// Package gtrends queries Google Trends interest data through SerpApi.
package gtrends

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/errx"
)

const (
	DefaultBaseURL = "https://serpapi.com/search"
	DefaultTimeout = 15 * time.Second
)

var (
	errorRegistry = errx.NewRegistry("GTRENDS")

	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to the trends API",
	)

	ErrAPIUnauthorized = errorRegistry.Register(
		"API_UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid trends API key",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from the trends API",
	)

	ErrMissingCredentials = errorRegistry.Register(
		"MISSING_CREDENTIALS",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Trends API key is required",
	)
)

// Config holds the per-request trends connection
type Config struct {
	APIKey string `json:"apiKey"`
}

// Valid reports whether the connection carries a usable key
func (c Config) Valid() bool { return c.APIKey != "" }

// Client queries interest-over-time data
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a trends client
func NewClient(config Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		config:     config,
		baseURL:    DefaultBaseURL,
		httpClient: httpClient,
	}
}

// InterestPoint is one sampled interest value
type InterestPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

type serpResponse struct {
	InterestOverTime struct {
		TimelineData []struct {
			Date   string `json:"date"`
			Values []struct {
				ExtractedValue int `json:"extracted_value"`
			} `json:"values"`
		} `json:"timeline_data"`
	} `json:"interest_over_time"`
}

// InterestOverTime returns the interest curve for one query term
func (c *Client) InterestOverTime(ctx context.Context, query, geo string) ([]InterestPoint, error) {
	if !c.config.Valid() {
		return nil, errorRegistry.New(ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("engine", "google_trends")
	params.Set("q", query)
	params.Set("data_type", "TIMESERIES")
	params.Set("api_key", c.config.APIKey)
	if geo != "" {
		params.Set("geo", geo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIResponse, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errorRegistry.New(ErrAPIUnauthorized).
			WithDetail("status_code", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, errorRegistry.New(ErrAPIRequest).
			WithDetail("status_code", resp.StatusCode)
	}

	var decoded serpResponse
	if jsonErr := json.Unmarshal(respBody, &decoded); jsonErr != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIResponse, jsonErr)
	}

	points := make([]InterestPoint, 0, len(decoded.InterestOverTime.TimelineData))
	for _, entry := range decoded.InterestOverTime.TimelineData {
		value := 0
		if len(entry.Values) > 0 {
			value = entry.Values[0].ExtractedValue
		}
		points = append(points, InterestPoint{Date: entry.Date, Value: value})
	}
	return points, nil
}
