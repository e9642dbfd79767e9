// Package netsuite is a thin client for the NetSuite SuiteTalk REST API.
package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/errx"
)

// Timeout is wider than the default tool window because SuiteQL queries
// regularly run long.
const Timeout = 10 * time.Second

var (
	errorRegistry = errx.NewRegistry("NETSUITE")

	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to NetSuite API",
	)

	ErrAPIUnauthorized = errorRegistry.Register(
		"API_UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid NetSuite credentials",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from NetSuite API",
	)

	ErrMissingCredentials = errorRegistry.Register(
		"MISSING_CREDENTIALS",
		errx.TypeValidation,
		http.StatusBadRequest,
		"NetSuite account id and token are required",
	)
)

// Config holds the per-request NetSuite connection
type Config struct {
	AccountID   string `json:"accountId"`
	AccessToken string `json:"accessToken"`
}

// Valid reports whether the connection carries usable credentials
func (c Config) Valid() bool {
	return c.AccountID != "" && c.AccessToken != ""
}

// Client talks to one NetSuite account
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a NetSuite client bound to one account
func NewClient(config Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: Timeout}
	}
	return &Client{
		config:     config,
		baseURL:    fmt.Sprintf("https://%s.suitetalk.api.netsuite.com/services/rest", config.AccountID),
		httpClient: httpClient,
	}
}

// QueryResult is one page of SuiteQL rows
type QueryResult struct {
	Items   []map[string]any `json:"items"`
	Count   int              `json:"count"`
	HasMore bool             `json:"hasMore"`
}

// SuiteQL runs one SuiteQL query
func (c *Client) SuiteQL(ctx context.Context, query string) (QueryResult, error) {
	if !c.config.Valid() {
		return QueryResult{}, errorRegistry.New(ErrMissingCredentials)
	}

	body, err := c.do(ctx, http.MethodPost, "/query/v1/suiteql", map[string]string{"q": query})
	if err != nil {
		return QueryResult{}, err
	}

	var result QueryResult
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		return QueryResult{}, errorRegistry.NewWithCause(ErrAPIResponse, jsonErr)
	}
	return result, nil
}

// Record fetches one record by type and internal id
func (c *Client) Record(ctx context.Context, recordType, id string) (map[string]any, error) {
	if !c.config.Valid() {
		return nil, errorRegistry.New(ErrMissingCredentials)
	}

	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/record/v1/%s/%s", recordType, id), nil)
	if err != nil {
		return nil, err
	}

	var record map[string]any
	if jsonErr := json.Unmarshal(body, &record); jsonErr != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIResponse, jsonErr)
	}
	return record, nil
}

// Check verifies the credentials with a minimal query
func (c *Client) Check(ctx context.Context) error {
	_, err := c.SuiteQL(ctx, "SELECT 1 FROM dual")
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, errorRegistry.NewWithCause(ErrAPIRequest, err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	if method == http.MethodPost {
		req.Header.Set("Prefer", "transient")
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
			WithDetail("status_code", resp.StatusCode).
			WithDetail("body", string(respBody))
	}

	return respBody, nil
}
