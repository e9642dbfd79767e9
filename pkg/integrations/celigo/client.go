// Package celigo is a thin client for the Celigo integrator.io API.
package celigo

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

const (
	DefaultBaseURL = "https://api.integrator.io/v1"

	// Timeout matches the NetSuite window; flow operations are slow.
	Timeout = 10 * time.Second
)

var (
	errorRegistry = errx.NewRegistry("CELIGO")

	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to Celigo API",
	)

	ErrAPIUnauthorized = errorRegistry.Register(
		"API_UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid Celigo API token",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from Celigo API",
	)

	ErrMissingCredentials = errorRegistry.Register(
		"MISSING_CREDENTIALS",
		errx.TypeValidation,
		http.StatusBadRequest,
		"Celigo API token is required",
	)
)

// Config holds the per-request Celigo connection
type Config struct {
	APIToken string `json:"apiToken"`
}

// Valid reports whether the connection carries a usable token
func (c Config) Valid() bool { return c.APIToken != "" }

// Client talks to one integrator.io account
type Client struct {
	config     Config
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Celigo client
func NewClient(config Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: Timeout}
	}
	return &Client{
		config:     config,
		baseURL:    DefaultBaseURL,
		httpClient: httpClient,
	}
}

// Flow is one integration flow summary
type Flow struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
}

// ListFlows returns the account's integration flows
func (c *Client) ListFlows(ctx context.Context) ([]Flow, error) {
	if !c.config.Valid() {
		return nil, errorRegistry.New(ErrMissingCredentials)
	}

	body, err := c.do(ctx, http.MethodGet, "/flows", nil)
	if err != nil {
		return nil, err
	}

	var flows []Flow
	if jsonErr := json.Unmarshal(body, &flows); jsonErr != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIResponse, jsonErr)
	}
	return flows, nil
}

// RunFlow queues one flow execution and returns the job reference
func (c *Client) RunFlow(ctx context.Context, flowID string) (map[string]any, error) {
	if !c.config.Valid() {
		return nil, errorRegistry.New(ErrMissingCredentials)
	}

	body, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/flows/%s/run", flowID), map[string]any{})
	if err != nil {
		return nil, err
	}

	var job map[string]any
	if jsonErr := json.Unmarshal(body, &job); jsonErr != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIResponse, jsonErr)
	}
	return job, nil
}

// Check verifies the token by listing flows
func (c *Client) Check(ctx context.Context) error {
	_, err := c.ListFlows(ctx)
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
	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)

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
