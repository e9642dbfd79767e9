// Package perplexity is a thin client for the Perplexity search API.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/errx"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "sonar"
	DefaultTimeout = 30 * time.Second
)

var (
	errorRegistry = errx.NewRegistry("PERPLEXITY")

	ErrAPIRequest = errorRegistry.Register(
		"API_REQUEST_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Failed to make request to Perplexity API",
	)

	ErrAPIUnauthorized = errorRegistry.Register(
		"API_UNAUTHORIZED",
		errx.TypeAuthorization,
		http.StatusUnauthorized,
		"Invalid or missing Perplexity API key",
	)

	ErrAPIResponse = errorRegistry.Register(
		"API_RESPONSE_INVALID",
		errx.TypeExternal,
		http.StatusBadGateway,
		"Invalid response from Perplexity API",
	)
)

// Client calls the Perplexity chat completion endpoint for web search
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Perplexity client. The key is request or server
// scoped; the client holds no other state.
func NewClient(apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: httpClient,
	}
}

// SearchResult is the distilled answer for one search query
type SearchResult struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Search runs one web search query and returns the synthesized answer
func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	payload := chatRequest{
		Model: DefaultModel,
		Messages: []chatMessage{
			{Role: "system", Content: "Answer concisely with sourced facts."},
			{Role: "user", Content: query},
		},
	}

	body, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		return SearchResult{}, err
	}

	var resp chatResponse
	if jsonErr := json.Unmarshal(body, &resp); jsonErr != nil {
		return SearchResult{}, errorRegistry.NewWithCause(ErrAPIResponse, jsonErr)
	}
	if len(resp.Choices) == 0 {
		return SearchResult{}, errorRegistry.New(ErrAPIResponse).
			WithDetail("error", "no choices in response")
	}

	return SearchResult{
		Answer:    resp.Choices[0].Message.Content,
		Citations: resp.Citations,
	}, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrAPIRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
