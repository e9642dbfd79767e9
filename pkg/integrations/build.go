package integrations

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm/toolx"
	"github.com/Abraxas-365/chatstream/pkg/integrations/celigo"
	"github.com/Abraxas-365/chatstream/pkg/integrations/gtrends"
	"github.com/Abraxas-365/chatstream/pkg/integrations/netsuite"
	"github.com/Abraxas-365/chatstream/pkg/integrations/perplexity"
	"github.com/Abraxas-365/chatstream/pkg/logx"
)

// Deps are the server-side dependencies of the registry builder
type Deps struct {
	// PerplexityAPIKey is the server key backing the baseline search tool
	PerplexityAPIKey string

	// HTTPClient is shared by the integration clients; nil uses each
	// client's default.
	HTTPClient *http.Client
}

// Build composes the tool registry for one request. Baseline tools are
// always present; each enabled integration contributes its bundle only
// when its connection's credential check passes. A failing check logs a
// warning and the bundle is omitted, the turn itself proceeds.
func Build(ctx context.Context, enabled []Kind, conns Connections, deps Deps) *toolx.Registry {
	registry := toolx.NewRegistry()

	registerBaseline(registry, conns, deps)

	for _, kind := range enabled {
		switch kind {
		case KindNetSuite:
			registerNetSuite(ctx, registry, conns.NetSuite, deps)
		case KindCeligo:
			registerCeligo(ctx, registry, conns.Celigo, deps)
		case KindPerplexity:
			registerPerplexity(registry, conns.Perplexity, deps)
		case KindGTrends:
			registerGTrends(registry, conns.GTrends, deps)
		}
	}

	return registry
}

func registerBaseline(registry *toolx.Registry, conns Connections, deps Deps) {
	registry.Register(thinkTool())

	key := deps.PerplexityAPIKey
	if conns.Perplexity.Valid() {
		key = conns.Perplexity.APIKey
	}
	if key == "" {
		logx.Warn("search tool disabled: no Perplexity API key configured")
		return
	}
	registry.Register(searchTool(perplexity.NewClient(key, deps.HTTPClient)))
}

// thinkTool is a local scratchpad: the model writes its plan, the tool
// acknowledges. No side effects.
func thinkTool() toolx.Tool {
	return toolx.NewTool(
		"think",
		"Record a private reasoning step before acting. Use it to plan multi-step work.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"thought": map[string]any{
					"type":        "string",
					"description": "The reasoning step to record",
				},
			},
			"required": []string{"thought"},
		},
		func(ctx context.Context, args string) (any, error) {
			var input struct {
				Thought string `json:"thought"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil {
				return nil, toolx.ValidationFailed("invalid think arguments: " + err.Error())
			}
			return map[string]any{"acknowledged": true}, nil
		},
	)
}

func searchTool(client *perplexity.Client) toolx.Tool {
	return toolx.NewTool(
		"search",
		"Search the web and return a sourced answer.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args string) (any, error) {
			var input struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil || input.Query == "" {
				return nil, toolx.ValidationFailed("search requires a non-empty query")
			}
			return client.Search(ctx, input.Query)
		},
	)
}

func registerNetSuite(ctx context.Context, registry *toolx.Registry, config netsuite.Config, deps Deps) {
	if !config.Valid() {
		logx.WithFields(logx.Fields{"integration": KindNetSuite}).
			Warn("integration enabled without credentials, omitting")
		return
	}

	client := netsuite.NewClient(config, deps.HTTPClient)
	if err := client.Check(ctx); err != nil {
		logx.WithFields(logx.Fields{"integration": KindNetSuite}).
			WithError(err).Warn("credential check failed, omitting integration")
		return
	}

	registry.RegisterWithTimeout(toolx.NewTool(
		"netsuite_query",
		"Run a SuiteQL query against the connected NetSuite account.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The SuiteQL statement to run",
				},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args string) (any, error) {
			var input struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil || input.Query == "" {
				return nil, toolx.ValidationFailed("netsuite_query requires a non-empty query")
			}
			return client.SuiteQL(ctx, input.Query)
		},
	), netsuite.Timeout)

	registry.RegisterWithTimeout(toolx.NewTool(
		"netsuite_record",
		"Fetch one NetSuite record by type and internal id.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recordType": map[string]any{
					"type":        "string",
					"description": "Record type, e.g. salesOrder or customer",
				},
				"id": map[string]any{
					"type":        "string",
					"description": "Internal id of the record",
				},
			},
			"required": []string{"recordType", "id"},
		},
		func(ctx context.Context, args string) (any, error) {
			var input struct {
				RecordType string `json:"recordType"`
				ID         string `json:"id"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil ||
				input.RecordType == "" || input.ID == "" {
				return nil, toolx.ValidationFailed("netsuite_record requires recordType and id")
			}
			return client.Record(ctx, input.RecordType, input.ID)
		},
	), netsuite.Timeout)
}

func registerCeligo(ctx context.Context, registry *toolx.Registry, config celigo.Config, deps Deps) {
	if !config.Valid() {
		logx.WithFields(logx.Fields{"integration": KindCeligo}).
			Warn("integration enabled without credentials, omitting")
		return
	}

	client := celigo.NewClient(config, deps.HTTPClient)
	if err := client.Check(ctx); err != nil {
		logx.WithFields(logx.Fields{"integration": KindCeligo}).
			WithError(err).Warn("credential check failed, omitting integration")
		return
	}

	registry.RegisterWithTimeout(toolx.NewTool(
		"celigo_list_flows",
		"List the integration flows of the connected Celigo account.",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		func(ctx context.Context, args string) (any, error) {
			return client.ListFlows(ctx)
		},
	), celigo.Timeout)

	registry.RegisterWithTimeout(toolx.NewTool(
		"celigo_run_flow",
		"Queue one Celigo integration flow for execution.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"flowId": map[string]any{
					"type":        "string",
					"description": "The id of the flow to run",
				},
			},
			"required": []string{"flowId"},
		},
		func(ctx context.Context, args string) (any, error) {
			var input struct {
				FlowID string `json:"flowId"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil || input.FlowID == "" {
				return nil, toolx.ValidationFailed("celigo_run_flow requires flowId")
			}
			return client.RunFlow(ctx, input.FlowID)
		},
	), celigo.Timeout)
}

func registerPerplexity(registry *toolx.Registry, conn PerplexityConn, deps Deps) {
	if !conn.Valid() {
		logx.WithFields(logx.Fields{"integration": KindPerplexity}).
			Warn("integration enabled without credentials, omitting")
		return
	}

	client := perplexity.NewClient(conn.APIKey, deps.HTTPClient)
	registry.Register(toolx.NewTool(
		"perplexity_search",
		"Search the web with the user's own Perplexity account.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query",
				},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args string) (any, error) {
			var input struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil || input.Query == "" {
				return nil, toolx.ValidationFailed("perplexity_search requires a non-empty query")
			}
			return client.Search(ctx, input.Query)
		},
	))
}

func registerGTrends(registry *toolx.Registry, config gtrends.Config, deps Deps) {
	if !config.Valid() {
		logx.WithFields(logx.Fields{"integration": KindGTrends}).
			Warn("integration enabled without credentials, omitting")
		return
	}

	client := gtrends.NewClient(config, deps.HTTPClient)
	registry.Register(toolx.NewTool(
		"trends_interest",
		"Fetch Google Trends interest-over-time for a search term.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The term to chart",
				},
				"geo": map[string]any{
					"type":        "string",
					"description": "Optional two-letter country code",
				},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args string) (any, error) {
			var input struct {
				Query string `json:"query"`
				Geo   string `json:"geo"`
			}
			if err := json.Unmarshal([]byte(args), &input); err != nil || input.Query == "" {
				return nil, toolx.ValidationFailed("trends_interest requires a non-empty query")
			}
			return client.InterestOverTime(ctx, input.Query, input.Geo)
		},
	))
}
