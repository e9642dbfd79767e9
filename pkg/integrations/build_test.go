package integrations_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/chatstream/pkg/integrations"
)

func TestBuild_BaselineAlwaysPresent(t *testing.T) {
	registry := integrations.Build(context.Background(), nil,
		integrations.Connections{},
		integrations.Deps{PerplexityAPIKey: "server-key"})

	if _, ok := registry.Get("think"); !ok {
		t.Fatal("think tool must always be registered")
	}
	if _, ok := registry.Get("search"); !ok {
		t.Fatal("search tool must be registered when a server key exists")
	}
}

func TestBuild_SearchOmittedWithoutKey(t *testing.T) {
	registry := integrations.Build(context.Background(), nil,
		integrations.Connections{},
		integrations.Deps{})

	if _, ok := registry.Get("search"); ok {
		t.Fatal("search tool must be omitted without any Perplexity key")
	}
	if _, ok := registry.Get("think"); !ok {
		t.Fatal("think tool must survive a missing search key")
	}
}

func TestBuild_IntegrationWithoutCredentialsOmitted(t *testing.T) {
	registry := integrations.Build(context.Background(),
		[]integrations.Kind{integrations.KindNetSuite, integrations.KindCeligo, integrations.KindGTrends},
		integrations.Connections{},
		integrations.Deps{PerplexityAPIKey: "server-key"})

	for _, name := range []string{"netsuite_query", "netsuite_record", "celigo_list_flows", "celigo_run_flow", "trends_interest"} {
		if _, ok := registry.Get(name); ok {
			t.Fatalf("tool %s must be omitted without credentials", name)
		}
	}
	if registry.Len() != 2 {
		t.Fatalf("expected only the baseline tools, got %d", registry.Len())
	}
}

func TestParseKinds_RejectsUnknown(t *testing.T) {
	if _, err := integrations.ParseKinds([]string{"netsuite", "smtp"}); err == nil {
		t.Fatal("unknown integration names must be rejected")
	}

	kinds, err := integrations.ParseKinds([]string{"netsuite", "gtrends"})
	if err != nil {
		t.Fatalf("valid names must parse: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != integrations.KindNetSuite {
		t.Fatalf("unexpected kinds %v", kinds)
	}
}
