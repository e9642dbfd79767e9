package integrations

import (
	"github.com/Abraxas-365/chatstream/pkg/integrations/celigo"
	"github.com/Abraxas-365/chatstream/pkg/integrations/gtrends"
	"github.com/Abraxas-365/chatstream/pkg/integrations/netsuite"
)

// Connections carries the request-scoped credentials for each integration.
// Values arrive with the chat request and live only as long as it does;
// they are captured inside tool closures and never stored globally.
type Connections struct {
	NetSuite   netsuite.Config `json:"netsuite,omitempty"`
	Celigo     celigo.Config   `json:"celigo,omitempty"`
	Perplexity PerplexityConn  `json:"perplexity,omitempty"`
	GTrends    gtrends.Config  `json:"gtrends,omitempty"`
}

// PerplexityConn is a user-supplied Perplexity key overriding the server one
type PerplexityConn struct {
	APIKey string `json:"apiKey"`
}

// Valid reports whether the connection carries a usable key
func (c PerplexityConn) Valid() bool { return c.APIKey != "" }
