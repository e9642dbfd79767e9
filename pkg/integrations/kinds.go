// Package integrations composes the per-request tool registry from the
// enabled integration bundles and their connections.
package integrations

import "fmt"

// Kind identifies one integration bundle. The set is closed: unknown
// names coming from a request are rejected during parsing, never carried
// as free-form strings.
type Kind string

const (
	KindNetSuite   Kind = "netsuite"
	KindCeligo     Kind = "celigo"
	KindPerplexity Kind = "perplexity"
	KindGTrends    Kind = "gtrends"
)

// Kinds lists every known integration kind
func Kinds() []Kind {
	return []Kind{KindNetSuite, KindCeligo, KindPerplexity, KindGTrends}
}

// ParseKind validates a request-supplied integration name
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindNetSuite, KindCeligo, KindPerplexity, KindGTrends:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown integration %q", s)
	}
}

// ParseKinds validates a list of request-supplied integration names
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
