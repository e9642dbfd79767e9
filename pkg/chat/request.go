package chat

import (
	"strings"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/errx"
	"github.com/Abraxas-365/chatstream/pkg/integrations"
)

// Request is the body of one chat turn
type Request struct {
	ID            string                   `json:"id"`
	Messages      []RequestMessage         `json:"messages"`
	EnabledAddons []string                 `json:"enabledAddons"`
	Connections   integrations.Connections `json:"connections"`
	ReasoningMode bool                     `json:"reasoningMode"`
}

// RequestMessage is one prior message sent by the client
type RequestMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Normalize validates the request and returns the deduplicated message
// history. Duplicate (role, content) pairs keep only their first
// occurrence; clients that resend accumulated history after reconnects
// produce these routinely. The surviving last message must carry text.
func (r Request) Normalize() ([]llm.Message, *errx.Error) {
	if len(r.Messages) == 0 {
		return nil, errorRegistry.New(ErrEmptyMessages)
	}

	type key struct{ role, content string }
	seen := make(map[key]bool, len(r.Messages))

	messages := make([]llm.Message, 0, len(r.Messages))
	for i, msg := range r.Messages {
		switch msg.Role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			return nil, errorRegistry.New(ErrInvalidRole).
				WithDetail("index", i).
				WithDetail("role", msg.Role)
		}

		k := key{role: msg.Role, content: msg.Content}
		if seen[k] {
			continue
		}
		seen[k] = true
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	if strings.TrimSpace(messages[len(messages)-1].Content) == "" {
		return nil, errorRegistry.New(ErrBlankLastMessage)
	}

	return messages, nil
}

// Addons parses the enabled integration names into the closed kind set
func (r Request) Addons() ([]integrations.Kind, *errx.Error) {
	kinds, err := integrations.ParseKinds(r.EnabledAddons)
	if err != nil {
		return nil, errorRegistry.NewWithCause(ErrUnknownIntegration, err)
	}
	return kinds, nil
}
