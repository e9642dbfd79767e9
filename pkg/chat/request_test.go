package chat_test

import (
	"testing"

	"github.com/Abraxas-365/chatstream/pkg/chat"
)

func TestRequestNormalize_DeduplicatesKeepingFirst(t *testing.T) {
	req := chat.Request{
		Messages: []chat.RequestMessage{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
			{Role: "user", Content: "hello"},
			{Role: "user", Content: "how are you"},
		},
	}

	messages, err := req.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages after dedup, got %d", len(messages))
	}
	if messages[1].Content != "hello" || messages[3].Content != "how are you" {
		t.Fatalf("dedup changed order: %+v", messages)
	}
}

func TestRequestNormalize_SameContentDifferentRoleSurvives(t *testing.T) {
	req := chat.Request{
		Messages: []chat.RequestMessage{
			{Role: "user", Content: "ok"},
			{Role: "assistant", Content: "ok"},
			{Role: "user", Content: "next"},
		},
	}

	messages, err := req.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
}

func TestRequestNormalize_EmptyMessagesRejected(t *testing.T) {
	req := chat.Request{}
	if _, err := req.Normalize(); err == nil {
		t.Fatal("expected error for empty messages")
	}
}

func TestRequestNormalize_BlankLastMessageRejected(t *testing.T) {
	req := chat.Request{
		Messages: []chat.RequestMessage{
			{Role: "user", Content: "hello"},
			{Role: "user", Content: "   \n\t"},
		},
	}
	if _, err := req.Normalize(); err == nil {
		t.Fatal("expected error for blank last message")
	}
}

func TestRequestNormalize_InvalidRoleRejected(t *testing.T) {
	req := chat.Request{
		Messages: []chat.RequestMessage{
			{Role: "tool", Content: "sneaky"},
			{Role: "user", Content: "hello"},
		},
	}
	if _, err := req.Normalize(); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestRequestAddons_RejectsUnknown(t *testing.T) {
	req := chat.Request{EnabledAddons: []string{"netsuite", "warehouse"}}
	if _, err := req.Addons(); err == nil {
		t.Fatal("expected error for unknown addon")
	}

	req = chat.Request{EnabledAddons: []string{"netsuite", "celigo"}}
	kinds, err := req.Addons()
	if err != nil {
		t.Fatalf("Addons() error: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(kinds))
	}
}
