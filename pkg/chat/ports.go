package chat

import (
	"context"
	"time"

	"github.com/Abraxas-365/chatstream/pkg/ai/llm"
	"github.com/Abraxas-365/chatstream/pkg/kernel"
)

// Transcript is the persisted outcome of one completed turn
type Transcript struct {
	SessionID kernel.SessionID `json:"sessionId" db:"session_id"`
	UserID    kernel.UserID    `json:"userId" db:"user_id"`
	Messages  []llm.Message    `json:"messages"`
	Usage     llm.Usage        `json:"usage"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

// TranscriptRepo stores and loads session transcripts
type TranscriptRepo interface {
	SaveTurn(ctx context.Context, t Transcript) error
	History(ctx context.Context, sessionID kernel.SessionID) ([]llm.Message, error)
}

// SessionMeta is the cached summary of a recent session
type SessionMeta struct {
	SessionID  kernel.SessionID `json:"sessionId"`
	UserID     kernel.UserID    `json:"userId"`
	LastActive time.Time        `json:"lastActive"`
	TurnCount  int              `json:"turnCount"`
}

// SessionCache keeps hot session metadata with a TTL
type SessionCache interface {
	Touch(ctx context.Context, meta SessionMeta) error
	Get(ctx context.Context, sessionID kernel.SessionID) (SessionMeta, bool, error)
}
