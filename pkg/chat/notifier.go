package chat

import (
	"context"

	"github.com/Abraxas-365/chatstream/pkg/kernel"
	"github.com/Abraxas-365/chatstream/pkg/logx"
	"github.com/Abraxas-365/chatstream/pkg/streamx"
)

// Notifier receives side-channel annotations about a running turn. The
// channel is best effort: implementations must not block the stream, and
// dropped notifications are acceptable.
type Notifier interface {
	ToolFinished(ctx context.Context, sessionID kernel.SessionID, record *streamx.ToolCallRecord)
	SafetyAssessed(ctx context.Context, sessionID kernel.SessionID, assessment streamx.SafetyAssessment)
}

// LogNotifier writes annotations to the structured log
type LogNotifier struct{}

func (LogNotifier) ToolFinished(ctx context.Context, sessionID kernel.SessionID, record *streamx.ToolCallRecord) {
	entry := logx.WithFields(logx.Fields{
		"session": sessionID,
		"tool":    record.Name,
		"call_id": record.ID,
		"state":   record.State,
	})
	if record.Result != nil && !record.Result.OK() {
		entry.Warnf("tool call failed: %s", record.Result.Error.Message)
		return
	}
	entry.Debug("tool call finished")
}

func (LogNotifier) SafetyAssessed(ctx context.Context, sessionID kernel.SessionID, assessment streamx.SafetyAssessment) {
	if assessment.OverallLevel == streamx.RiskLow && !assessment.HasBlockedContent {
		return
	}
	logx.WithFields(logx.Fields{
		"session": sessionID,
		"score":   assessment.OverallScore,
		"level":   assessment.OverallLevel,
		"blocked": assessment.HasBlockedContent,
	}).Warn("elevated safety assessment")
}
