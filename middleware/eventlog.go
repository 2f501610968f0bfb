package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// detailLimit caps the payload text kept per log entry.
const detailLimit = 160

// Entry is one recorded hook invocation.
type Entry struct {
	Hook   string
	Agent  string
	Tool   string
	Detail string
	Time   time.Time
}

// EventLog observes the model, agent and tool lifecycle and records
// each invocation in an append-only in-memory log. It never overrides
// anything: every hook returns nil. Entries are safe to read while the
// stack is running; Entries returns a snapshot.
type EventLog struct {
	logger zerolog.Logger

	mu      sync.Mutex
	entries []Entry
}

// NewEventLog returns an empty log. Pass zerolog.Nop() to keep it
// silent.
func NewEventLog(logger zerolog.Logger) *EventLog {
	return &EventLog{logger: logger.With().Str("component", "eventlog").Logger()}
}

// Entries returns a copy of the recorded entries in append order.
func (l *EventLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// BeforeAgent records the agent start. Never overrides.
func (l *EventLog) BeforeAgent(_ context.Context, _ *Invocation, agentName string) (*genai.Content, error) {
	l.record(Entry{Hook: "before_agent", Agent: agentName})
	return nil, nil
}

// AfterAgent records the agent end. Never overrides.
func (l *EventLog) AfterAgent(_ context.Context, _ *Invocation, agentName string) (*genai.Content, error) {
	l.record(Entry{Hook: "after_agent", Agent: agentName})
	return nil, nil
}

// BeforeModel records the outgoing model call. Never overrides.
func (l *EventLog) BeforeModel(_ context.Context, _ *Invocation, req *ModelRequest) (*ModelResponse, error) {
	l.record(Entry{Hook: "before_model", Detail: requestText(req)})
	return nil, nil
}

// AfterModel records the model result. Never overrides.
func (l *EventLog) AfterModel(_ context.Context, _ *Invocation, resp *ModelResponse) (*ModelResponse, error) {
	detail := ""
	if resp != nil {
		detail = contentText(resp.Content)
	}
	l.record(Entry{Hook: "after_model", Detail: detail})
	return nil, nil
}

// OnModelError records the model failure. Never recovers.
func (l *EventLog) OnModelError(_ context.Context, _ *Invocation, _ *ModelRequest, callErr error) (*ModelResponse, error) {
	l.record(Entry{Hook: "on_model_error", Detail: errText(callErr)})
	return nil, nil
}

// BeforeTool records the outgoing tool call. Never overrides.
func (l *EventLog) BeforeTool(_ context.Context, _ *Invocation, tool string, args map[string]any) (map[string]any, error) {
	l.record(Entry{Hook: "before_tool", Tool: tool, Detail: truncate(fmt.Sprintf("%v", args))})
	return nil, nil
}

// AfterTool records the tool result. Never overrides.
func (l *EventLog) AfterTool(_ context.Context, _ *Invocation, tool string, _ map[string]any, result map[string]any) (map[string]any, error) {
	l.record(Entry{Hook: "after_tool", Tool: tool, Detail: truncate(fmt.Sprintf("%v", result))})
	return nil, nil
}

// OnToolError records the tool failure. Never recovers.
func (l *EventLog) OnToolError(_ context.Context, _ *Invocation, tool string, _ map[string]any, callErr error) (map[string]any, error) {
	l.record(Entry{Hook: "on_tool_error", Tool: tool, Detail: errText(callErr)})
	return nil, nil
}

func (l *EventLog) record(e Entry) {
	e.Time = time.Now()
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	l.logger.Debug().
		Str("hook", e.Hook).
		Str("agent", e.Agent).
		Str("tool", e.Tool).
		Str("detail", e.Detail).
		Msg("hook observed")
}

func requestText(req *ModelRequest) string {
	if req == nil || len(req.Contents) == 0 {
		return ""
	}
	return contentText(req.Contents[len(req.Contents)-1])
}

func contentText(c *genai.Content) string {
	if c == nil || len(c.Parts) == 0 {
		return ""
	}
	return truncate(c.Parts[0].Text)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return truncate(err.Error())
}

func truncate(s string) string {
	if len(s) <= detailLimit {
		return s
	}
	cut := detailLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
