package trace

import (
	"context"

	"github.com/metalagman/adkfluent/middleware"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Recorder is a middleware unit that persists every observed hook
// invocation through a Store. It never overrides or recovers
// anything, and it owns the store: its Close (the cleanup hook) closes
// the database.
//
// Persistence failures are logged, not propagated; a broken trace
// database must not fail the run it is tracing.
type Recorder struct {
	store *Store
}

// NewRecorder wraps store. The recorder takes ownership.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Store returns the wrapped store, for inspection queries.
func (r *Recorder) Store() *Store { return r.store }

// BeforeAgent persists the agent start. Never overrides.
func (r *Recorder) BeforeAgent(ctx context.Context, inv *middleware.Invocation, agentName string) (*genai.Content, error) {
	r.append(ctx, inv, Record{Hook: "before_agent", Agent: agentName})
	return nil, nil
}

// AfterAgent persists the agent end. Never overrides.
func (r *Recorder) AfterAgent(ctx context.Context, inv *middleware.Invocation, agentName string) (*genai.Content, error) {
	r.append(ctx, inv, Record{Hook: "after_agent", Agent: agentName})
	return nil, nil
}

// BeforeModel persists the outgoing model call. Never overrides.
func (r *Recorder) BeforeModel(ctx context.Context, inv *middleware.Invocation, _ *middleware.ModelRequest) (*middleware.ModelResponse, error) {
	r.append(ctx, inv, Record{Hook: "before_model"})
	return nil, nil
}

// AfterModel persists the model result. Never overrides.
func (r *Recorder) AfterModel(ctx context.Context, inv *middleware.Invocation, _ *middleware.ModelResponse) (*middleware.ModelResponse, error) {
	r.append(ctx, inv, Record{Hook: "after_model"})
	return nil, nil
}

// BeforeTool persists the outgoing tool call. Never overrides.
func (r *Recorder) BeforeTool(ctx context.Context, inv *middleware.Invocation, tool string, _ map[string]any) (map[string]any, error) {
	r.append(ctx, inv, Record{Hook: "before_tool", Tool: tool})
	return nil, nil
}

// AfterTool persists the tool result. Never overrides.
func (r *Recorder) AfterTool(ctx context.Context, inv *middleware.Invocation, tool string, _ map[string]any, _ map[string]any) (map[string]any, error) {
	r.append(ctx, inv, Record{Hook: "after_tool", Tool: tool})
	return nil, nil
}

// OnEvent persists each runner event. Never overrides.
func (r *Recorder) OnEvent(ctx context.Context, inv *middleware.Invocation, content *genai.Content) (*genai.Content, error) {
	detail := ""
	if content != nil && len(content.Parts) > 0 {
		detail = content.Parts[0].Text
	}
	r.append(ctx, inv, Record{Hook: "on_event", Detail: detail})
	return nil, nil
}

// Close closes the trace database. Runs once per adapter teardown.
func (r *Recorder) Close() error {
	return r.store.Close()
}

func (r *Recorder) append(ctx context.Context, inv *middleware.Invocation, rec Record) {
	if inv != nil {
		rec.AppName = inv.AppName
		rec.SessionID = inv.SessionID
		rec.InvocationID = inv.InvocationID
	}
	if err := r.store.Append(ctx, rec); err != nil {
		log.Warn().Err(err).Str("hook", rec.Hook).Msg("trace: append failed")
	}
}
