// Package middleware defines the hook protocol for observing and
// intercepting the lifecycle of a compiled application, the ordered
// stack that executes hooks, and the adapter that bridges the stack to
// the host runtime's plugin surface.
//
// A middleware unit is any value. It takes part in a lifecycle point by
// implementing the matching hook interface; a unit that implements none
// of them is valid and simply never invoked. Hook signatures use
// simplified shapes so that unit authors never depend on the host
// runtime's native context, request or response types.
package middleware

import (
	"context"

	"google.golang.org/genai"
)

// Middleware is a unit participating in the lifecycle of a compiled
// application. Conformance is structural: implement any subset of the
// hook interfaces below. Units are shared by reference when a builder
// node is reused; the same instance may appear in several stacks.
type Middleware any

// Invocation identifies one runner invocation in simplified form.
// Fields may be empty when a hook fires outside the scope that would
// populate them (InvocationID is unset for runner-level hooks fired
// before an invocation exists).
type Invocation struct {
	AppName      string
	SessionID    string
	InvocationID string
}

// ModelRequest is the simplified view of an outgoing model call.
type ModelRequest struct {
	Contents []*genai.Content
}

// ModelResponse is the simplified view of a model result. A non-nil
// ModelResponse returned from a control hook overrides the host value.
type ModelResponse struct {
	Content *genai.Content
}

// UserMessageHook intercepts the user message before a run starts.
// A non-nil result replaces the message handed to the runner.
type UserMessageHook interface {
	OnUserMessage(ctx context.Context, inv *Invocation, message *genai.Content) (*genai.Content, error)
}

// RunStartHook fires before the runner starts. A non-nil result skips
// the run entirely and is surfaced as the run's only output.
type RunStartHook interface {
	BeforeRun(ctx context.Context, inv *Invocation) (*genai.Content, error)
}

// EventHook observes every event the runner yields. A non-nil result
// replaces the event's content.
type EventHook interface {
	OnEvent(ctx context.Context, inv *Invocation, content *genai.Content) (*genai.Content, error)
}

// RunEndHook fires after the runner finished. Fan-out: every
// implementer runs regardless of earlier results.
type RunEndHook interface {
	AfterRun(ctx context.Context, inv *Invocation) error
}

// AgentStartHook fires before an agent boundary. A non-nil result
// skips the agent and is yielded in its place.
type AgentStartHook interface {
	BeforeAgent(ctx context.Context, inv *Invocation, agentName string) (*genai.Content, error)
}

// AgentEndHook fires after an agent boundary. A non-nil result is
// appended as an extra event after the agent's own output.
type AgentEndHook interface {
	AfterAgent(ctx context.Context, inv *Invocation, agentName string) (*genai.Content, error)
}

// ModelStartHook fires before a model call. A non-nil result is used
// instead of calling the model.
type ModelStartHook interface {
	BeforeModel(ctx context.Context, inv *Invocation, req *ModelRequest) (*ModelResponse, error)
}

// ModelEndHook fires after a model call. A non-nil result replaces the
// model's response.
type ModelEndHook interface {
	AfterModel(ctx context.Context, inv *Invocation, resp *ModelResponse) (*ModelResponse, error)
}

// ModelErrorHook fires when a model call failed. A non-nil result
// recovers the call; a nil result lets the error continue.
type ModelErrorHook interface {
	OnModelError(ctx context.Context, inv *Invocation, req *ModelRequest, callErr error) (*ModelResponse, error)
}

// ToolStartHook fires before a tool call. A non-nil result is used as
// the tool result without invoking the tool.
type ToolStartHook interface {
	BeforeTool(ctx context.Context, inv *Invocation, tool string, args map[string]any) (map[string]any, error)
}

// ToolEndHook fires after a tool call. A non-nil result replaces the
// tool's result.
type ToolEndHook interface {
	AfterTool(ctx context.Context, inv *Invocation, tool string, args map[string]any, result map[string]any) (map[string]any, error)
}

// ToolErrorHook fires when a tool call failed. A non-nil result
// recovers the call; a nil result lets the error continue.
type ToolErrorHook interface {
	OnToolError(ctx context.Context, inv *Invocation, tool string, args map[string]any, callErr error) (map[string]any, error)
}

// CloseHook releases resources held by a unit at application teardown.
// Fan-out: every implementer runs exactly once, even when an earlier
// unit's Close failed. Matches io.Closer so existing closers can be
// attached directly.
type CloseHook interface {
	Close() error
}
