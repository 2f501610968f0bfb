package middleware

import (
	"context"
	"sync"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// Adapter is the single bridge between the host runtime's native
// callback shapes and the simplified hook protocol. It wraps one
// ordered stack, stored by reference and never reordered, and exposes
// one entry point per lifecycle callback. A compiled application
// carries at most one adapter.
//
// The adapter translates host-native arguments (sessions, invocation
// contexts, ADK events and model responses) into the simplified shapes
// of this package, hands them to the stack, and translates any
// override back. It never recovers errors: whatever the stack returns
// is what the host sees.
type Adapter struct {
	name  string
	stack Stack

	closeOnce sync.Once
	closeErr  error
}

// NewAdapter wraps stack under an identifying name, usually the
// application name.
func NewAdapter(name string, stack Stack) *Adapter {
	return &Adapter{name: name, stack: stack}
}

// Name returns the adapter's identifying name.
func (a *Adapter) Name() string { return a.name }

// Stack returns the wrapped stack. The slice is shared, not copied.
func (a *Adapter) Stack() Stack { return a.stack }

// OnUserMessage runs the user-message hooks. A non-nil result replaces
// the message handed to the runner.
func (a *Adapter) OnUserMessage(ctx context.Context, sess session.Session, message *genai.Content) (*genai.Content, error) {
	return a.stack.OnUserMessage(ctx, a.sessionInvocation(sess), message)
}

// BeforeRun runs the run-start hooks. A non-nil result means the run
// is skipped and the content surfaced as its only output.
func (a *Adapter) BeforeRun(ctx context.Context, sess session.Session) (*genai.Content, error) {
	return a.stack.BeforeRun(ctx, a.sessionInvocation(sess))
}

// OnEvent runs the event hooks for one runner event. A non-nil result
// is a copy of the event with its content replaced.
func (a *Adapter) OnEvent(ctx context.Context, sess session.Session, ev *session.Event) (*session.Event, error) {
	if ev == nil {
		return nil, nil
	}
	out, err := a.stack.OnEvent(ctx, a.sessionInvocation(sess), ev.Content)
	if err != nil || out == nil {
		return nil, err
	}
	override := *ev
	override.Content = out
	return &override, nil
}

// AfterRun fans out to every run-end hook.
func (a *Adapter) AfterRun(ctx context.Context, sess session.Session) error {
	return a.stack.AfterRun(ctx, a.sessionInvocation(sess))
}

// BeforeAgent runs the agent-start hooks for target. A non-nil result
// is an event to yield in place of running the agent.
func (a *Adapter) BeforeAgent(ictx agent.InvocationContext, target agent.Agent) (*session.Event, error) {
	out, err := a.stack.BeforeAgent(ictx, a.contextInvocation(ictx), agentName(target))
	if err != nil || out == nil {
		return nil, err
	}
	return contentEvent(out), nil
}

// AfterAgent runs the agent-end hooks for target. A non-nil result is
// an event to append after the agent's own output.
func (a *Adapter) AfterAgent(ictx agent.InvocationContext, target agent.Agent) (*session.Event, error) {
	out, err := a.stack.AfterAgent(ictx, a.contextInvocation(ictx), agentName(target))
	if err != nil || out == nil {
		return nil, err
	}
	return contentEvent(out), nil
}

// BeforeModel runs the model-start hooks. A non-nil result is used as
// the model response without calling the model.
func (a *Adapter) BeforeModel(ictx agent.InvocationContext, contents []*genai.Content) (*model.LLMResponse, error) {
	out, err := a.stack.BeforeModel(ictx, a.contextInvocation(ictx), &ModelRequest{Contents: contents})
	if err != nil || out == nil {
		return nil, err
	}
	return &model.LLMResponse{Content: out.Content}, nil
}

// AfterModel runs the model-end hooks. A non-nil result replaces the
// model's response.
func (a *Adapter) AfterModel(ictx agent.InvocationContext, resp *model.LLMResponse) (*model.LLMResponse, error) {
	var simplified *ModelResponse
	if resp != nil {
		simplified = &ModelResponse{Content: resp.Content}
	}
	out, err := a.stack.AfterModel(ictx, a.contextInvocation(ictx), simplified)
	if err != nil || out == nil {
		return nil, err
	}
	return &model.LLMResponse{Content: out.Content}, nil
}

// OnModelError runs the model-error hooks. A non-nil result recovers
// the failed call; nil lets callErr continue to the host.
func (a *Adapter) OnModelError(ictx agent.InvocationContext, contents []*genai.Content, callErr error) (*model.LLMResponse, error) {
	out, err := a.stack.OnModelError(ictx, a.contextInvocation(ictx), &ModelRequest{Contents: contents}, callErr)
	if err != nil || out == nil {
		return nil, err
	}
	return &model.LLMResponse{Content: out.Content}, nil
}

// BeforeTool runs the tool-start hooks. A non-nil result is used as
// the tool result without invoking the tool.
func (a *Adapter) BeforeTool(ictx agent.InvocationContext, tool string, args map[string]any) (map[string]any, error) {
	return a.stack.BeforeTool(ictx, a.contextInvocation(ictx), tool, args)
}

// AfterTool runs the tool-end hooks. A non-nil result replaces the
// tool's result.
func (a *Adapter) AfterTool(ictx agent.InvocationContext, tool string, args map[string]any, result map[string]any) (map[string]any, error) {
	return a.stack.AfterTool(ictx, a.contextInvocation(ictx), tool, args, result)
}

// OnToolError runs the tool-error hooks. A non-nil result recovers the
// failed call; nil lets callErr continue to the host.
func (a *Adapter) OnToolError(ictx agent.InvocationContext, tool string, args map[string]any, callErr error) (map[string]any, error) {
	return a.stack.OnToolError(ictx, a.contextInvocation(ictx), tool, args, callErr)
}

// Close fans out to every unit's Close exactly once, no matter how
// often it is called. Repeat calls return the first pass's result.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.stack.Close()
	})
	return a.closeErr
}

func (a *Adapter) sessionInvocation(sess session.Session) *Invocation {
	inv := &Invocation{AppName: a.name}
	if sess != nil {
		inv.SessionID = sess.ID()
	}
	return inv
}

func (a *Adapter) contextInvocation(ictx agent.InvocationContext) *Invocation {
	inv := &Invocation{AppName: a.name}
	if ictx == nil {
		return inv
	}
	inv.InvocationID = ictx.InvocationID()
	if sess := ictx.Session(); sess != nil {
		inv.SessionID = sess.ID()
	}
	return inv
}

func agentName(target agent.Agent) string {
	if target == nil {
		return ""
	}
	return target.Name()
}

func contentEvent(c *genai.Content) *session.Event {
	return &session.Event{LLMResponse: model.LLMResponse{Content: c}}
}
