package middleware

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

// Stack is an ordered sequence of middleware units. Order is
// attachment order and is preserved end to end: for every
// short-circuiting hook, the unit at position N runs to completion
// before the unit at position N+1 starts, and iteration stops at the
// first non-nil override. Units that do not implement a hook are
// skipped. Duplicates by reference are allowed and invoked once per
// occurrence.
//
// An error returned by a unit's hook stops iteration and propagates to
// the caller unmodified; the stack never recovers errors on a unit's
// behalf. The two fan-out hooks (AfterRun, Close) are the exception to
// early exit: every implementer runs, and their errors are joined.
type Stack []Middleware

// OnUserMessage returns the first non-nil message override.
func (s Stack) OnUserMessage(ctx context.Context, inv *Invocation, message *genai.Content) (*genai.Content, error) {
	for _, m := range s {
		h, ok := m.(UserMessageHook)
		if !ok {
			continue
		}
		out, err := h.OnUserMessage(ctx, inv, message)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// BeforeRun returns the first non-nil run override.
func (s Stack) BeforeRun(ctx context.Context, inv *Invocation) (*genai.Content, error) {
	for _, m := range s {
		h, ok := m.(RunStartHook)
		if !ok {
			continue
		}
		out, err := h.BeforeRun(ctx, inv)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// OnEvent returns the first non-nil content override for an event.
func (s Stack) OnEvent(ctx context.Context, inv *Invocation, content *genai.Content) (*genai.Content, error) {
	for _, m := range s {
		h, ok := m.(EventHook)
		if !ok {
			continue
		}
		out, err := h.OnEvent(ctx, inv, content)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// AfterRun invokes every RunEndHook in order. Errors do not stop the
// fan-out; they are joined and returned after all units ran.
func (s Stack) AfterRun(ctx context.Context, inv *Invocation) error {
	var errs []error
	for _, m := range s {
		h, ok := m.(RunEndHook)
		if !ok {
			continue
		}
		if err := h.AfterRun(ctx, inv); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BeforeAgent returns the first non-nil agent override.
func (s Stack) BeforeAgent(ctx context.Context, inv *Invocation, agentName string) (*genai.Content, error) {
	for _, m := range s {
		h, ok := m.(AgentStartHook)
		if !ok {
			continue
		}
		out, err := h.BeforeAgent(ctx, inv, agentName)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// AfterAgent returns the first non-nil post-agent override.
func (s Stack) AfterAgent(ctx context.Context, inv *Invocation, agentName string) (*genai.Content, error) {
	for _, m := range s {
		h, ok := m.(AgentEndHook)
		if !ok {
			continue
		}
		out, err := h.AfterAgent(ctx, inv, agentName)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// BeforeModel returns the first non-nil model response override.
func (s Stack) BeforeModel(ctx context.Context, inv *Invocation, req *ModelRequest) (*ModelResponse, error) {
	for _, m := range s {
		h, ok := m.(ModelStartHook)
		if !ok {
			continue
		}
		out, err := h.BeforeModel(ctx, inv, req)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// AfterModel returns the first non-nil replacement response.
func (s Stack) AfterModel(ctx context.Context, inv *Invocation, resp *ModelResponse) (*ModelResponse, error) {
	for _, m := range s {
		h, ok := m.(ModelEndHook)
		if !ok {
			continue
		}
		out, err := h.AfterModel(ctx, inv, resp)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// OnModelError returns the first non-nil recovery response, or nil to
// let the original error continue.
func (s Stack) OnModelError(ctx context.Context, inv *Invocation, req *ModelRequest, callErr error) (*ModelResponse, error) {
	for _, m := range s {
		h, ok := m.(ModelErrorHook)
		if !ok {
			continue
		}
		out, err := h.OnModelError(ctx, inv, req, callErr)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// BeforeTool returns the first non-nil tool result override.
func (s Stack) BeforeTool(ctx context.Context, inv *Invocation, tool string, args map[string]any) (map[string]any, error) {
	for _, m := range s {
		h, ok := m.(ToolStartHook)
		if !ok {
			continue
		}
		out, err := h.BeforeTool(ctx, inv, tool, args)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// AfterTool returns the first non-nil replacement result.
func (s Stack) AfterTool(ctx context.Context, inv *Invocation, tool string, args map[string]any, result map[string]any) (map[string]any, error) {
	for _, m := range s {
		h, ok := m.(ToolEndHook)
		if !ok {
			continue
		}
		out, err := h.AfterTool(ctx, inv, tool, args, result)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// OnToolError returns the first non-nil recovery result, or nil to let
// the original error continue.
func (s Stack) OnToolError(ctx context.Context, inv *Invocation, tool string, args map[string]any, callErr error) (map[string]any, error) {
	for _, m := range s {
		h, ok := m.(ToolErrorHook)
		if !ok {
			continue
		}
		out, err := h.OnToolError(ctx, inv, tool, args, callErr)
		if err != nil {
			return nil, err
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, nil
}

// Close invokes every CloseHook in order. A failing Close never
// prevents the remaining units from closing; errors are joined and
// returned after the full pass.
func (s Stack) Close() error {
	var errs []error
	for _, m := range s {
		h, ok := m.(CloseHook)
		if !ok {
			continue
		}
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
