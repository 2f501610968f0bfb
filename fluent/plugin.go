package fluent

import (
	"context"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// Plugin is the lifecycle-extension contract a compiled App carries.
// It is the host-native side of the middleware subsystem: callbacks
// take ADK sessions, invocation contexts, events and model responses,
// and return overrides in host terms. *middleware.Adapter implements
// it; a compiled App registers at most one Plugin.
//
// The runner-level callbacks (OnUserMessage, BeforeRun, OnEvent,
// AfterRun) are invoked by App.Run around each runner invocation. The
// agent-boundary callbacks fire at the root agent boundary via the
// wrapper installed at compile time. Model- and tool-level callbacks
// are exposed for hosts that own their model and tool scheduling; the
// ADK runner does not surface those interception points, so App never
// calls them itself.
type Plugin interface {
	Name() string

	OnUserMessage(ctx context.Context, sess session.Session, message *genai.Content) (*genai.Content, error)
	BeforeRun(ctx context.Context, sess session.Session) (*genai.Content, error)
	OnEvent(ctx context.Context, sess session.Session, ev *session.Event) (*session.Event, error)
	AfterRun(ctx context.Context, sess session.Session) error

	BeforeAgent(ictx agent.InvocationContext, target agent.Agent) (*session.Event, error)
	AfterAgent(ictx agent.InvocationContext, target agent.Agent) (*session.Event, error)

	BeforeModel(ictx agent.InvocationContext, contents []*genai.Content) (*model.LLMResponse, error)
	AfterModel(ictx agent.InvocationContext, resp *model.LLMResponse) (*model.LLMResponse, error)
	OnModelError(ictx agent.InvocationContext, contents []*genai.Content, callErr error) (*model.LLMResponse, error)

	BeforeTool(ictx agent.InvocationContext, tool string, args map[string]any) (map[string]any, error)
	AfterTool(ictx agent.InvocationContext, tool string, args map[string]any, result map[string]any) (map[string]any, error)
	OnToolError(ictx agent.InvocationContext, tool string, args map[string]any, callErr error) (map[string]any, error)

	Close() error
}
