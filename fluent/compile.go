package fluent

import (
	"fmt"
	"iter"
	"os"

	"github.com/metalagman/adkfluent/middleware"
	adk "github.com/metalagman/ainvoke/adk"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/agent/workflowagents/loopagent"
	"google.golang.org/adk/agent/workflowagents/sequentialagent"
	"google.golang.org/adk/session"
)

// Compile builds the ADK agent tree this node describes and packages
// it as a runnable App. Middleware attached anywhere in the tree is
// merged with the configuration's global middleware, builder-attached
// first, and when the merged list is non-empty exactly one adapter is
// constructed and registered as the App's plugin. Middleware unit
// instances are shared by reference; the merged list itself is
// recomputed, so compiling the same builder twice yields two
// independent adapters.
func (b *Builder) Compile(cfg RunConfig) (*App, error) {
	root, err := b.build()
	if err != nil {
		return nil, err
	}

	appName := cfg.appName()
	app := &App{
		name:     appName,
		userID:   cfg.userID(),
		root:     root,
		sessions: session.InMemoryService(),
	}

	merged := append(b.Middleware(), cfg.Middleware()...)
	if len(merged) == 0 {
		return app, nil
	}

	adapter := middleware.NewAdapter(appName, middleware.Stack(merged))
	wrapped, err := wrapRoot(root, adapter)
	if err != nil {
		return nil, fmt.Errorf("wrap root agent: %w", err)
	}
	app.root = wrapped
	app.plugin = adapter
	return app, nil
}

func (b *Builder) build() (agent.Agent, error) {
	switch b.kind {
	case kindLLM:
		return llmagent.New(b.llm)
	case kindCustom:
		return agent.New(agent.Config{
			Name:        b.name,
			Description: b.description,
			Run:         b.run,
		})
	case kindExec:
		return b.buildExec()
	case kindSequential:
		subs, err := b.buildChildren()
		if err != nil {
			return nil, err
		}
		return sequentialagent.New(sequentialagent.Config{
			AgentConfig: agent.Config{
				Name:        b.name,
				Description: b.description,
				SubAgents:   subs,
			},
		})
	case kindLoop:
		subs, err := b.buildChildren()
		if err != nil {
			return nil, err
		}
		return loopagent.New(loopagent.Config{
			MaxIterations: b.maxIterations,
			AgentConfig: agent.Config{
				Name:        b.name,
				Description: b.description,
				SubAgents:   subs,
			},
		})
	case kindRoute:
		subs, err := b.buildChildren()
		if err != nil {
			return nil, err
		}
		return agent.New(agent.Config{
			Name:        b.name,
			Description: b.description,
			SubAgents:   subs,
			Run:         routeRun(b.name, b.stateKey, b.caseValues, subs),
		})
	default:
		return nil, fmt.Errorf("unknown builder kind %d", b.kind)
	}
}

func (b *Builder) buildChildren() ([]agent.Agent, error) {
	subs := make([]agent.Agent, 0, len(b.children))
	for _, child := range b.children {
		sub, err := child.build()
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", child.name, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (b *Builder) buildExec() (agent.Agent, error) {
	if b.runDir != "" {
		return adk.NewExecAgent(b.name, b.description, b.cmd,
			adk.WithExecAgentPrompt(b.prompt),
			adk.WithExecAgentRunDir(b.runDir),
			adk.WithExecAgentStdout(os.Stdout),
			adk.WithExecAgentStderr(os.Stderr),
		)
	}
	return adk.NewExecAgent(b.name, b.description, b.cmd,
		adk.WithExecAgentPrompt(b.prompt),
		adk.WithExecAgentStdout(os.Stdout),
		adk.WithExecAgentStderr(os.Stderr),
	)
}

// wrapRoot installs the agent-boundary hooks around the root agent.
// The wrapper declares inner as its sub-agent so the runner sees a
// consistent tree, and delegates the actual run. A BeforeAgent
// override skips inner entirely; an AfterAgent override is yielded as
// one extra event after inner's output.
func wrapRoot(inner agent.Agent, adapter *middleware.Adapter) (agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        inner.Name() + "_boundary",
		Description: "Middleware boundary around the root agent.",
		SubAgents:   []agent.Agent{inner},
		Run: func(ictx agent.InvocationContext) iter.Seq2[*session.Event, error] {
			return func(yield func(*session.Event, error) bool) {
				override, err := adapter.BeforeAgent(ictx, inner)
				if err != nil {
					yield(nil, err)
					return
				}
				if override != nil {
					yield(override, nil)
					return
				}

				for ev, runErr := range inner.Run(ictx) {
					if !yield(ev, runErr) {
						return
					}
					if runErr != nil {
						return
					}
				}

				after, err := adapter.AfterAgent(ictx, inner)
				if err != nil {
					yield(nil, err)
					return
				}
				if after != nil {
					yield(after, nil)
				}
			}
		},
	})
}
