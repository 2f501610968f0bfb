package fluent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// App is a compiled application: the built agent tree, a session
// service, and at most one lifecycle plugin. Apps own their plugin;
// the middleware stack inside it is shared with the builder nodes that
// contributed it.
type App struct {
	name     string
	userID   string
	root     agent.Agent
	sessions session.Service
	plugin   Plugin
}

// Name returns the application name.
func (a *App) Name() string { return a.name }

// Agent returns the root agent the runner executes, including the
// middleware boundary wrapper when one was compiled in.
func (a *App) Agent() agent.Agent { return a.root }

// Plugin returns the compiled lifecycle plugin, or nil when no
// middleware was attached. Hosts that own model or tool scheduling
// invoke the plugin's model- and tool-level callbacks through this.
func (a *App) Plugin() Plugin { return a.plugin }

// Run executes one message in a fresh session and returns the yielded
// events.
func (a *App) Run(ctx context.Context, message string) ([]*session.Event, error) {
	return a.RunSession(ctx, uuid.NewString(), message)
}

// RunSession executes one message in the session stored under
// sessionID, creating it on first use and resuming it on later calls.
// Runner-level middleware fires around the invocation: the user
// message may be replaced, the whole run may be skipped by a BeforeRun
// override, every event may be replaced, and AfterRun always fans out
// once the run finished (including the skipped and failed cases).
func (a *App) RunSession(ctx context.Context, sessionID, message string) ([]*session.Event, error) {
	r, err := runner.New(runner.Config{
		AppName:        a.name,
		Agent:          a.root,
		SessionService: a.sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("create runner: %w", err)
	}

	sess, err := a.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	content := genai.NewContentFromText(message, genai.RoleUser)
	if a.plugin != nil {
		override, err := a.plugin.OnUserMessage(ctx, sess, content)
		if err != nil {
			return nil, err
		}
		if override != nil {
			content = override
		}

		skip, err := a.plugin.BeforeRun(ctx, sess)
		if err != nil {
			return nil, err
		}
		if skip != nil {
			log.Debug().Str("app", a.name).Msg("run skipped by middleware")
			ev := &session.Event{LLMResponse: model.LLMResponse{Content: skip}}
			return []*session.Event{ev}, a.plugin.AfterRun(ctx, sess)
		}
	}

	var events []*session.Event
	var runErr error
	for ev, iterErr := range r.Run(ctx, a.userID, sess.ID(), content, agent.RunConfig{}) {
		if iterErr != nil {
			runErr = iterErr
			break
		}
		if ev == nil {
			continue
		}
		if a.plugin != nil {
			override, err := a.plugin.OnEvent(ctx, sess, ev)
			if err != nil {
				runErr = err
				break
			}
			if override != nil {
				ev = override
			}
		}
		events = append(events, ev)
	}

	if a.plugin != nil {
		if err := a.plugin.AfterRun(ctx, sess); err != nil {
			return events, errors.Join(runErr, err)
		}
	}
	return events, runErr
}

// session returns the session stored under sessionID, creating it when
// it does not exist yet.
func (a *App) session(ctx context.Context, sessionID string) (session.Session, error) {
	got, err := a.sessions.Get(ctx, &session.GetRequest{
		AppName:   a.name,
		UserID:    a.userID,
		SessionID: sessionID,
	})
	if err == nil {
		return got.Session, nil
	}

	created, err := a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.name,
		UserID:    a.userID,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return created.Session, nil
}

// Close releases the plugin's middleware exactly once. Safe to call on
// an App compiled without middleware, and safe to call repeatedly.
func (a *App) Close() error {
	if a.plugin == nil {
		return nil
	}
	return a.plugin.Close()
}
