package fluent

import (
	"fmt"
	"iter"

	"github.com/rs/zerolog/log"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
)

// Sequential combines children into a node that runs them in order.
func Sequential(name string, children ...*Builder) *Builder {
	return &Builder{kind: kindSequential, name: name, children: children}
}

// Loop combines children into a node that runs them repeatedly, up to
// maxIterations passes.
func Loop(name string, maxIterations uint, children ...*Builder) *Builder {
	return &Builder{kind: kindLoop, name: name, maxIterations: maxIterations, children: children}
}

// Case binds a session-state value to a child node for Route.
type Case struct {
	Value string
	Child *Builder
}

// When builds a Route case.
func When(value string, child *Builder) Case {
	return Case{Value: value, Child: child}
}

// Route combines the case children into a node that runs the child
// whose value matches the session state stored under stateKey. Cases
// are declared in order; middleware attached to case children is
// carried in that same order. When the key is unset or no case
// matches, the node yields nothing.
func Route(name, stateKey string, cases ...Case) *Builder {
	children := make([]*Builder, 0, len(cases))
	values := make([]string, 0, len(cases))
	for _, c := range cases {
		children = append(children, c.Child)
		values = append(values, c.Value)
	}
	return &Builder{kind: kindRoute, name: name, stateKey: stateKey, caseValues: values, children: children}
}

func routeRun(name, stateKey string, values []string, subs []agent.Agent) RunFunc {
	return func(ictx agent.InvocationContext) iter.Seq2[*session.Event, error] {
		return func(yield func(*session.Event, error) bool) {
			if ictx.Ended() {
				return
			}

			raw, err := ictx.Session().State().Get(stateKey)
			if err != nil {
				log.Debug().Str("route", name).Str("key", stateKey).Msg("route key not set, skipping")
				return
			}
			value, ok := raw.(string)
			if !ok {
				yield(nil, fmt.Errorf("route %s: state key %q holds %T, want string", name, stateKey, raw))
				return
			}

			for i, v := range values {
				if v != value {
					continue
				}
				for ev, runErr := range subs[i].Run(ictx) {
					if !yield(ev, runErr) {
						return
					}
					if runErr != nil {
						return
					}
				}
				return
			}

			log.Debug().Str("route", name).Str("key", stateKey).Str("value", value).Msg("no matching route case")
		}
	}
}
