// Package fluent provides a composable builder API over the ADK agent
// framework. Builder nodes describe llm, exec and custom agents,
// compose by sequencing, looping and routing, carry attached
// middleware, and compile into a runnable App with at most one
// middleware plugin.
package fluent

import (
	"iter"

	"github.com/metalagman/adkfluent/middleware"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/session"
)

// RunFunc is the run body of a custom agent node.
type RunFunc = func(ctx agent.InvocationContext) iter.Seq2[*session.Event, error]

type nodeKind int

const (
	kindLLM nodeKind = iota
	kindCustom
	kindExec
	kindSequential
	kindLoop
	kindRoute
)

// Builder is one node in a composable agent tree. Leaf constructors
// (LLM, Custom, Exec) describe a single agent; composition
// constructors (Sequential, Loop, Route) combine existing nodes.
// Builders are cheap descriptions: the ADK agents they describe are
// constructed fresh on every Compile.
type Builder struct {
	kind        nodeKind
	name        string
	description string

	llm llmagent.Config

	run RunFunc

	cmd    []string
	prompt string
	runDir string

	children      []*Builder
	maxIterations uint
	stateKey      string
	caseValues    []string

	units []middleware.Middleware
}

// LLM describes an llmagent node. The config is passed to
// llmagent.New as-is at compile time.
func LLM(cfg llmagent.Config) *Builder {
	return &Builder{kind: kindLLM, name: cfg.Name, llm: cfg}
}

// Custom describes an agent node with a hand-written run body.
func Custom(name, description string, run RunFunc) *Builder {
	return &Builder{kind: kindCustom, name: name, description: description, run: run}
}

// Exec describes an agent node that shells out to an external command
// via an ainvoke ExecAgent.
func Exec(name, description string, cmd []string) *Builder {
	return &Builder{kind: kindExec, name: name, description: description, cmd: cmd}
}

// WithPrompt sets the prompt handed to an exec node's command.
func (b *Builder) WithPrompt(prompt string) *Builder {
	b.prompt = prompt
	return b
}

// WithRunDir sets the working directory for an exec node.
func (b *Builder) WithRunDir(dir string) *Builder {
	b.runDir = dir
	return b
}

// Name returns the node's agent name.
func (b *Builder) Name() string { return b.name }

// Use attaches middleware units to this node, in order, and returns
// the node for chaining. Units are held by reference; attaching the
// same instance twice means it is invoked twice.
func (b *Builder) Use(units ...middleware.Middleware) *Builder {
	b.units = append(b.units, units...)
	return b
}

// Middleware computes the node's effective middleware list: the
// children's lists concatenated in child order, followed by the units
// attached to this node. The list is computed on every call, never
// cached, so reusing a node in several compositions cannot alias one
// hidden list.
func (b *Builder) Middleware() []middleware.Middleware {
	var out []middleware.Middleware
	for _, child := range b.children {
		out = append(out, child.Middleware()...)
	}
	return append(out, b.units...)
}
