package fluent

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/adkfluent/middleware"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
)

// unit is a minimal middleware unit with identity, for asserting list
// order by pointer.
type unit struct {
	id     string
	closed int
}

func (u *unit) AfterRun(context.Context, *middleware.Invocation) error { return nil }

func (u *unit) Close() error {
	u.closed++
	return nil
}

func noopRun(agent.InvocationContext) iter.Seq2[*session.Event, error] {
	return func(func(*session.Event, error) bool) {}
}

func requireUnits(t *testing.T, got []middleware.Middleware, want ...*unit) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Same(t, want[i], got[i], "unit at position %d", i)
	}
}

func TestUseAppendsInOrderAndChains(t *testing.T) {
	t.Parallel()

	a, b := &unit{id: "a"}, &unit{id: "b"}
	node := Custom("worker", "test worker", noopRun)

	returned := node.Use(a).Use(b)
	require.Same(t, node, returned)
	requireUnits(t, node.Middleware(), a, b)
}

func TestCompositeMiddlewareConcatenatesChildrenFirst(t *testing.T) {
	t.Parallel()

	a, b, s := &unit{id: "a"}, &unit{id: "b"}, &unit{id: "s"}
	first := Custom("first", "", noopRun).Use(a)
	second := Custom("second", "", noopRun).Use(b)
	seq := Sequential("pipeline", first, second).Use(s)

	requireUnits(t, seq.Middleware(), a, b, s)
}

func TestNestedCompositesCarryMiddlewareTransitively(t *testing.T) {
	t.Parallel()

	a, b, s, c, o := &unit{id: "a"}, &unit{id: "b"}, &unit{id: "s"}, &unit{id: "c"}, &unit{id: "o"}
	inner := Sequential("inner",
		Custom("first", "", noopRun).Use(a),
		Custom("second", "", noopRun).Use(b),
	).Use(s)
	outer := Loop("outer", 2, inner, Custom("third", "", noopRun).Use(c)).Use(o)

	requireUnits(t, outer.Middleware(), a, b, s, c, o)
}

func TestMiddlewareListIsRecomputedNotCached(t *testing.T) {
	t.Parallel()

	a := &unit{id: "a"}
	child := Custom("child", "", noopRun).Use(a)
	seq := Sequential("pipeline", child)
	requireUnits(t, seq.Middleware(), a)

	late := &unit{id: "late"}
	child.Use(late)
	requireUnits(t, seq.Middleware(), a, late)
}

func TestSharedChildContributesToEachComposite(t *testing.T) {
	t.Parallel()

	a := &unit{id: "a"}
	shared := Custom("shared", "", noopRun).Use(a)
	left := Sequential("left", shared)
	right := Sequential("right", shared)

	requireUnits(t, left.Middleware(), a)
	requireUnits(t, right.Middleware(), a)
}

func TestRouteCarriesCaseMiddlewareInDeclarationOrder(t *testing.T) {
	t.Parallel()

	a, b, r := &unit{id: "a"}, &unit{id: "b"}, &unit{id: "r"}
	route := Route("router", "mode",
		When("fast", Custom("fast", "", noopRun).Use(a)),
		When("slow", Custom("slow", "", noopRun).Use(b)),
	).Use(r)

	requireUnits(t, route.Middleware(), a, b, r)
}

func TestDuplicateAttachmentIsKept(t *testing.T) {
	t.Parallel()

	a := &unit{id: "a"}
	node := Custom("worker", "", noopRun).Use(a, a)
	requireUnits(t, node.Middleware(), a, a)
}

func TestRunConfigWithMiddlewareDerivesCopy(t *testing.T) {
	t.Parallel()

	a, b := &unit{id: "a"}, &unit{id: "b"}
	base := RunConfig{AppName: "demo"}
	derived := base.WithMiddleware(a, b)

	assert.Empty(t, base.Middleware())
	requireUnits(t, derived.Middleware(), a, b)

	// The returned list is a copy, not a window into the config.
	got := derived.Middleware()
	got[0] = nil
	requireUnits(t, derived.Middleware(), a, b)
}

func TestCompileMergesLocalBeforeGlobal(t *testing.T) {
	t.Parallel()

	a, b, c := &unit{id: "a"}, &unit{id: "b"}, &unit{id: "c"}
	pipeline := Sequential("pipeline",
		Custom("first", "", noopRun).Use(a),
		Custom("second", "", noopRun).Use(b),
	)
	cfg := RunConfig{AppName: "demo"}.WithMiddleware(c)

	app, err := pipeline.Compile(cfg)
	require.NoError(t, err)

	adapter, ok := app.Plugin().(*middleware.Adapter)
	require.True(t, ok, "plugin should be a middleware adapter")
	assert.Equal(t, "demo", adapter.Name())
	requireUnits(t, adapter.Stack(), a, b, c)
	assert.Equal(t, "pipeline_boundary", app.Agent().Name())
}

func TestCompileWithoutMiddlewareHasNoPlugin(t *testing.T) {
	t.Parallel()

	app, err := Custom("lone", "no middleware", noopRun).Compile(RunConfig{})
	require.NoError(t, err)

	assert.Nil(t, app.Plugin())
	assert.Equal(t, "lone", app.Agent().Name(), "no boundary wrapper without middleware")
	assert.NoError(t, app.Close())
}

func TestCompileTwiceYieldsIndependentAdapters(t *testing.T) {
	t.Parallel()

	a := &unit{id: "a"}
	node := Custom("worker", "", noopRun).Use(a)

	first, err := node.Compile(RunConfig{})
	require.NoError(t, err)
	second, err := node.Compile(RunConfig{})
	require.NoError(t, err)

	require.NotSame(t, first.Plugin(), second.Plugin())

	// Closing one compiled app must not close the other's adapter.
	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	assert.Equal(t, 1, a.closed)
	require.NoError(t, second.Close())
	assert.Equal(t, 2, a.closed)
}

func TestCompileDefaultsAppName(t *testing.T) {
	t.Parallel()

	app, err := Custom("worker", "", noopRun).Compile(RunConfig{})
	require.NoError(t, err)
	assert.Equal(t, defaultAppName, app.Name())
}
