package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantry-sh/gantry/pkg/stack"
)

func parseStack(t *testing.T, yaml string) *stack.Stack {
	t.Helper()
	st, err := stack.Parse([]byte(yaml), nil)
	require.NoError(t, err)
	return st
}

const diamondYAML = `
services:
  database:
    command: ["postgres"]
    healthcheck:
      test: ["TCP", "127.0.0.1:5432"]
  application:
    command: ["./app"]
    depends_on:
      database:
        condition: service_healthy
  frontend:
    command: ["./fe"]
    depends_on: [application]
  test-runner:
    command: ["./smoke"]
    oneshot: true
    depends_on: [application]
`

func TestNew(t *testing.T) {
	g, err := New(parseStack(t, diamondYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"application", "database", "frontend", "test-runner"}, g.Nodes())

	deps := g.Dependencies("application")
	require.Len(t, deps, 1)
	assert.Equal(t, "database", deps[0].Dependency)
	assert.Equal(t, stack.ConditionServiceHealthy, deps[0].Condition)

	assert.Empty(t, g.Dependencies("database"))
	assert.Equal(t, []string{"frontend", "test-runner"}, g.Dependents("application"))
}

func TestNewRejectsUnknownDependency(t *testing.T) {
	_, err := New(parseStack(t, `
services:
  web:
    command: ["x"]
    depends_on: [ghost]
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "undeclared service ghost")
}

func TestNewRejectsCycle(t *testing.T) {
	_, err := New(parseStack(t, `
services:
  a:
    command: ["x"]
    depends_on: [c]
  b:
    command: ["x"]
    depends_on: [a]
  c:
    command: ["x"]
    depends_on: [b]
`))
	require.Error(t, err)

	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	// The cycle closes on its first node.
	assert.Equal(t, cerr.Path[0], cerr.Path[len(cerr.Path)-1])
	assert.Len(t, cerr.Path, 4)
	assert.ErrorContains(t, err, "dependency cycle")
}

func TestNewRejectsSelfDependency(t *testing.T) {
	_, err := New(parseStack(t, `
services:
  a:
    command: ["x"]
    depends_on: [a]
`))
	require.Error(t, err)
	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"a", "a"}, cerr.Path)
}

func TestTopoOrder(t *testing.T) {
	g, err := New(parseStack(t, diamondYAML))
	require.NoError(t, err)

	order := g.TopoOrder()
	assert.Equal(t, []string{"database", "application", "frontend", "test-runner"}, order)
}

func TestLayers(t *testing.T) {
	g, err := New(parseStack(t, diamondYAML))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"database"},
		{"application"},
		{"frontend", "test-runner"},
	}, g.Layers())
}

func TestLayersIndependentServices(t *testing.T) {
	g, err := New(parseStack(t, `
services:
  a:
    command: ["x"]
  b:
    command: ["x"]
  c:
    command: ["x"]
`))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b", "c"}}, g.Layers())
	assert.Equal(t, []string{"a", "b", "c"}, g.TopoOrder())
}

func TestTransitiveDependents(t *testing.T) {
	g, err := New(parseStack(t, diamondYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"application", "frontend", "test-runner"},
		g.TransitiveDependents("database"))
	assert.Equal(t, []string{"frontend", "test-runner"},
		g.TransitiveDependents("application"))
	assert.Empty(t, g.TransitiveDependents("frontend"))
}
