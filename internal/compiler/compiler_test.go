package compiler

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/pkg/schema"
)

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	cat, err := catalog.NewDefault()
	require.NoError(t, err)
	return New(cat)
}

func node(id string, typ schema.NodeType, config map[string]any) schema.GraphNode {
	return schema.GraphNode{
		ID:   id,
		Type: typ,
		Data: schema.NodeData{Label: id, Config: config},
	}
}

func edge(id, source, target string) schema.GraphEdge {
	return schema.GraphEdge{ID: id, Source: source, Target: target}
}

func portEdge(id, source, target, handle string) schema.GraphEdge {
	return schema.GraphEdge{ID: id, Source: source, Target: target, SourceHandle: handle}
}

func testFlow(nodes []schema.GraphNode, edges []schema.GraphEdge) *schema.FlowGraph {
	return &schema.FlowGraph{
		ID:      "flow-1",
		Name:    "Checkout",
		Version: "1.0.0",
		Nodes:   nodes,
		Edges:   edges,
	}
}

// linearFlow is start → navigate → input → input → click → assertText → end.
func linearFlow() *schema.FlowGraph {
	return testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("nav", schema.NodeTypeNavigate, map[string]any{"url": "https://shop.example/login"}),
			node("user", schema.NodeTypeInput, map[string]any{"selector": "#user", "value": "alice"}),
			node("pass", schema.NodeTypeInput, map[string]any{"selector": "#pass", "value": "s3cret"}),
			node("submit", schema.NodeTypeClick, map[string]any{"selector": "#login"}),
			node("check", schema.NodeTypeAssertText, map[string]any{"selector": ".banner", "text": "Welcome"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "nav"),
			edge("e2", "nav", "user"),
			edge("e3", "user", "pass"),
			edge("e4", "pass", "submit"),
			edge("e5", "submit", "check"),
			edge("e6", "check", "end"),
		},
	)
}

func TestCompileLinearFlow(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(linearFlow())
	require.NoError(t, err)
	require.NotNil(t, result.Program)

	assert.Equal(t, 5, result.StepCount)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Program.Steps, 5)

	first := result.Program.Steps[0]
	require.NotNil(t, first.Action)
	assert.Equal(t, "navigate", first.Action.Type)
	assert.Equal(t, "https://shop.example/login", first.Action.Target)

	last := result.Program.Steps[4]
	require.NotNil(t, last.Action)
	assert.Equal(t, "assertText", last.Action.Type)
	assert.Equal(t, "Welcome", last.Action.Value)

	var parsed schema.StepProgram
	require.NoError(t, json.Unmarshal([]byte(result.Content), &parsed))
	assert.Equal(t, "flow-1", parsed.ID)
	assert.Len(t, parsed.Steps, 5)
}

func TestCompileNilFlow(t *testing.T) {
	c := newCompiler(t)
	_, err := c.CompileFlow(nil)
	require.Error(t, err)
}

func TestCompileNoStartNode(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{node("a", schema.NodeTypeClick, map[string]any{"selector": "#a"})},
		nil,
	))
	require.NoError(t, err)

	assert.Empty(t, result.Program.Steps)
	assert.Zero(t, result.StepCount)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no start node")
}

func TestCompileStartWithoutOutgoing(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("end", schema.NodeTypeEnd, nil),
		},
		nil,
	))
	require.NoError(t, err)
	assert.Empty(t, result.Program.Steps)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no outgoing edge")
}

func TestCompileSkipsSentinels(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("note", schema.NodeTypeComment, nil),
			node("click", schema.NodeTypeClick, map[string]any{"selector": "#go"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "note"),
			edge("e2", "note", "click"),
			edge("e3", "click", "end"),
		},
	))
	require.NoError(t, err)

	assert.Equal(t, 1, result.StepCount)
	assert.Empty(t, result.Warnings)
	require.Len(t, result.Program.Steps, 1)
	assert.Equal(t, "click", result.Program.Steps[0].Action.Type)
}

func TestCompileSkipsParallelWithWarning(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("par", schema.NodeTypeParallel, nil),
			node("click", schema.NodeTypeClick, map[string]any{"selector": "#go"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "par"),
			edge("e2", "par", "click"),
			edge("e3", "click", "end"),
		},
	))
	require.NoError(t, err)

	require.Len(t, result.Program.Steps, 1)
	assert.Equal(t, "click", result.Program.Steps[0].Action.Type)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "no step representation")
}

func TestCompileCondition(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("cond", schema.NodeTypeIfElse, map[string]any{"expression": "vars.loggedIn == true"}),
			node("greet", schema.NodeTypeAssertText, map[string]any{"selector": ".banner", "text": "Hi"}),
			node("login", schema.NodeTypeClick, map[string]any{"selector": "#login"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "cond"),
			portEdge("e2", "cond", "greet", schema.HandleTrue),
			portEdge("e3", "cond", "login", schema.HandleFalse),
			edge("e4", "greet", "end"),
			edge("e5", "login", "end"),
		},
	))
	require.NoError(t, err)

	require.Len(t, result.Program.Steps, 1)
	cond := result.Program.Steps[0].Condition
	require.NotNil(t, cond)
	assert.Equal(t, "vars.loggedIn == true", cond.Expression)
	require.Len(t, cond.ThenSteps, 1)
	assert.Equal(t, "assertText", cond.ThenSteps[0].Action.Type)
	require.Len(t, cond.ElseSteps, 1)
	assert.Equal(t, "click", cond.ElseSteps[0].Action.Type)
	assert.Equal(t, 3, result.StepCount)
}

func TestCompileConditionWithoutElseOmitsKey(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("cond", schema.NodeTypeIfElse, map[string]any{"expression": "true"}),
			node("click", schema.NodeTypeClick, map[string]any{"selector": "#ok"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "cond"),
			portEdge("e2", "cond", "click", schema.HandleTrue),
			edge("e3", "click", "end"),
		},
	))
	require.NoError(t, err)

	cond := result.Program.Steps[0].Condition
	require.NotNil(t, cond)
	assert.Nil(t, cond.ElseSteps)
	assert.NotContains(t, result.Content, `"elseSteps"`)
	assert.Contains(t, result.Content, `"thenSteps"`)
}

func TestCompileLoopBodyAndContinuation(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("loop", schema.NodeTypeLoop, map[string]any{"loopType": "count", "count": 3}),
			node("click", schema.NodeTypeClick, map[string]any{"selector": ".next"}),
			node("shot", schema.NodeTypeScreenshot, map[string]any{"name": "final"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "loop"),
			portEdge("e2", "loop", "click", schema.HandleBody),
			edge("e3", "loop", "shot"),
			edge("e4", "shot", "end"),
		},
	))
	require.NoError(t, err)

	require.Len(t, result.Program.Steps, 2)
	loop := result.Program.Steps[0].Loop
	require.NotNil(t, loop)
	assert.Equal(t, schema.LoopTypeCount, loop.Type)
	assert.Equal(t, 3, loop.Count)
	require.Len(t, loop.Body, 1)
	assert.Equal(t, "click", loop.Body[0].Action.Type)
	assert.Equal(t, "screenshot", result.Program.Steps[1].Action.Type)
	assert.Equal(t, 3, result.StepCount)
}

func TestCompileDiamondAppearsInBothBranches(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("cond", schema.NodeTypeIfElse, map[string]any{"expression": "true"}),
			node("a", schema.NodeTypeClick, map[string]any{"selector": "#a"}),
			node("b", schema.NodeTypeClick, map[string]any{"selector": "#b"}),
			node("join", schema.NodeTypeScreenshot, map[string]any{"name": "done"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "cond"),
			portEdge("e2", "cond", "a", schema.HandleTrue),
			portEdge("e3", "cond", "b", schema.HandleFalse),
			edge("e4", "a", "join"),
			edge("e5", "b", "join"),
			edge("e6", "join", "end"),
		},
	))
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	cond := result.Program.Steps[0].Condition
	require.Len(t, cond.ThenSteps, 2)
	require.Len(t, cond.ElseSteps, 2)
	assert.Equal(t, "screenshot", cond.ThenSteps[1].Action.Type)
	assert.Equal(t, "screenshot", cond.ElseSteps[1].Action.Type)
	assert.Equal(t, 5, result.StepCount)
}

func TestCompileCycleStopsWithWarning(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("a", schema.NodeTypeClick, map[string]any{"selector": "#a"}),
			node("b", schema.NodeTypeClick, map[string]any{"selector": "#b"}),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "a"),
			edge("e2", "a", "b"),
			edge("e3", "b", "a"),
		},
	))
	require.NoError(t, err)

	assert.Len(t, result.Program.Steps, 2)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "revisited")
}

func TestCompileDanglingEdgeWarns(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("a", schema.NodeTypeClick, map[string]any{"selector": "#a"}),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "a"),
			edge("e2", "a", "ghost"),
		},
	))
	require.NoError(t, err)

	assert.Len(t, result.Program.Steps, 1)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "missing node")
}

func TestCompileUnknownNodeTypeFails(t *testing.T) {
	c := newCompiler(t)

	_, err := c.CompileFlow(testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("x", schema.NodeType("teleport"), nil),
		},
		[]schema.GraphEdge{edge("e1", "start", "x")},
	))
	require.Error(t, err)

	var flowErr *schema.FlowError
	require.ErrorAs(t, err, &flowErr)
	assert.Equal(t, schema.ErrCodeUnknownNodeType, flowErr.Code)
}

func TestCompileCarriesVariablesAndMetadata(t *testing.T) {
	c := newCompiler(t)

	flow := linearFlow()
	flow.Variables = []schema.VariableDefinition{
		{Name: "username", Type: "string", DefaultValue: "alice"},
		{Name: "retries", Type: "number", DefaultValue: 3},
	}
	flow.Metadata = &schema.FlowMetadata{CreatedAt: "2026-08-01T09:00:00Z"}

	result, err := c.CompileFlow(flow)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"username": "alice", "retries": 3}, result.Program.Variables)
	assert.Equal(t, "2026-08-01T09:00:00Z", result.Program.CreatedAt)
}

func TestDecompileMalformedContent(t *testing.T) {
	c := newCompiler(t)

	result := c.DecompileProgram("{not json")
	require.NotNil(t, result.Flow)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, schema.IssueParse, result.Errors[0].Type)

	require.Len(t, result.Flow.Nodes, 2)
	assert.Equal(t, schema.NodeTypeStart, result.Flow.Nodes[0].Type)
	assert.Equal(t, schema.NodeTypeEnd, result.Flow.Nodes[1].Type)
	require.Len(t, result.Flow.Edges, 1)
}

func TestDecompileLinearProgram(t *testing.T) {
	c := newCompiler(t)

	content := `{
		"id": "flow-9",
		"name": "Search",
		"steps": [
			{"id": "s1", "description": "Open site", "action": {"type": "navigate", "target": "https://example.com"}},
			{"id": "s2", "action": {"type": "input", "target": "#q", "value": "go"}},
			{"id": "s3", "action": {"type": "click", "target": "#submit"}}
		],
		"config": {}
	}`

	result := c.DecompileProgram(content)
	require.Empty(t, result.Errors)

	flow := result.Flow
	assert.Equal(t, "flow-9", flow.ID)
	assert.Equal(t, "Search", flow.Name)

	// start + 3 steps + end, linked linearly.
	require.Len(t, flow.Nodes, 5)
	require.Len(t, flow.Edges, 4)
	assert.Equal(t, schema.NodeTypeStart, flow.Nodes[0].Type)
	assert.Equal(t, schema.NodeTypeNavigate, flow.Nodes[1].Type)
	assert.Equal(t, "Open site", flow.Nodes[1].Data.Label)
	assert.Equal(t, "https://example.com", flow.Nodes[1].Data.Config["url"])
	assert.Equal(t, schema.NodeTypeEnd, flow.Nodes[4].Type)

	assert.Equal(t, "start", flow.Edges[0].Source)
	assert.Equal(t, "s1", flow.Edges[0].Target)
	assert.Equal(t, "s3", flow.Edges[3].Source)
	assert.Equal(t, "end", flow.Edges[3].Target)

	// Positions stack top to bottom.
	for i := 1; i < len(flow.Nodes); i++ {
		assert.Greater(t, flow.Nodes[i].Position.Y, flow.Nodes[i-1].Position.Y)
	}
}

func TestDecompileConditionEdges(t *testing.T) {
	c := newCompiler(t)

	content := `{
		"id": "f", "name": "Branch",
		"steps": [{
			"id": "c1",
			"condition": {
				"expression": "vars.ok",
				"thenSteps": [{"id": "t1", "action": {"type": "click", "target": "#yes"}}],
				"elseSteps": [{"id": "f1", "action": {"type": "click", "target": "#no"}}]
			}
		}],
		"config": {}
	}`

	result := c.DecompileProgram(content)
	require.Empty(t, result.Errors)
	flow := result.Flow

	var trueEdge, falseEdge *schema.GraphEdge
	for i := range flow.Edges {
		switch flow.Edges[i].SourceHandle {
		case schema.HandleTrue:
			trueEdge = &flow.Edges[i]
		case schema.HandleFalse:
			falseEdge = &flow.Edges[i]
		}
	}
	require.NotNil(t, trueEdge)
	require.NotNil(t, falseEdge)
	assert.Equal(t, "c1", trueEdge.Source)
	assert.Equal(t, "t1", trueEdge.Target)
	assert.Equal(t, "f1", falseEdge.Target)

	var cond *schema.GraphNode
	for i := range flow.Nodes {
		if flow.Nodes[i].ID == "c1" {
			cond = &flow.Nodes[i]
		}
	}
	require.NotNil(t, cond)
	assert.Equal(t, schema.NodeTypeIfElse, cond.Type)
	assert.Equal(t, "vars.ok", cond.Data.Config["expression"])
}

func TestDecompileUnknownActionSkipped(t *testing.T) {
	c := newCompiler(t)

	content := `{
		"id": "f", "name": "Mixed",
		"steps": [
			{"id": "s1", "action": {"type": "teleport", "target": "#x"}},
			{"id": "s2", "action": {"type": "click", "target": "#ok"}}
		],
		"config": {}
	}`

	result := c.DecompileProgram(content)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "teleport")
	assert.Equal(t, "s1", result.Errors[0].NodeID)

	// The surviving step still links from start.
	require.Len(t, result.Flow.Nodes, 3)
	assert.Equal(t, "start", result.Flow.Edges[0].Source)
	assert.Equal(t, "s2", result.Flow.Edges[0].Target)
}

func TestDecompileVariables(t *testing.T) {
	c := newCompiler(t)

	content := `{
		"id": "f", "name": "Vars",
		"steps": [],
		"variables": {"retries": 3, "username": "alice", "dryRun": true},
		"config": {}
	}`

	result := c.DecompileProgram(content)
	require.Empty(t, result.Errors)

	defs := result.Flow.Variables
	require.Len(t, defs, 3)
	assert.Equal(t, "dryRun", defs[0].Name)
	assert.Equal(t, "boolean", defs[0].Type)
	assert.Equal(t, "retries", defs[1].Name)
	assert.Equal(t, "number", defs[1].Type)
	assert.Equal(t, "username", defs[2].Name)
	assert.Equal(t, "string", defs[2].Type)
}

func TestDecompileIsDeterministic(t *testing.T) {
	c := newCompiler(t)

	content := `{
		"id": "f", "name": "Stable",
		"steps": [
			{"id": "s1", "action": {"type": "navigate", "target": "https://example.com"}},
			{"id": "s2", "loop": {"type": "count", "count": 2, "body": [
				{"id": "s3", "action": {"type": "click", "target": ".next"}}
			], "maxIterations": 100}}
		],
		"config": {}
	}`

	first := c.DecompileProgram(content)
	second := c.DecompileProgram(content)
	require.Empty(t, first.Errors)
	assert.Equal(t, first.Flow, second.Flow)
}

func TestRoundTripLinear(t *testing.T) {
	c := newCompiler(t)

	flow := linearFlow()
	flow.Variables = []schema.VariableDefinition{
		{Name: "username", Type: "string", DefaultValue: "alice"},
	}

	compiled, err := c.CompileFlow(flow)
	require.NoError(t, err)

	restored := c.DecompileProgram(compiled.Content)
	require.Empty(t, restored.Errors)

	assert.Len(t, restored.Flow.Nodes, len(flow.Nodes))
	assert.Len(t, restored.Flow.Edges, len(flow.Edges))
	assert.Len(t, restored.Flow.Variables, len(flow.Variables))

	recompiled, err := c.CompileFlow(restored.Flow)
	require.NoError(t, err)
	assert.Equal(t, compiled.StepCount, recompiled.StepCount)
}

func TestRoundTripLoop(t *testing.T) {
	c := newCompiler(t)

	flow := testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("loop", schema.NodeTypeLoop, map[string]any{"loopType": "while", "condition": "vars.more == true"}),
			node("click", schema.NodeTypeClick, map[string]any{"selector": ".next"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "loop"),
			portEdge("e2", "loop", "click", schema.HandleBody),
			edge("e3", "loop", "end"),
		},
	)

	compiled, err := c.CompileFlow(flow)
	require.NoError(t, err)
	assert.Equal(t, 2, compiled.StepCount)

	restored := c.DecompileProgram(compiled.Content)
	require.Empty(t, restored.Errors)
	assert.Len(t, restored.Flow.Nodes, len(flow.Nodes))
	assert.Len(t, restored.Flow.Edges, len(flow.Edges))

	var loopNode *schema.GraphNode
	for i := range restored.Flow.Nodes {
		if restored.Flow.Nodes[i].Type == schema.NodeTypeLoop {
			loopNode = &restored.Flow.Nodes[i]
		}
	}
	require.NotNil(t, loopNode)
	assert.Equal(t, "while", loopNode.Data.Config["loopType"])
	assert.Equal(t, "vars.more == true", loopNode.Data.Config["condition"])
}

func TestRoundTripDiamondUnrollsJoinAndTail(t *testing.T) {
	c := newCompiler(t)

	flow := testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("cond", schema.NodeTypeIfElse, map[string]any{"expression": "true"}),
			node("a", schema.NodeTypeClick, map[string]any{"selector": "#a"}),
			node("b", schema.NodeTypeClick, map[string]any{"selector": "#b"}),
			node("join", schema.NodeTypeClick, map[string]any{"selector": "#join"}),
			node("shot", schema.NodeTypeScreenshot, map[string]any{"name": "done"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "cond"),
			portEdge("e2", "cond", "a", schema.HandleTrue),
			portEdge("e3", "cond", "b", schema.HandleFalse),
			edge("e4", "a", "join"),
			edge("e5", "b", "join"),
			edge("e6", "join", "shot"),
			edge("e7", "shot", "end"),
		},
	)

	compiled, err := c.CompileFlow(flow)
	require.NoError(t, err)
	assert.Equal(t, 7, compiled.StepCount)

	// The join and its tail lower into both branches, so the reconstructed
	// graph carries them twice with uniquified ids and one extra edge.
	restored := c.DecompileProgram(compiled.Content)
	require.Empty(t, restored.Errors)
	assert.Len(t, restored.Flow.Nodes, len(flow.Nodes)+2)
	assert.Len(t, restored.Flow.Edges, len(flow.Edges)+1)

	ids := make(map[string]bool)
	clicks, shots := 0, 0
	for _, n := range restored.Flow.Nodes {
		assert.False(t, ids[n.ID], "duplicate node id %s", n.ID)
		ids[n.ID] = true
		switch n.Type {
		case schema.NodeTypeClick:
			clicks++
		case schema.NodeTypeScreenshot:
			shots++
		}
	}
	assert.Equal(t, 4, clicks)
	assert.Equal(t, 2, shots)

	recompiled, err := c.CompileFlow(restored.Flow)
	require.NoError(t, err)
	assert.Equal(t, compiled.StepCount, recompiled.StepCount)
}

func TestRoundTripDropsCommentNodes(t *testing.T) {
	c := newCompiler(t)

	flow := testFlow(
		[]schema.GraphNode{
			node("start", schema.NodeTypeStart, nil),
			node("note", schema.NodeTypeComment, nil),
			node("click", schema.NodeTypeClick, map[string]any{"selector": "#go"}),
			node("end", schema.NodeTypeEnd, nil),
		},
		[]schema.GraphEdge{
			edge("e1", "start", "note"),
			edge("e2", "note", "click"),
			edge("e3", "click", "end"),
		},
	)

	compiled, err := c.CompileFlow(flow)
	require.NoError(t, err)

	restored := c.DecompileProgram(compiled.Content)
	require.Empty(t, restored.Errors)

	for _, n := range restored.Flow.Nodes {
		assert.NotEqual(t, schema.NodeTypeComment, n.Type)
	}
	assert.Len(t, restored.Flow.Nodes, 3)
}

func TestCountSteps(t *testing.T) {
	steps := []schema.StepNode{
		{ID: "a", Action: &schema.ActionStep{Type: "click"}},
		{ID: "c", Condition: &schema.ConditionStep{
			Expression: "true",
			ThenSteps:  []schema.StepNode{{ID: "t", Action: &schema.ActionStep{Type: "click"}}},
			ElseSteps: []schema.StepNode{{ID: "l", Loop: &schema.LoopStep{
				Type: schema.LoopTypeCount,
				Body: []schema.StepNode{{ID: "b", Action: &schema.ActionStep{Type: "click"}}},
			}}},
		}},
	}
	assert.Equal(t, 5, countSteps(steps))
}

func TestCompileContentIsIndentedJSON(t *testing.T) {
	c := newCompiler(t)

	result, err := c.CompileFlow(linearFlow())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Content, "{\n"))
	assert.True(t, json.Valid([]byte(result.Content)))
}
