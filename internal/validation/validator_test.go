package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/pkg/schema"
)

func newValidator(t *testing.T) *FlowValidator {
	t.Helper()
	cat, err := catalog.NewDefault()
	require.NoError(t, err)
	v, err := New(cat)
	require.NoError(t, err)
	return v
}

func TestValidator_NilFlow(t *testing.T) {
	v := newValidator(t)
	result := v.Validate(nil)
	assert.False(t, result.Valid())
}

func TestValidator_ValidLinearFlow(t *testing.T) {
	v := newValidator(t)
	result := v.Validate(linearFlow())
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestValidator_UnknownNodeType(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Nodes = append(flow.Nodes, node("weird", "teleport"))
	flow.Edges = append(flow.Edges, edge("e9", "click", "weird"))

	result := v.Validate(flow)
	assert.False(t, result.Valid())
	assert.True(t, result.HasIssue(schema.IssueUnknownType))
}

func TestValidator_ConfigErrorsCarryNodeID(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	// Click node with no selector.
	flow.Nodes[2].Data.Config = map[string]any{}

	result := v.Validate(flow)
	assert.False(t, result.Valid())

	found := false
	for _, e := range result.Errors {
		if e.Type == schema.IssueConfig && e.NodeID == "click" {
			found = true
		}
	}
	assert.True(t, found, "config issue should be stamped with the node id")
}

func TestValidator_BadCELExpression(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Nodes = append(flow.Nodes, schema.GraphNode{
		ID:   "branch",
		Type: schema.NodeTypeIfElse,
		Data: schema.NodeData{Config: map[string]any{"expression": "vars.count >"}},
	})
	flow.Edges = append(flow.Edges, edge("eb", "click", "branch"))

	result := v.Validate(flow)
	assert.False(t, result.Valid())
	assert.True(t, result.HasIssue(schema.IssueExpression))
}

func TestValidator_ExprLanguageSelected(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Nodes = append(flow.Nodes, schema.GraphNode{
		ID:   "branch",
		Type: schema.NodeTypeIfElse,
		Data: schema.NodeData{Config: map[string]any{
			"expression": `vars.items | filter(# > 2) | len() > 0`,
			"language":   "expr",
		}},
	})
	flow.Edges = append(flow.Edges, edge("eb", "click", "branch"))

	result := v.Validate(flow)
	assert.True(t, result.Valid(), "%+v", result.Errors)
}

func TestValidator_UnknownExpressionLanguage(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Nodes = append(flow.Nodes, schema.GraphNode{
		ID:   "branch",
		Type: schema.NodeTypeIfElse,
		Data: schema.NodeData{Config: map[string]any{
			"expression": "true",
			"language":   "lua",
		}},
	})
	flow.Edges = append(flow.Edges, edge("eb", "click", "branch"))

	result := v.Validate(flow)
	assert.False(t, result.Valid())
	assert.True(t, result.HasIssue(schema.IssueExpression))
	// The config schema also rejects the language enum violation.
	assert.True(t, result.HasIssue(schema.IssueConfig))
}

func TestValidator_WhileLoopConditionChecked(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Nodes = append(flow.Nodes, schema.GraphNode{
		ID:   "lp",
		Type: schema.NodeTypeLoop,
		Data: schema.NodeData{Config: map[string]any{
			"loopType":  "while",
			"condition": "vars.retries <",
		}},
	})
	flow.Edges = append(flow.Edges, edge("el", "click", "lp"))

	result := v.Validate(flow)
	assert.False(t, result.Valid())
	assert.True(t, result.HasIssue(schema.IssueExpression))
}

func TestValidator_ExtractDataTransformChecked(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Nodes = append(flow.Nodes, schema.GraphNode{
		ID:   "ex",
		Type: schema.NodeTypeExtractData,
		Data: schema.NodeData{Config: map[string]any{
			"name":      "total",
			"selector":  ".price",
			"transform": ".price | tonumber",
		}},
	})
	flow.Edges = append(flow.Edges, edge("ee", "click", "ex"))

	result := v.Validate(flow)
	assert.True(t, result.Valid(), "%+v", result.Errors)

	flow.Nodes[len(flow.Nodes)-1].Data.Config["transform"] = ".price["
	result = v.Validate(flow)
	assert.False(t, result.Valid())
	assert.True(t, result.HasIssue(schema.IssueExpression))
}

func TestValidator_ScheduleWarning(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Metadata = &schema.FlowMetadata{Schedule: "not a cron spec"}

	result := v.Validate(flow)
	assert.True(t, result.Valid(), "bad schedule warns, never blocks")
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, schema.IssueSchedule, result.Warnings[0].Type)
}

func TestValidator_ValidSchedule(t *testing.T) {
	v := newValidator(t)
	flow := linearFlow()
	flow.Metadata = &schema.FlowMetadata{Schedule: "0 6 * * 1-5"}

	result := v.Validate(flow)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
}

func TestValidator_IsolatedClickScenario(t *testing.T) {
	// start → click → end plus one disconnected click: valid with a warning.
	v := newValidator(t)
	flow := &schema.FlowGraph{
		ID:      "f",
		Name:    "isolated",
		Version: "1",
		Nodes: []schema.GraphNode{
			node("start", schema.NodeTypeStart),
			{ID: "click", Type: schema.NodeTypeClick, Data: schema.NodeData{Config: map[string]any{"selector": "#a"}}},
			node("end", schema.NodeTypeEnd),
			{ID: "stray", Type: schema.NodeTypeClick, Data: schema.NodeData{Config: map[string]any{"selector": "#b"}}},
		},
		Edges: []schema.GraphEdge{
			edge("e1", "start", "click"),
			edge("e2", "click", "end"),
		},
	}

	result := v.Validate(flow)
	assert.True(t, result.Valid())
	assert.NotEmpty(t, result.Warnings)
}
