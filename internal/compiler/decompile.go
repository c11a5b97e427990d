package compiler

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/marival/stepflow/pkg/schema"
)

// Canvas layout constants for reconstructed graphs. Nodes stack top to
// bottom; nested branches shift right by one column per nesting level.
const (
	layoutBaseX   = 250.0
	layoutColumnW = 260.0
	layoutRowH    = 120.0
)

// actionNodeTypes maps serialized action type tags back to graph node types.
var actionNodeTypes = map[string]schema.NodeType{
	"navigate":      schema.NodeTypeNavigate,
	"click":         schema.NodeTypeClick,
	"input":         schema.NodeTypeInput,
	"selectOption":  schema.NodeTypeSelectOption,
	"hover":         schema.NodeTypeHover,
	"scroll":        schema.NodeTypeScroll,
	"wait":          schema.NodeTypeWait,
	"screenshot":    schema.NodeTypeScreenshot,
	"assertExists":  schema.NodeTypeAssertExists,
	"assertText":    schema.NodeTypeAssertText,
	"assertVisible": schema.NodeTypeAssertVisible,
}

// DecompileProgram reconstructs an editable flow graph from serialized step
// program content. It never fails outright: malformed JSON or unrecognizable
// steps are reported through the result's Errors and the returned Flow is
// always structurally valid, so the editor can open whatever survives.
//
// Reconstruction is pre-order: each step becomes a node linked from its
// predecessor, condition branches hang off the true/false ports, loop bodies
// off the body port, and a synthetic start/end pair brackets the top level.
func (c *Compiler) DecompileProgram(content string) *DecompileResult {
	var program schema.StepProgram
	if err := json.Unmarshal([]byte(content), &program); err != nil {
		result := &DecompileResult{Flow: fallbackFlow()}
		result.Errors = append(result.Errors, schema.ValidationIssue{
			Type:     schema.IssueParse,
			Message:  fmt.Sprintf("parse step program: %v", err),
			Severity: schema.SeverityError,
		})
		return result
	}

	b := &graphBuilder{
		compiler: c,
		seen:     make(map[string]bool),
		y:        layoutRowH,
	}

	startID := b.place(schema.GraphNode{
		ID:   "start",
		Type: schema.NodeTypeStart,
		Data: schema.NodeData{Label: "Start"},
	}, 0)

	last := b.walk(program.Steps, startID, "", 0)

	endID := b.place(schema.GraphNode{
		ID:   "end",
		Type: schema.NodeTypeEnd,
		Data: schema.NodeData{Label: "End"},
	}, 0)
	b.link(last, endID, "")

	flow := &schema.FlowGraph{
		ID:          program.ID,
		Name:        program.Name,
		Description: program.Description,
		Version:     "1.0.0",
		Nodes:       b.nodes,
		Edges:       b.edges,
		Variables:   variableDefinitions(program.Variables),
	}
	if flow.ID == "" {
		flow.ID = uuid.New().String()
	}
	if flow.Name == "" {
		flow.Name = "Recovered Flow"
	}
	if program.CreatedAt != "" || program.UpdatedAt != "" {
		flow.Metadata = &schema.FlowMetadata{
			CreatedAt: program.CreatedAt,
			UpdatedAt: program.UpdatedAt,
		}
	}

	return &DecompileResult{Flow: flow, Errors: b.errors}
}

// graphBuilder accumulates the reconstructed graph. Edge ids are sequential
// so repeated decompilation of the same content is byte-stable.
type graphBuilder struct {
	compiler *Compiler
	nodes    []schema.GraphNode
	edges    []schema.GraphEdge
	errors   []schema.ValidationIssue
	seen     map[string]bool
	nodeSeq  int
	edgeSeq  int
	y        float64
}

// walk emits nodes for a step list, linking the first one from parentID over
// the given port and the rest linearly. Returns the id of the last node
// emitted at this level, or parentID when the list produced nothing.
func (b *graphBuilder) walk(steps []schema.StepNode, parentID, handle string, depth int) string {
	prev := ""
	for i := range steps {
		step := &steps[i]
		node, ok := b.nodeFromStep(step)
		if !ok {
			continue
		}
		id := b.place(node, depth)

		if prev == "" {
			b.link(parentID, id, handle)
		} else {
			b.link(prev, id, "")
		}
		prev = id

		if step.Condition != nil {
			b.walk(step.Condition.ThenSteps, id, schema.HandleTrue, depth+1)
			b.walk(step.Condition.ElseSteps, id, schema.HandleFalse, depth+1)
		}
		if step.Loop != nil {
			b.walk(step.Loop.Body, id, schema.HandleBody, depth+1)
		}
	}
	if prev == "" {
		return parentID
	}
	return prev
}

// place assigns an id, a synthesized position and appends the node. A step
// id already used at another position in the tree gets a fresh suffix so the
// graph keeps unique node ids.
func (b *graphBuilder) place(node schema.GraphNode, depth int) string {
	b.nodeSeq++
	if node.ID == "" {
		node.ID = fmt.Sprintf("n-%d", b.nodeSeq)
	}
	if b.seen[node.ID] {
		node.ID = fmt.Sprintf("%s-%d", node.ID, b.nodeSeq)
	}
	b.seen[node.ID] = true

	node.Position = schema.Position{
		X: layoutBaseX + float64(depth)*layoutColumnW,
		Y: b.y,
	}
	b.y += layoutRowH

	b.nodes = append(b.nodes, node)
	return node.ID
}

func (b *graphBuilder) link(source, target, handle string) {
	b.edgeSeq++
	b.edges = append(b.edges, schema.GraphEdge{
		ID:           fmt.Sprintf("e-%d", b.edgeSeq),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	})
}

func (b *graphBuilder) stepError(id, format string, args ...any) {
	b.errors = append(b.errors, schema.ValidationIssue{
		Type:     schema.IssueParse,
		NodeID:   id,
		Message:  fmt.Sprintf(format, args...),
		Severity: schema.SeverityError,
	})
}

// nodeFromStep converts a step variant back to a graph node. Steps that do
// not map to any node type are reported and skipped.
func (b *graphBuilder) nodeFromStep(step *schema.StepNode) (schema.GraphNode, bool) {
	var (
		typ    schema.NodeType
		config map[string]any
	)

	switch {
	case step.Action != nil:
		var ok bool
		typ, ok = actionNodeTypes[step.Action.Type]
		if !ok {
			b.stepError(step.ID, "unknown action type %q", step.Action.Type)
			return schema.GraphNode{}, false
		}
		config = actionConfig(typ, step.Action)

	case step.Condition != nil:
		typ = schema.NodeTypeIfElse
		config = map[string]any{"expression": step.Condition.Expression}

	case step.Loop != nil:
		typ = schema.NodeTypeLoop
		config = loopConfig(step.Loop)

	case step.Variable != nil:
		switch step.Variable.Operation {
		case schema.VariableOpSet:
			typ = schema.NodeTypeSetVariable
			config = map[string]any{"name": step.Variable.Name}
			if step.Variable.Value != nil {
				config["value"] = step.Variable.Value
			}
		case schema.VariableOpExtract:
			typ = schema.NodeTypeExtractData
			config = map[string]any{
				"name":     step.Variable.Name,
				"selector": step.Variable.Source,
			}
		default:
			b.stepError(step.ID, "unknown variable operation %q", step.Variable.Operation)
			return schema.GraphNode{}, false
		}

	default:
		b.stepError(step.ID, "step has no recognizable variant")
		return schema.GraphNode{}, false
	}

	return schema.GraphNode{
		ID:   step.ID,
		Type: typ,
		Data: schema.NodeData{
			Label:  b.labelFor(step, typ),
			Config: config,
		},
	}, true
}

func (b *graphBuilder) labelFor(step *schema.StepNode, typ schema.NodeType) string {
	if step.Description != "" {
		return step.Description
	}
	if d, err := b.compiler.catalog.Get(typ); err == nil {
		return d.Label
	}
	return string(typ)
}

// actionConfig rebuilds the node config from the flattened target/value
// shape of an action step.
func actionConfig(typ schema.NodeType, a *schema.ActionStep) map[string]any {
	config := map[string]any{}
	switch typ {
	case schema.NodeTypeNavigate:
		config["url"] = a.Target
	case schema.NodeTypeClick, schema.NodeTypeHover,
		schema.NodeTypeAssertExists, schema.NodeTypeAssertVisible:
		config["selector"] = a.Target
	case schema.NodeTypeInput, schema.NodeTypeSelectOption:
		config["selector"] = a.Target
		config["value"] = a.Value
	case schema.NodeTypeScroll:
		config["selector"] = a.Target
		if a.Value != "" {
			config["direction"] = a.Value
		}
	case schema.NodeTypeWait:
		if a.Target != "" {
			config["selector"] = a.Target
		}
		if timeout, err := strconv.Atoi(a.Value); err == nil {
			config["timeout"] = timeout
		}
	case schema.NodeTypeScreenshot:
		config["name"] = a.Value
	case schema.NodeTypeAssertText:
		config["selector"] = a.Target
		config["text"] = a.Value
	}
	return config
}

func loopConfig(l *schema.LoopStep) map[string]any {
	config := map[string]any{"loopType": string(l.Type)}
	switch l.Type {
	case schema.LoopTypeCount:
		config["count"] = l.Count
	case schema.LoopTypeWhile:
		config["condition"] = l.Condition
	case schema.LoopTypeForEach:
		config["collection"] = l.Collection
		config["itemVar"] = l.ItemVar
	}
	if l.MaxIterations > 0 {
		config["maxIterations"] = l.MaxIterations
	}
	return config
}

// variableDefinitions rebuilds sorted variable definitions from the program's
// name → default map. The declared type is inferred from the default value.
func variableDefinitions(vars map[string]any) []schema.VariableDefinition {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]schema.VariableDefinition, 0, len(names))
	for _, name := range names {
		defs = append(defs, schema.VariableDefinition{
			Name:         name,
			Type:         inferType(vars[name]),
			DefaultValue: vars[name],
		})
	}
	return defs
}

func inferType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	}
	return ""
}

// fallbackFlow is the graph returned for unparseable content: a bare
// start → end pair that passes structural validation.
func fallbackFlow() *schema.FlowGraph {
	return &schema.FlowGraph{
		ID:      uuid.New().String(),
		Name:    "Recovered Flow",
		Version: "1.0.0",
		Nodes: []schema.GraphNode{
			{ID: "start", Type: schema.NodeTypeStart, Position: schema.Position{X: layoutBaseX, Y: layoutRowH}, Data: schema.NodeData{Label: "Start"}},
			{ID: "end", Type: schema.NodeTypeEnd, Position: schema.Position{X: layoutBaseX, Y: layoutRowH * 2}, Data: schema.NodeData{Label: "End"}},
		},
		Edges: []schema.GraphEdge{
			{ID: "e-1", Source: "start", Target: "end"},
		},
	}
}
