package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/marival/stepflow/pkg/schema"
)

// CompileFlow lowers a flow graph into a step program. Traversal starts at
// the start node and follows outgoing edges in declaration order; sentinel
// nodes and structural nodes with no step representation (parallel, subflow)
// are skipped transparently. Condition branches and loop bodies each walk
// with their own copy of the visited set, so diamond-shaped rejoins appear
// in every branch that reaches them.
//
// The only hard failure is a node whose type is not registered in the
// catalog; everything else degrades to a warning.
func (c *Compiler) CompileFlow(flow *schema.FlowGraph) (*CompileResult, error) {
	if flow == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "flow is nil")
	}

	w := &walker{
		compiler: c,
		nodes:    make(map[string]*schema.GraphNode, len(flow.Nodes)),
		outgoing: make(map[string][]schema.GraphEdge),
	}
	for i := range flow.Nodes {
		w.nodes[flow.Nodes[i].ID] = &flow.Nodes[i]
	}
	for _, e := range flow.Edges {
		w.outgoing[e.Source] = append(w.outgoing[e.Source], e)
	}

	var steps []schema.StepNode
	start := findStart(flow)
	if start == nil {
		w.warn("flow has no start node; compiled program is empty")
	} else {
		next := w.firstSuccessor(start.ID)
		if next == "" {
			w.warn("start node has no outgoing edge; compiled program is empty")
		} else {
			var err error
			steps, err = w.chain(next, map[string]bool{start.ID: true}, 0)
			if err != nil {
				return nil, err
			}
		}
	}
	if steps == nil {
		steps = []schema.StepNode{}
	}

	program := &schema.StepProgram{
		ID:          flow.ID,
		Name:        flow.Name,
		Description: flow.Description,
		Steps:       steps,
		Variables:   variableDefaults(flow.Variables),
		Config:      map[string]any{},
	}
	if flow.Metadata != nil {
		program.CreatedAt = flow.Metadata.CreatedAt
		program.UpdatedAt = flow.Metadata.UpdatedAt
	}

	content, err := json.MarshalIndent(program, "", "  ")
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "serialize step program").WithCause(err)
	}

	return &CompileResult{
		Program:   program,
		Content:   string(content),
		StepCount: countSteps(steps),
		Warnings:  w.warnings,
	}, nil
}

// walker holds the per-compilation traversal state.
type walker struct {
	compiler *Compiler
	nodes    map[string]*schema.GraphNode
	outgoing map[string][]schema.GraphEdge
	warnings []string
}

func (w *walker) warn(format string, args ...any) {
	w.warnings = append(w.warnings, fmt.Sprintf(format, args...))
}

// firstSuccessor returns the target of the first outgoing edge whose handle
// is not a named branch port, or "" when the node is terminal.
func (w *walker) firstSuccessor(id string) string {
	for _, e := range w.outgoing[id] {
		switch e.SourceHandle {
		case schema.HandleTrue, schema.HandleFalse, schema.HandleBody:
			continue
		}
		return e.Target
	}
	return ""
}

// branchTargets returns the targets of outgoing edges on the named port.
func (w *walker) branchTargets(id, handle string) []string {
	var targets []string
	for _, e := range w.outgoing[id] {
		if e.SourceHandle == handle {
			targets = append(targets, e.Target)
		}
	}
	return targets
}

// chain lowers the linear chain starting at id. The visited set is owned by
// this chain; branch and body recursions get copies, so a node reachable
// from several branches lowers once per branch while true cycles still stop.
func (w *walker) chain(id string, visited map[string]bool, depth int) ([]schema.StepNode, error) {
	if depth > maxDepth {
		w.warn("nesting depth limit %d exceeded at node %q; truncating", maxDepth, id)
		return nil, nil
	}

	var steps []schema.StepNode
	for current := id; current != ""; {
		node, ok := w.nodes[current]
		if !ok {
			w.warn("edge references missing node %q; stopping chain", current)
			break
		}
		if visited[current] {
			w.warn("node %q revisited; stopping chain", current)
			break
		}
		visited[current] = true

		switch {
		case node.Type.IsSentinel():
			current = w.firstSuccessor(current)

		case node.Type == schema.NodeTypeParallel, node.Type == schema.NodeTypeSubflow:
			w.warn("node %q (%s) has no step representation; following first branch", current, node.Type)
			current = w.firstSuccessor(current)

		case node.Type == schema.NodeTypeIfElse:
			step, err := w.lowerOne(node)
			if err != nil {
				return nil, err
			}
			thenSteps, err := w.branches(current, schema.HandleTrue, visited, depth)
			if err != nil {
				return nil, err
			}
			elseSteps, err := w.branches(current, schema.HandleFalse, visited, depth)
			if err != nil {
				return nil, err
			}
			if thenSteps == nil {
				thenSteps = []schema.StepNode{}
			}
			step.Condition.ThenSteps = thenSteps
			step.Condition.ElseSteps = elseSteps
			steps = append(steps, *step)
			// Both branches converge on the downstream end; the chain
			// never continues past a condition node.
			current = ""

		case node.Type == schema.NodeTypeLoop:
			step, err := w.lowerOne(node)
			if err != nil {
				return nil, err
			}
			body, err := w.branches(current, schema.HandleBody, visited, depth)
			if err != nil {
				return nil, err
			}
			if body == nil {
				body = []schema.StepNode{}
			}
			step.Loop.Body = body
			steps = append(steps, *step)
			current = w.firstSuccessor(current)

		default:
			lowered, err := w.compiler.catalog.Lower(node)
			if err != nil {
				return nil, err
			}
			steps = append(steps, lowered...)
			current = w.firstSuccessor(current)
		}
	}
	return steps, nil
}

// branches compiles every chain hanging off the named port, each with its
// own copy of the visited set.
func (w *walker) branches(id, handle string, visited map[string]bool, depth int) ([]schema.StepNode, error) {
	var steps []schema.StepNode
	for _, target := range w.branchTargets(id, handle) {
		sub, err := w.chain(target, copyVisited(visited), depth+1)
		if err != nil {
			return nil, err
		}
		steps = append(steps, sub...)
	}
	return steps, nil
}

// lowerOne lowers a node expected to produce exactly one step.
func (w *walker) lowerOne(node *schema.GraphNode) (*schema.StepNode, error) {
	lowered, err := w.compiler.catalog.Lower(node)
	if err != nil {
		return nil, err
	}
	if len(lowered) != 1 {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"node type %q lowered to %d steps, want 1", node.Type, len(lowered)).WithNode(node.ID)
	}
	return &lowered[0], nil
}

func findStart(flow *schema.FlowGraph) *schema.GraphNode {
	for i := range flow.Nodes {
		if flow.Nodes[i].Type == schema.NodeTypeStart {
			return &flow.Nodes[i]
		}
	}
	return nil
}

func copyVisited(visited map[string]bool) map[string]bool {
	cp := make(map[string]bool, len(visited))
	for k, v := range visited {
		cp[k] = v
	}
	return cp
}

// variableDefaults flattens variable definitions to a name → default map.
func variableDefaults(defs []schema.VariableDefinition) map[string]any {
	if len(defs) == 0 {
		return nil
	}
	vars := make(map[string]any, len(defs))
	for _, d := range defs {
		vars[d.Name] = d.DefaultValue
	}
	return vars
}
