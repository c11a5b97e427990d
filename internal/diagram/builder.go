package diagram

import (
	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/pkg/schema"
)

// Build constructs a diagram Model from a flow graph. The catalog supplies
// category information for shape selection; nodes of unregistered types
// render as plain actions rather than failing the whole diagram.
func Build(flow *schema.FlowGraph, cat *catalog.Catalog) (*Model, error) {
	if flow == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "flow is nil")
	}

	nodes := make([]*Node, 0, len(flow.Nodes))
	for i := range flow.Nodes {
		nodes = append(nodes, flowNode(&flow.Nodes[i], cat))
	}

	edges := make([]Edge, 0, len(flow.Edges))
	for _, e := range flow.Edges {
		edges = append(edges, Edge{From: e.Source, To: e.Target, Label: e.SourceHandle})
	}

	return &Model{
		Title:  flow.Name,
		Nodes:  nodes,
		Edges:  edges,
		Levels: buildLevels(flow),
	}, nil
}

func flowNode(n *schema.GraphNode, cat *catalog.Catalog) *Node {
	label := n.Data.Label
	if label == "" {
		label = string(n.Type)
	}

	node := &Node{
		ID:    n.ID,
		Label: label,
		Kind:  kindFor(n.Type, cat),
	}
	if len(n.Data.Errors) > 0 || len(n.Data.Warnings) > 0 {
		node.Issues = &IssueOverlay{
			Errors:   len(n.Data.Errors),
			Warnings: len(n.Data.Warnings),
		}
	}
	return node
}

func kindFor(typ schema.NodeType, cat *catalog.Catalog) NodeKind {
	switch typ {
	case schema.NodeTypeStart:
		return NodeKindStart
	case schema.NodeTypeEnd:
		return NodeKindEnd
	case schema.NodeTypeComment, schema.NodeTypeGroup:
		return NodeKindComment
	case schema.NodeTypeIfElse:
		return NodeKindCondition
	case schema.NodeTypeLoop:
		return NodeKindLoop
	case schema.NodeTypeParallel:
		return NodeKindParallel
	case schema.NodeTypeSubflow:
		return NodeKindSubflow
	}

	if cat != nil {
		if d, err := cat.Get(typ); err == nil {
			switch d.Category {
			case catalog.CategoryAssertion:
				return NodeKindAssertion
			case catalog.CategoryVariable:
				return NodeKindVariable
			}
		}
	}
	return NodeKindAction
}

// buildLevels groups node ids by BFS depth from the start nodes. Nodes not
// reachable from any start form a trailing level so they still render.
func buildLevels(flow *schema.FlowGraph) [][]string {
	outgoing := make(map[string][]string)
	for _, e := range flow.Edges {
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}
	known := make(map[string]bool, len(flow.Nodes))
	for i := range flow.Nodes {
		known[flow.Nodes[i].ID] = true
	}

	var frontier []string
	for i := range flow.Nodes {
		if flow.Nodes[i].Type == schema.NodeTypeStart {
			frontier = append(frontier, flow.Nodes[i].ID)
		}
	}

	var levels [][]string
	seen := make(map[string]bool)
	for len(frontier) > 0 {
		var level, next []string
		for _, id := range frontier {
			if seen[id] || !known[id] {
				continue
			}
			seen[id] = true
			level = append(level, id)
			next = append(next, outgoing[id]...)
		}
		if len(level) > 0 {
			levels = append(levels, level)
		}
		frontier = next
	}

	var rest []string
	for i := range flow.Nodes {
		if !seen[flow.Nodes[i].ID] {
			rest = append(rest, flow.Nodes[i].ID)
		}
	}
	if len(rest) > 0 {
		levels = append(levels, rest)
	}
	return levels
}
