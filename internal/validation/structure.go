package validation

import (
	"fmt"

	"github.com/marival/stepflow/pkg/schema"
)

// checkStructure runs the pure graph checks: empty flow, duplicate ids,
// missing start, dangling edges, cycles, isolated nodes, unreachable
// subgraphs. Each check is independent and accumulates into the result.
func checkStructure(flow *schema.FlowGraph, result *schema.ValidationResult) {
	if len(flow.Nodes) == 0 {
		result.AddError(schema.IssueEmptyFlow, "", "flow has no nodes")
		return
	}

	checkNodeIDs(flow, result)
	checkEdges(flow, result)
	checkStartPresence(flow, result)
	checkCycles(flow, result)
	checkConnectivity(flow, result)
}

func checkNodeIDs(flow *schema.FlowGraph, result *schema.ValidationResult) {
	seen := make(map[string]bool, len(flow.Nodes))
	for _, node := range flow.Nodes {
		if node.ID == "" {
			result.AddError(schema.IssueDuplicateID, "", "node has empty id")
			continue
		}
		if seen[node.ID] {
			result.AddError(schema.IssueDuplicateID, node.ID,
				fmt.Sprintf("duplicate node id %q", node.ID))
		}
		seen[node.ID] = true
	}
}

func checkEdges(flow *schema.FlowGraph, result *schema.ValidationResult) {
	nodeIDs := make(map[string]bool, len(flow.Nodes))
	for _, node := range flow.Nodes {
		nodeIDs[node.ID] = true
	}

	seen := make(map[string]bool, len(flow.Edges))
	for _, edge := range flow.Edges {
		if edge.ID != "" {
			if seen[edge.ID] {
				result.AddError(schema.IssueDuplicateID, "",
					fmt.Sprintf("duplicate edge id %q", edge.ID))
			}
			seen[edge.ID] = true
		}
		if !nodeIDs[edge.Source] {
			result.AddError(schema.IssueDanglingEdge, edge.Source,
				fmt.Sprintf("edge %q references non-existent source %q", edge.ID, edge.Source))
		}
		if !nodeIDs[edge.Target] {
			result.AddError(schema.IssueDanglingEdge, edge.Target,
				fmt.Sprintf("edge %q references non-existent target %q", edge.ID, edge.Target))
		}
	}
}

func checkStartPresence(flow *schema.FlowGraph, result *schema.ValidationResult) {
	for _, node := range flow.Nodes {
		if node.Type == schema.NodeTypeStart {
			return
		}
	}
	result.AddError(schema.IssueMissingStart, "", "flow has no start node")
}

// checkCycles performs a depth-first traversal with an explicit recursion
// stack. Traversal begins at every node with in-degree zero; components that
// are entirely cyclic have no such node, so a second sweep starts from any
// node still unvisited. Revisiting a node that is still on the stack is a
// cycle. Cycles are hard errors: the compiler and planner assume termination
// via graph shape, not via cycle tolerance.
func checkCycles(flow *schema.FlowGraph, result *schema.ValidationResult) {
	adjacency := make(map[string][]string, len(flow.Nodes))
	inDegree := make(map[string]int, len(flow.Nodes))
	nodeIDs := make(map[string]bool, len(flow.Nodes))

	for _, node := range flow.Nodes {
		nodeIDs[node.ID] = true
	}
	for _, edge := range flow.Edges {
		if !nodeIDs[edge.Source] || !nodeIDs[edge.Target] {
			continue // dangling refs already reported
		}
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(flow.Nodes))

	var visit func(id string)
	visit = func(id string) {
		state[id] = onStack
		for _, next := range adjacency[id] {
			switch state[next] {
			case unvisited:
				visit(next)
			case onStack:
				result.AddError(schema.IssueCycle, next,
					fmt.Sprintf("cycle detected through node %q", next))
			}
		}
		state[id] = done
	}

	for _, node := range flow.Nodes {
		if inDegree[node.ID] == 0 && state[node.ID] == unvisited {
			visit(node.ID)
		}
	}
	// Fully cyclic components have no in-degree-zero entry point.
	for _, node := range flow.Nodes {
		if state[node.ID] == unvisited {
			visit(node.ID)
		}
	}
}

// checkConnectivity warns about isolated non-sentinel nodes and about
// connected subgraphs that start cannot reach. Neither blocks execution:
// disconnected decoration nodes are common and must not block save.
func checkConnectivity(flow *schema.FlowGraph, result *schema.ValidationResult) {
	connected := make(map[string]bool, len(flow.Nodes))
	adjacency := make(map[string][]string, len(flow.Nodes))
	for _, edge := range flow.Edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	// Reachability from every start node.
	reachable := make(map[string]bool, len(flow.Nodes))
	var queue []string
	for _, node := range flow.Nodes {
		if node.Type == schema.NodeTypeStart {
			reachable[node.ID] = true
			queue = append(queue, node.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[id] {
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, node := range flow.Nodes {
		if node.Type.IsSentinel() {
			continue
		}
		if !connected[node.ID] {
			result.AddWarning(schema.IssueIsolatedNode, node.ID,
				fmt.Sprintf("node %q has no connections", node.ID))
			continue
		}
		if !reachable[node.ID] {
			result.AddWarning(schema.IssueUnreachable, node.ID,
				fmt.Sprintf("node %q is not reachable from start", node.ID))
		}
	}
}
