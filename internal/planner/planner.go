package planner

import (
	"github.com/marival/stepflow/pkg/schema"
)

// maxDepth bounds nesting during planning. Cycles are a validation error;
// the global visited set already guarantees termination, so this only guards
// pathologically deep valid graphs.
const maxDepth = 100

// Planner flattens a flow graph into the ordered, context-annotated step
// list the external execution engine iterates. Unlike the compiler it emits
// no nested tree: loop and condition membership is carried as flags on each
// step, and the flags are monotonic down the walk.
type Planner struct{}

// New creates a Planner.
func New() *Planner {
	return &Planner{}
}

// BuildExecutionOrder walks the graph depth-first from the start node and
// returns every executable node in visit order. Sentinel nodes are skipped
// transparently. A graph without a start node plans to an empty list; the
// missing start is the validator's finding, not the planner's.
func (p *Planner) BuildExecutionOrder(nodes []schema.GraphNode, edges []schema.GraphEdge) []schema.ExecutionStep {
	w := &planWalk{
		nodes:    make(map[string]*schema.GraphNode, len(nodes)),
		outgoing: make(map[string][]schema.GraphEdge),
		visited:  make(map[string]bool),
		steps:    []schema.ExecutionStep{},
	}
	for i := range nodes {
		w.nodes[nodes[i].ID] = &nodes[i]
	}
	for _, e := range edges {
		w.outgoing[e.Source] = append(w.outgoing[e.Source], e)
	}

	var startID string
	for i := range nodes {
		if nodes[i].Type == schema.NodeTypeStart {
			startID = nodes[i].ID
			break
		}
	}
	if startID == "" {
		return w.steps
	}

	w.visited[startID] = true
	if next := w.firstSuccessor(startID); next != "" {
		w.visit(next, frame{})
	}
	return w.steps
}

// frame carries the traversal context for one chain. parentID names the
// enclosing loop or condition node; handle and branch tag only the first
// executable node of the chain and are cleared once a step is emitted.
type frame struct {
	depth       int
	parentID    string
	handle      string
	branch      schema.ConditionBranch
	inLoop      bool
	inCondition bool
}

type planWalk struct {
	nodes    map[string]*schema.GraphNode
	outgoing map[string][]schema.GraphEdge
	visited  map[string]bool
	steps    []schema.ExecutionStep
}

func (w *planWalk) firstSuccessor(id string) string {
	for _, e := range w.outgoing[id] {
		switch e.SourceHandle {
		case schema.HandleTrue, schema.HandleFalse, schema.HandleBody:
			continue
		}
		return e.Target
	}
	return ""
}

func (w *planWalk) branchTargets(id, handle string) []string {
	var targets []string
	for _, e := range w.outgoing[id] {
		if e.SourceHandle == handle {
			targets = append(targets, e.Target)
		}
	}
	return targets
}

// visit walks the chain starting at id. The visited set is global, so a node
// reached from two branches executes once, in the order of first discovery.
func (w *planWalk) visit(id string, f frame) {
	if f.depth > maxDepth {
		return
	}

	for current := id; current != ""; {
		node, ok := w.nodes[current]
		if !ok || w.visited[current] {
			return
		}
		w.visited[current] = true

		if node.Type.IsSentinel() {
			current = w.firstSuccessor(current)
			continue
		}

		w.steps = append(w.steps, schema.ExecutionStep{
			NodeID:          current,
			Node:            *node,
			Depth:           f.depth,
			ParentID:        f.parentID,
			SourceHandle:    f.handle,
			InLoop:          f.inLoop,
			InCondition:     f.inCondition,
			ConditionBranch: f.branch,
		})
		f.handle = ""
		f.branch = ""

		switch node.Type {
		case schema.NodeTypeIfElse:
			for _, target := range w.branchTargets(current, schema.HandleTrue) {
				w.visit(target, frame{
					depth:       f.depth + 1,
					parentID:    current,
					handle:      schema.HandleTrue,
					branch:      schema.BranchTrue,
					inLoop:      f.inLoop,
					inCondition: true,
				})
			}
			for _, target := range w.branchTargets(current, schema.HandleFalse) {
				w.visit(target, frame{
					depth:       f.depth + 1,
					parentID:    current,
					handle:      schema.HandleFalse,
					branch:      schema.BranchFalse,
					inLoop:      f.inLoop,
					inCondition: true,
				})
			}
		case schema.NodeTypeLoop:
			for _, target := range w.branchTargets(current, schema.HandleBody) {
				w.visit(target, frame{
					depth:       f.depth + 1,
					parentID:    current,
					handle:      schema.HandleBody,
					inLoop:      true,
					inCondition: f.inCondition,
				})
			}
		}

		current = w.firstSuccessor(current)
	}
}
