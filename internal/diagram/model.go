package diagram

// NodeKind classifies a diagram node; it decides the rendered shape.
type NodeKind string

const (
	NodeKindStart     NodeKind = "start"
	NodeKindEnd       NodeKind = "end"
	NodeKindComment   NodeKind = "comment"
	NodeKindAction    NodeKind = "action"
	NodeKindAssertion NodeKind = "assertion"
	NodeKindVariable  NodeKind = "variable"
	NodeKindCondition NodeKind = "condition"
	NodeKindLoop      NodeKind = "loop"
	NodeKindParallel  NodeKind = "parallel"
	NodeKindSubflow   NodeKind = "subflow"
)

// Model is the intermediate representation used by all renderers.
// Levels groups node ids by traversal depth for the level-based layouts.
type Model struct {
	Title  string
	Nodes  []*Node
	Edges  []Edge
	Levels [][]string
}

// Node is a single flow node in the diagram.
type Node struct {
	ID     string
	Label  string
	Kind   NodeKind
	Issues *IssueOverlay
}

// IssueOverlay carries validation annotations already stamped on the node.
type IssueOverlay struct {
	Errors   int
	Warnings int
}

// Edge connects two nodes. Label names the source port for branch edges.
type Edge struct {
	From  string
	To    string
	Label string
}
