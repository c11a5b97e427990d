package schema

// NodeType tags a graph node with its behavior. Every tag maps to exactly one
// catalog descriptor; components never branch on the tag directly.
type NodeType string

const (
	// Sentinel types: structural, never executable.
	NodeTypeStart   NodeType = "start"
	NodeTypeEnd     NodeType = "end"
	NodeTypeComment NodeType = "comment"
	NodeTypeGroup   NodeType = "group"

	// Browser action types.
	NodeTypeNavigate     NodeType = "navigate"
	NodeTypeClick        NodeType = "click"
	NodeTypeInput        NodeType = "input"
	NodeTypeSelectOption NodeType = "selectOption"
	NodeTypeHover        NodeType = "hover"
	NodeTypeScroll       NodeType = "scroll"
	NodeTypeWait         NodeType = "wait"
	NodeTypeScreenshot   NodeType = "screenshot"

	// Assertion types.
	NodeTypeAssertExists  NodeType = "assertExists"
	NodeTypeAssertText    NodeType = "assertText"
	NodeTypeAssertVisible NodeType = "assertVisible"

	// Variable types.
	NodeTypeSetVariable NodeType = "setVariable"
	NodeTypeExtractData NodeType = "extractData"

	// Flow control types.
	NodeTypeIfElse   NodeType = "ifElse"
	NodeTypeLoop     NodeType = "loop"
	NodeTypeParallel NodeType = "parallel"
	NodeTypeSubflow  NodeType = "subflow"
)

// Output port handles used on edges leaving multi-port nodes.
// An empty sourceHandle means the node's single default output.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
	HandleBody  = "body"
)

// Position is the node's canvas location. Presentation-only: no component
// assigns semantic meaning to coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the editable payload of a graph node.
type NodeData struct {
	Label    string         `json:"label"`
	Config   map[string]any `json:"config,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

// GraphNode is a single typed node in a flow graph.
type GraphNode struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// GraphEdge connects two nodes. SourceHandle names the outgoing port on
// multi-port nodes (ifElse, loop, parallel); empty means the default output.
type GraphEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// VariableDefinition declares a flow-scoped variable with its default value.
type VariableDefinition struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"` // string | number | boolean
	DefaultValue any    `json:"defaultValue,omitempty"`
	Description  string `json:"description,omitempty"`
}

// FlowMetadata carries non-semantic flow annotations. Schedule is a cron
// expression for CI runs; the validator checks its syntax but nothing in
// this module acts on it.
type FlowMetadata struct {
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Schedule  string   `json:"schedule,omitempty"`
	Author    string   `json:"author,omitempty"`
}

// FlowGraph is the editable node-and-edge representation of a test scenario.
// It is immutable input to every compiler pass: passes return new graphs or
// programs rather than mutating in place.
type FlowGraph struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Version     string               `json:"version"`
	Nodes       []GraphNode          `json:"nodes"`
	Edges       []GraphEdge          `json:"edges"`
	Variables   []VariableDefinition `json:"variables,omitempty"`
	Metadata    *FlowMetadata        `json:"metadata,omitempty"`
}

// IsSentinel reports whether the type is structural rather than executable.
func (t NodeType) IsSentinel() bool {
	switch t {
	case NodeTypeStart, NodeTypeEnd, NodeTypeComment, NodeTypeGroup:
		return true
	}
	return false
}
