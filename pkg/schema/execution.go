package schema

// ConditionBranch identifies which side of an ifElse a step descends from.
type ConditionBranch string

const (
	BranchTrue  ConditionBranch = "true"
	BranchFalse ConditionBranch = "false"
)

// ExecutionStep is one flattened, context-annotated entry produced by the
// planner. The external execution engine iterates these sequentially and uses
// the flags to reason about retries and branches without re-deriving graph
// structure. InLoop and InCondition are monotonic: once a step is inside a
// loop or condition, all its descendants stay flagged.
type ExecutionStep struct {
	NodeID          string          `json:"nodeId"`
	Node            GraphNode       `json:"node"`
	Depth           int             `json:"depth"`
	ParentID        string          `json:"parentId,omitempty"`
	SourceHandle    string          `json:"sourceHandle,omitempty"`
	InLoop          bool            `json:"inLoop"`
	InCondition     bool            `json:"inCondition"`
	ConditionBranch ConditionBranch `json:"conditionBranch,omitempty"`
}
