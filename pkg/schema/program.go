package schema

// StepProgram is the JSON-serializable step program compiled from a FlowGraph.
// This is the compatibility-critical wire format consumed by the external
// execution engine and the persistence layer; field shapes and omission rules
// must stay stable.
type StepProgram struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Steps       []StepNode     `json:"steps"`
	Variables   map[string]any `json:"variables,omitempty"` // name → default value
	Config      map[string]any `json:"config"`
	CreatedAt   string         `json:"createdAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt,omitempty"`
}

// StepNode is the IR node: a tagged variant over action, condition, loop and
// variable. Exactly one of the four pointer fields is set. Condition branches
// and loop bodies nest children, so a program is a tree, not a flat list.
type StepNode struct {
	ID          string         `json:"id"`
	Description string         `json:"description,omitempty"`
	Action      *ActionStep    `json:"action,omitempty"`
	Condition   *ConditionStep `json:"condition,omitempty"`
	Loop        *LoopStep      `json:"loop,omitempty"`
	Variable    *VariableStep  `json:"variable,omitempty"`
}

// ActionStep is a single browser interaction or assertion.
type ActionStep struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
}

// ConditionStep branches on an expression. ElseSteps is omitted from the
// serialized form (not emitted as an empty array) when the graph has no
// false-branch edges.
type ConditionStep struct {
	Expression string     `json:"expression"`
	ThenSteps  []StepNode `json:"thenSteps"`
	ElseSteps  []StepNode `json:"elseSteps,omitempty"`
}

// LoopType enumerates the supported loop modes.
type LoopType string

const (
	LoopTypeCount   LoopType = "count"
	LoopTypeWhile   LoopType = "while"
	LoopTypeForEach LoopType = "forEach"
)

// LoopStep repeats its body by count, while-condition, or over a collection.
type LoopStep struct {
	Type          LoopType   `json:"type"`
	Count         int        `json:"count,omitempty"`
	Condition     string     `json:"condition,omitempty"`
	Collection    string     `json:"collection,omitempty"`
	ItemVar       string     `json:"itemVar,omitempty"`
	Body          []StepNode `json:"body"`
	MaxIterations int        `json:"maxIterations"`
}

// VariableOp enumerates variable step operations.
type VariableOp string

const (
	VariableOpSet     VariableOp = "set"
	VariableOpExtract VariableOp = "extract"
)

// VariableStep sets a variable to a literal value or extracts one from the
// page via a source selector.
type VariableStep struct {
	Operation VariableOp `json:"operation"`
	Name      string     `json:"name"`
	Value     any        `json:"value,omitempty"`
	Source    string     `json:"source,omitempty"`
}

// Kind returns which variant of the step is populated, or "" when none is.
func (s *StepNode) Kind() string {
	switch {
	case s.Action != nil:
		return "action"
	case s.Condition != nil:
		return "condition"
	case s.Loop != nil:
		return "loop"
	case s.Variable != nil:
		return "variable"
	}
	return ""
}
