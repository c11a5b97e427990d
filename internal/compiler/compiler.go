package compiler

import (
	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/pkg/schema"
)

// maxDepth bounds traversal nesting. Validation performs exact cycle
// detection before compilation, so on valid input this never fires; it stays
// as a defense-in-depth guard against graphs that skipped validation.
const maxDepth = 100

// Compiler transforms between the editable flow graph and the serialized
// step program, in both directions. Both passes are pure: they never mutate
// their input and are safe to run concurrently.
type Compiler struct {
	catalog *catalog.Catalog
}

// New creates a Compiler over the given catalog.
func New(cat *catalog.Catalog) *Compiler {
	return &Compiler{catalog: cat}
}

// CompileResult is the output of the forward pass. StepCount counts every
// step node actually emitted, including nested ones; sentinels and comments
// never count.
type CompileResult struct {
	Program   *schema.StepProgram `json:"program"`
	Content   string              `json:"content"`
	StepCount int                 `json:"stepCount"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// DecompileResult is the output of the reverse pass. On malformed input the
// Flow is a minimal empty-but-valid fallback and Errors explains what went
// wrong, so the editor can always display something.
type DecompileResult struct {
	Flow   *schema.FlowGraph        `json:"flow"`
	Errors []schema.ValidationIssue `json:"errors,omitempty"`
}

// countSteps counts all step nodes in a tree, descending into condition
// branches and loop bodies.
func countSteps(steps []schema.StepNode) int {
	n := 0
	for i := range steps {
		n++
		if c := steps[i].Condition; c != nil {
			n += countSteps(c.ThenSteps)
			n += countSteps(c.ElseSteps)
		}
		if l := steps[i].Loop; l != nil {
			n += countSteps(l.Body)
		}
	}
	return n
}
