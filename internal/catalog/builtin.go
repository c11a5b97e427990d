package catalog

import (
	"github.com/marival/stepflow/pkg/schema"
)

// RegisterBuiltins registers all builtin node types in the given catalog.
func RegisterBuiltins(c *Catalog) error {
	all := make([]*Descriptor, 0, 24)

	all = append(all, SentinelDescriptors()...)
	all = append(all, ActionDescriptors()...)
	all = append(all, AssertionDescriptors()...)
	all = append(all, VariableDescriptors()...)
	all = append(all, ControlDescriptors()...)

	for _, d := range all {
		if err := c.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// SentinelDescriptors returns the structural node types. All of them lower to
// nothing: they shape the graph but never reach the step program.
func SentinelDescriptors() []*Descriptor {
	return []*Descriptor{
		{
			Type:        schema.NodeTypeStart,
			Category:    CategorySentinel,
			Label:       "Start",
			Description: "Entry point of the flow",
			OutputPorts: []string{"out"},
			Lower:       lowerNothing,
		},
		{
			Type:        schema.NodeTypeEnd,
			Category:    CategorySentinel,
			Label:       "End",
			Description: "Exit point of the flow",
			InputPorts:  []string{"in"},
			Lower:       lowerNothing,
		},
		{
			Type:        schema.NodeTypeComment,
			Category:    CategorySentinel,
			Label:       "Comment",
			Description: "Free-form annotation, ignored at compile time",
			DefaultConfig: map[string]any{
				"text": "",
			},
			Lower: lowerNothing,
		},
		{
			Type:        schema.NodeTypeGroup,
			Category:    CategorySentinel,
			Label:       "Group",
			Description: "Visual grouping container, ignored at compile time",
			Lower:       lowerNothing,
		},
	}
}

func lowerNothing(_ *schema.GraphNode) []schema.StepNode {
	return nil
}

// lowerAction builds the single action fragment shared by all action-like
// descriptors. Target and value are looked up in the node config under the
// given keys; an empty key skips the field.
func lowerAction(actionType string, targetKey, valueKey string) LowerFunc {
	return func(node *schema.GraphNode) []schema.StepNode {
		action := &schema.ActionStep{Type: actionType}
		if targetKey != "" {
			action.Target = configString(node.Data.Config, targetKey)
		}
		if valueKey != "" {
			action.Value = configString(node.Data.Config, valueKey)
		}
		return []schema.StepNode{{
			ID:          node.ID,
			Description: node.Data.Label,
			Action:      action,
		}}
	}
}
