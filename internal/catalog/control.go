package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/marival/stepflow/pkg/schema"
)

// defaultMaxIterations bounds loop bodies when the config does not say otherwise.
const defaultMaxIterations = 100

// ControlDescriptors returns the flow control node types. ifElse and loop
// lower to structural fragments with empty children; the compiler fills the
// children in by port-aware traversal. parallel and subflow have no IR
// representation and lower to nothing, so they are dropped on the forward
// pass and skipped transparently like sentinels.
func ControlDescriptors() []*Descriptor {
	return []*Descriptor{
		{
			Type:        schema.NodeTypeIfElse,
			Category:    CategoryControl,
			Label:       "If / Else",
			Description: "Branch on a condition expression",
			InputPorts:  []string{"in"},
			OutputPorts: []string{schema.HandleTrue, schema.HandleFalse},
			DefaultConfig: map[string]any{
				"expression": "",
				"language":   "cel",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["expression"],
				"properties": {
					"expression": {"type": "string", "minLength": 1},
					"language": {"type": "string", "enum": ["cel", "expr"]}
				}
			}`),
			Lower: func(node *schema.GraphNode) []schema.StepNode {
				return []schema.StepNode{{
					ID:          node.ID,
					Description: node.Data.Label,
					Condition: &schema.ConditionStep{
						Expression: configString(node.Data.Config, "expression"),
						ThenSteps:  []schema.StepNode{},
					},
				}}
			},
		},
		{
			Type:        schema.NodeTypeLoop,
			Category:    CategoryControl,
			Label:       "Loop",
			Description: "Repeat the body by count, while a condition holds, or over a collection",
			InputPorts:  []string{"in"},
			OutputPorts: []string{schema.HandleBody, "next"},
			DefaultConfig: map[string]any{
				"loopType":      string(schema.LoopTypeCount),
				"count":         1,
				"maxIterations": defaultMaxIterations,
			},
			Validate: validateLoopConfig,
			Lower: func(node *schema.GraphNode) []schema.StepNode {
				cfg := node.Data.Config
				loop := &schema.LoopStep{
					Type:          schema.LoopType(configString(cfg, "loopType")),
					Count:         configInt(cfg, "count"),
					Condition:     configString(cfg, "condition"),
					Collection:    configString(cfg, "collection"),
					ItemVar:       configString(cfg, "itemVar"),
					Body:          []schema.StepNode{},
					MaxIterations: configInt(cfg, "maxIterations"),
				}
				if loop.Type == "" {
					loop.Type = schema.LoopTypeCount
				}
				if loop.MaxIterations <= 0 {
					loop.MaxIterations = defaultMaxIterations
				}
				return []schema.StepNode{{
					ID:          node.ID,
					Description: node.Data.Label,
					Loop:        loop,
				}}
			},
		},
		{
			Type:        schema.NodeTypeParallel,
			Category:    CategoryControl,
			Label:       "Parallel",
			Description: "Fan out into concurrent branches (not represented in the step program)",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			Lower:       lowerNothing,
		},
		{
			Type:        schema.NodeTypeSubflow,
			Category:    CategoryControl,
			Label:       "Subflow",
			Description: "Reference another flow (not represented in the step program)",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"flowId": "",
			},
			Lower: lowerNothing,
		},
	}
}

// validateLoopConfig enforces mode-specific loop constraints that a flat JSON
// Schema cannot express.
func validateLoopConfig(config map[string]any) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	loopType := schema.LoopType(configString(config, "loopType"))
	if loopType == "" {
		loopType = schema.LoopTypeCount
	}

	switch loopType {
	case schema.LoopTypeCount:
		if configInt(config, "count") <= 0 {
			result.AddError(schema.IssueConfig, "", "count loop requires count > 0")
		}
	case schema.LoopTypeWhile:
		if configString(config, "condition") == "" {
			result.AddError(schema.IssueConfig, "", "while loop requires a condition")
		}
	case schema.LoopTypeForEach:
		if configString(config, "collection") == "" {
			result.AddError(schema.IssueConfig, "", "forEach loop requires a collection")
		}
		if configString(config, "itemVar") == "" {
			result.AddError(schema.IssueConfig, "", "forEach loop requires an itemVar")
		}
	default:
		result.AddError(schema.IssueConfig, "",
			fmt.Sprintf("unknown loop type %q", loopType))
	}

	if maxIter := configInt(config, "maxIterations"); maxIter < 0 {
		result.AddError(schema.IssueConfig, "", "maxIterations must not be negative")
	} else if maxIter > 10000 {
		result.AddWarning(schema.IssueConfig, "",
			fmt.Sprintf("high maxIterations (%d) may cause very long runs", maxIter))
	}

	return result
}
