package catalog

import (
	"encoding/json"

	"github.com/marival/stepflow/pkg/schema"
)

// VariableDescriptors returns the node types that read or write flow variables.
func VariableDescriptors() []*Descriptor {
	return []*Descriptor{
		{
			Type:        schema.NodeTypeSetVariable,
			Category:    CategoryVariable,
			Label:       "Set Variable",
			Description: "Set a flow variable to a literal value",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"name":  "",
				"value": "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"value": {}
				}
			}`),
			Lower: func(node *schema.GraphNode) []schema.StepNode {
				var value any
				if node.Data.Config != nil {
					value = node.Data.Config["value"]
				}
				return []schema.StepNode{{
					ID:          node.ID,
					Description: node.Data.Label,
					Variable: &schema.VariableStep{
						Operation: schema.VariableOpSet,
						Name:      configString(node.Data.Config, "name"),
						Value:     value,
					},
				}}
			},
		},
		{
			Type:        schema.NodeTypeExtractData,
			Category:    CategoryVariable,
			Label:       "Extract Data",
			Description: "Extract a value from the page into a flow variable",
			InputPorts:  []string{"in"},
			OutputPorts: []string{"out"},
			DefaultConfig: map[string]any{
				"name":     "",
				"selector": "",
			},
			ConfigSchema: json.RawMessage(`{
				"type": "object",
				"required": ["name", "selector"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"selector": {"type": "string", "minLength": 1},
					"attribute": {"type": "string"},
					"transform": {"type": "string"}
				}
			}`),
			Lower: func(node *schema.GraphNode) []schema.StepNode {
				return []schema.StepNode{{
					ID:          node.ID,
					Description: node.Data.Label,
					Variable: &schema.VariableStep{
						Operation: schema.VariableOpExtract,
						Name:      configString(node.Data.Config, "name"),
						Source:    configString(node.Data.Config, "selector"),
					},
				}}
			},
		},
	}
}
