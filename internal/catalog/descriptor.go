package catalog

import (
	"encoding/json"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/marival/stepflow/pkg/schema"
)

// Category groups node types for the editor palette.
type Category string

const (
	CategorySentinel  Category = "sentinel"
	CategoryAction    Category = "action"
	CategoryAssertion Category = "assertion"
	CategoryVariable  Category = "variable"
	CategoryControl   Category = "control"
)

// ValidateFunc is a descriptor-specific config validator. When present it
// replaces the generic JSON-Schema check for that type.
type ValidateFunc func(config map[string]any) *schema.ValidationResult

// LowerFunc converts one graph node into its IR fragments. Lowering is pure
// and has no graph context: structural fragments (condition, loop) come back
// with empty children and the compiler fills them in by port-aware traversal.
type LowerFunc func(node *schema.GraphNode) []schema.StepNode

// Descriptor is a registry entry describing one node type: its port shape,
// default configuration, config schema, and lowering. Descriptors are
// immutable after registration and are the single polymorphism point — every
// node behaves according to its descriptor rather than through type-specific
// branching scattered across the compiler.
type Descriptor struct {
	Type          schema.NodeType
	Category      Category
	Label         string
	Description   string
	InputPorts    []string
	OutputPorts   []string
	DefaultConfig map[string]any
	ConfigSchema  json.RawMessage
	Validate      ValidateFunc
	Lower         LowerFunc

	// compiled is the pre-compiled ConfigSchema, set during registration.
	compiled *jsonschema.Schema
}

// Info is a summary of a registered descriptor for listing.
type Info struct {
	Type        schema.NodeType `json:"type"`
	Category    Category        `json:"category"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	InputPorts  []string        `json:"inputPorts,omitempty"`
	OutputPorts []string        `json:"outputPorts,omitempty"`
}

// configString returns config[key] as a string, or "" when absent or not a string.
func configString(config map[string]any, key string) string {
	if config == nil {
		return ""
	}
	s, _ := config[key].(string)
	return s
}

// configInt returns config[key] as an int, tolerating float64 from JSON decoding.
func configInt(config map[string]any, key string) int {
	if config == nil {
		return 0
	}
	switch v := config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}
