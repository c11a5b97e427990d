package validation

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/internal/expressions"
	"github.com/marival/stepflow/pkg/schema"
)

// FlowValidator certifies that a flow graph is structurally executable before
// compilation or planning. Checks accumulate into one result and never
// short-circuit each other: the editor shows everything that is wrong at
// once. Errors always block execution; warnings never do.
type FlowValidator struct {
	catalog *catalog.Catalog
	engines *expressions.Set
}

// New creates a FlowValidator over the given catalog.
func New(cat *catalog.Catalog) (*FlowValidator, error) {
	engines, err := expressions.NewSet()
	if err != nil {
		return nil, err
	}
	return &FlowValidator{catalog: cat, engines: engines}, nil
}

// Validate runs all checks against the flow and returns the aggregated
// result. It never returns a Go error for user data problems; callers
// inspect the result.
func (v *FlowValidator) Validate(flow *schema.FlowGraph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if flow == nil {
		result.AddError(schema.IssueEmptyFlow, "", "flow is nil")
		return result
	}

	checkStructure(flow, result)
	v.checkNodes(flow, result)
	v.checkMetadata(flow, result)

	return result
}

// checkNodes validates each node's type and config against the catalog, plus
// the expressions embedded in control and extraction configs.
func (v *FlowValidator) checkNodes(flow *schema.FlowGraph, result *schema.ValidationResult) {
	for i := range flow.Nodes {
		node := &flow.Nodes[i]

		// ValidateConfig errors only on an unregistered type, so one lookup
		// covers both the type check and the config check.
		cfgResult, err := v.catalog.ValidateConfig(node.Type, node.Data.Config)
		if err != nil {
			result.AddError(schema.IssueUnknownType, node.ID,
				fmt.Sprintf("unknown node type %q", node.Type))
			continue
		}
		mergeWithNode(result, cfgResult, node.ID)

		v.checkExpressions(node, result)
	}
}

// checkExpressions verifies that condition and transform expressions at least
// compile in their declared language. Empty expressions are left to the
// config checks; this only covers syntax.
func (v *FlowValidator) checkExpressions(node *schema.GraphNode, result *schema.ValidationResult) {
	cfg := node.Data.Config

	switch node.Type {
	case schema.NodeTypeIfElse:
		v.checkCondition(node.ID, configString(cfg, "expression"), configString(cfg, "language"), result)

	case schema.NodeTypeLoop:
		if configString(cfg, "loopType") == string(schema.LoopTypeWhile) {
			v.checkCondition(node.ID, configString(cfg, "condition"), configString(cfg, "language"), result)
		}

	case schema.NodeTypeExtractData:
		if transform := configString(cfg, "transform"); transform != "" {
			jq, _ := v.engines.ForLanguage("jq")
			if err := jq.Check(transform); err != nil {
				result.AddError(schema.IssueExpression, node.ID,
					fmt.Sprintf("invalid jq transform: %v", err))
			}
		}
	}
}

func (v *FlowValidator) checkCondition(nodeID, expression, language string, result *schema.ValidationResult) {
	if expression == "" {
		return
	}

	engine, ok := v.engines.ForLanguage(language)
	if !ok {
		result.AddError(schema.IssueExpression, nodeID,
			fmt.Sprintf("unknown expression language %q", language))
		return
	}

	if err := engine.Check(expression); err != nil {
		result.AddError(schema.IssueExpression, nodeID,
			fmt.Sprintf("invalid %s condition: %v", engine.Name(), err))
	}
}

// checkMetadata validates non-semantic flow annotations. A broken CI schedule
// should not block saving or running the flow, so it only warns.
func (v *FlowValidator) checkMetadata(flow *schema.FlowGraph, result *schema.ValidationResult) {
	if flow.Metadata == nil || flow.Metadata.Schedule == "" {
		return
	}

	if _, err := cron.ParseStandard(flow.Metadata.Schedule); err != nil {
		result.AddWarning(schema.IssueSchedule, "",
			fmt.Sprintf("invalid cron schedule %q: %v", flow.Metadata.Schedule, err))
	}
}

// mergeWithNode merges a per-node result, stamping each issue with the node ID.
func mergeWithNode(dst, src *schema.ValidationResult, nodeID string) {
	if src == nil {
		return
	}
	for _, e := range src.Errors {
		if e.NodeID == "" {
			e.NodeID = nodeID
		}
		dst.Errors = append(dst.Errors, e)
	}
	for _, w := range src.Warnings {
		if w.NodeID == "" {
			w.NodeID = nodeID
		}
		dst.Warnings = append(dst.Warnings, w)
	}
}

// configString returns config[key] as a string, or "" when absent.
func configString(config map[string]any, key string) string {
	if config == nil {
		return ""
	}
	s, _ := config[key].(string)
	return s
}
