package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/internal/diagram"
	"github.com/marival/stepflow/internal/logging"
	"github.com/marival/stepflow/pkg/schema"
)

// handleValidate runs the full validation pipeline over a flow graph.
func (s *StepflowServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flow.validate")

	flow, errResult := s.decodeFlow(req)
	if errResult != nil {
		return errResult, nil
	}
	ctx = logging.WithFlowID(ctx, flow.ID)

	result := s.validator.Validate(flow)
	logging.LogWith(ctx, s.logger).DebugContext(ctx, "flow validated",
		"valid", result.Valid(),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
	)

	return marshalResult(map[string]any{
		"valid":    result.Valid(),
		"errors":   issuesOrEmpty(result.Errors),
		"warnings": issuesOrEmpty(result.Warnings),
	})
}

// handleCompile lowers a flow graph into the serialized step program.
func (s *StepflowServer) handleCompile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flow.compile")

	flow, errResult := s.decodeFlow(req)
	if errResult != nil {
		return errResult, nil
	}
	ctx = logging.WithFlowID(ctx, flow.ID)

	result, err := s.compiler.CompileFlow(flow)
	if err != nil {
		logging.LogWith(ctx, s.logger).ErrorContext(ctx, "compile failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("compile failed: %v", err)), nil
	}
	logging.LogWith(ctx, s.logger).DebugContext(ctx, "flow compiled",
		"step_count", result.StepCount,
		"warnings", len(result.Warnings),
	)

	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return marshalResult(map[string]any{
		"content":   result.Content,
		"stepCount": result.StepCount,
		"warnings":  warnings,
	})
}

// handleDecompile reconstructs an editable flow graph from program content.
func (s *StepflowServer) handleDecompile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flow.decompile")

	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content is required"), nil
	}

	result := s.compiler.DecompileProgram(content)
	ctx = logging.WithFlowID(ctx, result.Flow.ID)
	logging.LogWith(ctx, s.logger).DebugContext(ctx, "program decompiled",
		"nodes", len(result.Flow.Nodes),
		"edges", len(result.Flow.Edges),
		"errors", len(result.Errors),
	)

	return marshalResult(map[string]any{
		"flow":   result.Flow,
		"errors": issuesOrEmpty(result.Errors),
	})
}

// handlePlan flattens a flow graph into the annotated execution order.
func (s *StepflowServer) handlePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flow.plan")

	flow, errResult := s.decodeFlow(req)
	if errResult != nil {
		return errResult, nil
	}
	ctx = logging.WithFlowID(ctx, flow.ID)

	steps := s.planner.BuildExecutionOrder(flow.Nodes, flow.Edges)
	logging.LogWith(ctx, s.logger).DebugContext(ctx, "execution order built", "steps", len(steps))

	return marshalResult(map[string]any{
		"steps": steps,
		"count": len(steps),
	})
}

// handleCatalog lists registered node types, optionally filtered by category.
func (s *StepflowServer) handleCatalog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")

	infos := s.catalog.List()
	if category != "" {
		filtered := make([]catalog.Info, 0, len(infos))
		for _, info := range infos {
			if string(info.Category) == category {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	return marshalResult(map[string]any{
		"nodeTypes": infos,
		"count":     len(infos),
	})
}

// handleDiagram renders a flow graph in the requested textual format.
func (s *StepflowServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithTool(ctx, "flow.diagram")

	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError("format is required"), nil
	}
	if format != "mermaid" && format != "ascii" {
		return mcp.NewToolResultError("format must be mermaid or ascii"), nil
	}

	flow, errResult := s.decodeFlow(req)
	if errResult != nil {
		return errResult, nil
	}
	ctx = logging.WithFlowID(ctx, flow.ID)

	model, err := diagram.Build(flow, s.catalog)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("diagram build failed: %v", err)), nil
	}
	logging.LogWith(ctx, s.logger).DebugContext(ctx, "diagram rendered", "format", format)

	if format == "ascii" {
		return mcp.NewToolResultText(diagram.RenderASCII(model)), nil
	}
	return mcp.NewToolResultText(diagram.RenderMermaid(model)), nil
}

// decodeFlow extracts and decodes the flow argument. The document is checked
// against the flow schema before decoding so a malformed graph fails with the
// violation paths instead of silently zero-valuing. Either way it is the
// caller's error, reported through the tool result.
func (s *StepflowServer) decodeFlow(req mcp.CallToolRequest) (*schema.FlowGraph, *mcp.CallToolResult) {
	raw := mcp.ParseStringMap(req, "flow", nil)
	if raw == nil {
		return nil, mcp.NewToolResultError("flow is required")
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid flow: %v", err))
	}
	if err := s.documents.ValidateDocument(data); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid flow: %v", err))
	}
	var flow schema.FlowGraph
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("invalid flow: %v", err))
	}
	return &flow, nil
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
