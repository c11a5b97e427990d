package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/internal/compiler"
	"github.com/marival/stepflow/internal/planner"
	"github.com/marival/stepflow/internal/validation"
	"github.com/marival/stepflow/pkg/schema"
)

// StepflowServerDeps holds the dependencies for creating a StepflowServer.
// Nil fields are filled with defaults built over the built-in catalog.
type StepflowServerDeps struct {
	Catalog   *catalog.Catalog
	Validator *validation.FlowValidator
	Documents *validation.DocumentValidator
	Compiler  *compiler.Compiler
	Planner   *planner.Planner
	Logger    *slog.Logger
}

// StepflowServer wraps an MCP server with flow tooling handlers.
type StepflowServer struct {
	catalog   *catalog.Catalog
	validator *validation.FlowValidator
	documents *validation.DocumentValidator
	compiler  *compiler.Compiler
	planner   *planner.Planner
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewStepflowServer creates a StepflowServer with all 6 tools registered.
func NewStepflowServer(deps StepflowServerDeps) (*StepflowServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	cat := deps.Catalog
	if cat == nil {
		var err error
		cat, err = catalog.NewDefault()
		if err != nil {
			return nil, err
		}
	}
	validator := deps.Validator
	if validator == nil {
		var err error
		validator, err = validation.New(cat)
		if err != nil {
			return nil, err
		}
	}
	documents := deps.Documents
	if documents == nil {
		var err error
		documents, err = validation.NewDocumentValidator()
		if err != nil {
			return nil, err
		}
	}
	comp := deps.Compiler
	if comp == nil {
		comp = compiler.New(cat)
	}
	plan := deps.Planner
	if plan == nil {
		plan = planner.New()
	}

	s := &StepflowServer{
		catalog:   cat,
		validator: validator,
		documents: documents,
		compiler:  comp,
		planner:   plan,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"stepflow",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Stepflow compiles browser test flow graphs to step programs and back. Use flow.validate to check a graph, flow.compile to produce the serialized step program, flow.decompile to reconstruct an editable graph from program content, flow.plan to get the flat execution order, flow.catalog to list the available node types, and flow.diagram to render a graph as Mermaid or ASCII."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *StepflowServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *StepflowServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 6 registered MCP tools as ServerTool entries.
func (s *StepflowServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: compileTool(), Handler: s.handleCompile},
		{Tool: decompileTool(), Handler: s.handleDecompile},
		{Tool: planTool(), Handler: s.handlePlan},
		{Tool: catalogTool(), Handler: s.handleCatalog},
		{Tool: diagramTool(), Handler: s.handleDiagram},
	}
}

// --- Tool definitions ---

func validateTool() mcp.Tool {
	return mcp.NewTool("flow.validate",
		mcp.WithDescription("Validate a flow graph: structure, node configs, expressions, schedule"),
		mcp.WithObject("flow", mcp.Required(), mcp.Description("The flow graph document")),
	)
}

func compileTool() mcp.Tool {
	return mcp.NewTool("flow.compile",
		mcp.WithDescription("Compile a flow graph into a serialized step program"),
		mcp.WithObject("flow", mcp.Required(), mcp.Description("The flow graph document")),
	)
}

func decompileTool() mcp.Tool {
	return mcp.NewTool("flow.decompile",
		mcp.WithDescription("Reconstruct an editable flow graph from step program content"),
		mcp.WithString("content", mcp.Required(), mcp.Description("Serialized step program JSON")),
	)
}

func planTool() mcp.Tool {
	return mcp.NewTool("flow.plan",
		mcp.WithDescription("Flatten a flow graph into the annotated execution order"),
		mcp.WithObject("flow", mcp.Required(), mcp.Description("The flow graph document")),
	)
}

func catalogTool() mcp.Tool {
	return mcp.NewTool("flow.catalog",
		mcp.WithDescription("List the registered node types with ports and default configs"),
		mcp.WithString("category", mcp.Description("Filter by category"),
			mcp.Enum(
				string(catalog.CategorySentinel),
				string(catalog.CategoryAction),
				string(catalog.CategoryAssertion),
				string(catalog.CategoryVariable),
				string(catalog.CategoryControl),
			),
		),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("flow.diagram",
		mcp.WithDescription("Render a flow graph as Mermaid flowchart syntax or ASCII art"),
		mcp.WithObject("flow", mcp.Required(), mcp.Description("The flow graph document")),
		mcp.WithString("format", mcp.Required(),
			mcp.Enum("mermaid", "ascii"),
			mcp.Description("Output format"),
		),
	)
}

// issuesOrEmpty keeps issue lists JSON-friendly: empty array instead of null.
func issuesOrEmpty(issues []schema.ValidationIssue) []schema.ValidationIssue {
	if issues == nil {
		return []schema.ValidationIssue{}
	}
	return issues
}
