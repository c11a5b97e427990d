package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marival/stepflow/internal/catalog"
	"github.com/marival/stepflow/internal/compiler"
	"github.com/marival/stepflow/internal/diagram"
	"github.com/marival/stepflow/internal/logging"
	"github.com/marival/stepflow/internal/planner"
	"github.com/marival/stepflow/internal/validation"
	"github.com/marival/stepflow/pkg/mcp"
	"github.com/marival/stepflow/pkg/schema"
)

const usage = `stepflow - flow graph / step program compiler for browser tests

Usage:
  stepflow validate <flow.json>      validate a flow graph
  stepflow compile <flow.json>       compile a flow graph to a step program
  stepflow decompile <program.json>  reconstruct a flow graph from a program
  stepflow plan <flow.json>          print the flat execution order
  stepflow diagram <flow.json>       render the graph (-format mermaid|ascii)
  stepflow serve                     serve the MCP tools over stdio
  stepflow version                   print the version

Use "-" as the file argument to read from stdin.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := loadConfig()
	logger := newLogger(cfg)

	app, err := newApp(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stepflow: %v\n", err)
		os.Exit(1)
	}

	var runErr error
	switch os.Args[1] {
	case "validate":
		runErr = app.runValidate(os.Args[2:])
	case "compile":
		runErr = app.runCompile(os.Args[2:])
	case "decompile":
		runErr = app.runDecompile(os.Args[2:])
	case "plan":
		runErr = app.runPlan(os.Args[2:])
	case "diagram":
		runErr = app.runDiagram(os.Args[2:])
	case "serve":
		runErr = app.runServe()
	case "version":
		printVersion()
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "stepflow: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "stepflow: %v\n", runErr)
		os.Exit(1)
	}
}

// app bundles the wired components behind the subcommands.
type app struct {
	catalog   *catalog.Catalog
	validator *validation.FlowValidator
	documents *validation.DocumentValidator
	compiler  *compiler.Compiler
	planner   *planner.Planner
	logger    *slog.Logger
}

func newApp(logger *slog.Logger) (*app, error) {
	cat, err := catalog.NewDefault()
	if err != nil {
		return nil, err
	}
	validator, err := validation.New(cat)
	if err != nil {
		return nil, err
	}
	documents, err := validation.NewDocumentValidator()
	if err != nil {
		return nil, err
	}
	return &app{
		catalog:   cat,
		validator: validator,
		documents: documents,
		compiler:  compiler.New(cat),
		planner:   planner.New(),
		logger:    logger,
	}, nil
}

func (a *app) runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	result := &schema.ValidationResult{}
	if docErr := a.documents.ValidateDocument(raw); docErr != nil {
		result.AddError(schema.IssueParse, "", docErr.Error())
	} else {
		var flow schema.FlowGraph
		if err := json.Unmarshal(raw, &flow); err != nil {
			return fmt.Errorf("parse flow: %w", err)
		}
		result = a.validator.Validate(&flow)
	}

	if err := printJSON(map[string]any{
		"valid":    result.Valid(),
		"errors":   result.Errors,
		"warnings": result.Warnings,
	}); err != nil {
		return err
	}
	if !result.Valid() {
		os.Exit(1)
	}
	return nil
}

func (a *app) runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	out := fs.String("o", "", "write the serialized program to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := readFlow(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx := logging.WithFlowID(context.Background(), flow.ID)
	result, err := a.compiler.CompileFlow(flow)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logging.LogWith(ctx, a.logger).WarnContext(ctx, w)
	}
	logging.LogWith(ctx, a.logger).InfoContext(ctx, "flow compiled", "step_count", result.StepCount)

	if *out != "" {
		return os.WriteFile(*out, []byte(result.Content+"\n"), 0o644)
	}
	fmt.Println(result.Content)
	return nil
}

func (a *app) runDecompile(args []string) error {
	fs := flag.NewFlagSet("decompile", flag.ExitOnError)
	out := fs.String("o", "", "write the flow graph to a file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	result := a.compiler.DecompileProgram(string(raw))
	ctx := logging.WithFlowID(context.Background(), result.Flow.ID)
	for _, issue := range result.Errors {
		logging.LogWith(ctx, a.logger).WarnContext(ctx, issue.Message, "node_id", issue.NodeID)
	}

	data, err := json.MarshalIndent(result.Flow, "", "  ")
	if err != nil {
		return err
	}
	if *out != "" {
		return os.WriteFile(*out, append(data, '\n'), 0o644)
	}
	fmt.Println(string(data))
	return nil
}

func (a *app) runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := readFlow(fs.Arg(0))
	if err != nil {
		return err
	}

	steps := a.planner.BuildExecutionOrder(flow.Nodes, flow.Edges)
	return printJSON(map[string]any{
		"steps": steps,
		"count": len(steps),
	})
}

func (a *app) runDiagram(args []string) error {
	fs := flag.NewFlagSet("diagram", flag.ExitOnError)
	format := fs.String("format", "mermaid", "output format: mermaid or ascii")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "mermaid" && *format != "ascii" {
		return fmt.Errorf("unknown format %q (want mermaid or ascii)", *format)
	}

	flow, err := readFlow(fs.Arg(0))
	if err != nil {
		return err
	}

	model, err := diagram.Build(flow, a.catalog)
	if err != nil {
		return err
	}
	if *format == "ascii" {
		fmt.Print(diagram.RenderASCII(model))
		return nil
	}
	fmt.Print(diagram.RenderMermaid(model))
	return nil
}

func (a *app) runServe() error {
	srv, err := mcp.NewStepflowServer(mcp.StepflowServerDeps{
		Catalog:   a.catalog,
		Validator: a.validator,
		Documents: a.documents,
		Compiler:  a.compiler,
		Planner:   a.planner,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("serving MCP tools over stdio")
	return srv.Serve(ctx)
}

// readFlow reads and decodes a flow graph from a file or stdin.
func readFlow(path string) (*schema.FlowGraph, error) {
	raw, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var flow schema.FlowGraph
	if err := json.Unmarshal(raw, &flow); err != nil {
		return nil, fmt.Errorf("parse flow: %w", err)
	}
	return &flow, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("missing input file (use \"-\" for stdin)")
	}
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
