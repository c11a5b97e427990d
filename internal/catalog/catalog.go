package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/marival/stepflow/pkg/schema"
)

// Catalog is the thread-safe node type registry. It is populated once at
// startup and read concurrently by the validator, compiler and planner.
type Catalog struct {
	mu          sync.RWMutex
	descriptors map[schema.NodeType]*Descriptor
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{
		descriptors: make(map[schema.NodeType]*Descriptor),
	}
}

// NewDefault creates a Catalog with all builtin node types registered.
func NewDefault() (*Catalog, error) {
	c := New()
	if err := RegisterBuiltins(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Register adds a descriptor to the catalog. The config schema, when present,
// is compiled here so ValidateConfig never pays compilation cost per call.
// Returns an error on duplicate type.
func (c *Catalog) Register(d *Descriptor) error {
	if d == nil {
		return schema.NewError(schema.ErrCodeValidation, "descriptor is nil")
	}
	if d.Type == "" {
		return schema.NewError(schema.ErrCodeValidation, "descriptor type is empty")
	}
	if d.Lower == nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "descriptor %q has no lowering", d.Type)
	}

	if len(d.ConfigSchema) > 0 {
		compiled, err := compileConfigSchema(d.Type, d.ConfigSchema)
		if err != nil {
			return schema.NewErrorf(schema.ErrCodeValidation,
				"descriptor %q has invalid config schema", d.Type).WithCause(err)
		}
		d.compiled = compiled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.descriptors[d.Type]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "node type %q already registered", d.Type)
	}

	c.descriptors[d.Type] = d
	return nil
}

// Get retrieves a descriptor by node type.
func (c *Catalog) Get(typ schema.NodeType) (*Descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.descriptors[typ]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeUnknownNodeType, "node type %q not registered", typ)
	}
	return d, nil
}

// Has checks if a node type is registered.
func (c *Catalog) Has(typ schema.NodeType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.descriptors[typ]
	return ok
}

// List returns info for all registered node types, sorted by type tag.
func (c *Catalog) List() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]Info, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		infos = append(infos, Info{
			Type:        d.Type,
			Category:    d.Category,
			Label:       d.Label,
			Description: d.Description,
			InputPorts:  d.InputPorts,
			OutputPorts: d.OutputPorts,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Type < infos[j].Type
	})
	return infos
}

// Count returns the number of registered node types.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.descriptors)
}

// CreateNode constructs a new GraphNode of the given type at the given
// position, applying the descriptor's default config and then the overrides.
// Fails fast on an unregistered type: that is a programming error (catalog
// and graph versions out of sync), not a user data problem.
func (c *Catalog) CreateNode(typ schema.NodeType, pos schema.Position, overrides map[string]any) (*schema.GraphNode, error) {
	d, err := c.Get(typ)
	if err != nil {
		return nil, err
	}

	config := make(map[string]any, len(d.DefaultConfig)+len(overrides))
	for k, v := range d.DefaultConfig {
		config[k] = v
	}
	for k, v := range overrides {
		config[k] = v
	}

	return &schema.GraphNode{
		ID:       uuid.New().String(),
		Type:     typ,
		Position: pos,
		Data: schema.NodeData{
			Label:  d.Label,
			Config: config,
		},
	}, nil
}

// ValidateConfig checks a node config against its descriptor. The custom
// validator takes precedence when present; otherwise the config is checked
// against the descriptor's JSON Schema (required fields, numeric bounds).
// A type with neither is always valid. Returns an error only for an
// unregistered type.
func (c *Catalog) ValidateConfig(typ schema.NodeType, config map[string]any) (*schema.ValidationResult, error) {
	d, err := c.Get(typ)
	if err != nil {
		return nil, err
	}

	if d.Validate != nil {
		result := d.Validate(config)
		if result == nil {
			result = &schema.ValidationResult{}
		}
		return result, nil
	}

	result := &schema.ValidationResult{}
	if d.compiled == nil {
		return result, nil
	}

	doc, err := toJSONValue(config)
	if err != nil {
		result.AddError(schema.IssueConfig, "", fmt.Sprintf("config is not serializable: %v", err))
		return result, nil
	}

	if verr := d.compiled.Validate(doc); verr != nil {
		for _, msg := range schemaViolations(verr) {
			result.AddError(schema.IssueConfig, "", msg)
		}
	}
	return result, nil
}

// Lower invokes the descriptor's lowering for a node. Fails fast on an
// unregistered type, mirroring CreateNode.
func (c *Catalog) Lower(node *schema.GraphNode) ([]schema.StepNode, error) {
	if node == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "node is nil")
	}
	d, err := c.Get(node.Type)
	if err != nil {
		return nil, err
	}
	return d.Lower(node), nil
}

// compileConfigSchema compiles a descriptor's embedded config schema.
func compileConfigSchema(typ schema.NodeType, raw json.RawMessage) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal config schema: %w", err)
	}

	url := fmt.Sprintf("https://stepflow.dev/schemas/config/%s.json", typ)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add config schema resource: %w", err)
	}
	return compiler.Compile(url)
}

// toJSONValue round-trips a Go value through JSON encoding/decoding so that
// numeric values become json.Number (required by the jsonschema library).
func toJSONValue(v any) (any, error) {
	if v == nil {
		v = map[string]any{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// schemaViolations walks a jsonschema validation error tree and collects leaf
// messages with their instance locations.
func schemaViolations(err error) []string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, schemaViolations(cause)...)
	}
	return violations
}
