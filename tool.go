package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/armatrix/taskagent/internal/schema"
	"github.com/armatrix/taskagent/llm"
)

// Tool is the generic interface for agent tools. The type parameter T defines
// the input struct that will be automatically deserialized from JSON.
type Tool[T any] interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input T) (*ToolResult, error)
}

// ToolResult is the output of a tool execution.
type ToolResult struct {
	Content  string
	IsError  bool
	Metadata map[string]any
}

// TextResult is a convenience constructor for a text-only tool result.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: text}
}

// ErrorResult is a convenience constructor for an error tool result.
func ErrorResult(text string) *ToolResult {
	return &ToolResult{Content: text, IsError: true}
}

// JSONResult renders v as the result content.
func JSONResult(v any, isError bool) *ToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return ErrorResult(fmt.Sprintf("encode result: %s", err))
	}
	return &ToolResult{Content: string(b), IsError: isError}
}

// ToolFunc is the type-erased execute function stored in the registry.
type ToolFunc func(ctx context.Context, raw json.RawMessage) (*ToolResult, error)

// ToolOption adjusts how a tool is registered.
type ToolOption func(*toolEntry)

// Exclusive marks a tool that must never run concurrently with other calls of
// the same batch: delegation and tools that write shared state.
func Exclusive() ToolOption {
	return func(e *toolEntry) { e.exclusive = true }
}

// SkipValidation disables schema validation of arguments. The tool is then
// responsible for reporting bad input itself.
func SkipValidation() ToolOption {
	return func(e *toolEntry) { e.skipValidation = true }
}

// toolEntry is the type-erased wrapper stored in the registry.
type toolEntry struct {
	name           string
	description    string
	schema         map[string]any
	validator      *jsonschema.Schema
	exclusive      bool
	skipValidation bool
	schemaErr      error
	execute        ToolFunc
}

// ToolRegistry manages registered tools. It is concurrent-safe.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*toolEntry
	order []string // preserve registration order
}

// NewToolRegistry creates a new empty ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]*toolEntry),
	}
}

// RegisterTool registers a generic tool into the registry.
// The input type T is used to auto-generate a JSON Schema.
func RegisterTool[T any](r *ToolRegistry, tool Tool[T], opts ...ToolOption) {
	r.RegisterRaw(tool.Name(), tool.Description(), schema.Generate[T](),
		func(ctx context.Context, raw json.RawMessage) (*ToolResult, error) {
			var input T
			if err := json.Unmarshal(raw, &input); err != nil {
				return ErrorResult(fmt.Sprintf("invalid input: %s", err.Error())), nil
			}
			return tool.Execute(ctx, input)
		}, opts...)
}

// RegisterRaw registers a tool with a pre-built schema and execute function.
// Registering an existing name replaces the tool but keeps its position.
func (r *ToolRegistry) RegisterRaw(name, description string, inputSchema map[string]any, execute ToolFunc, opts ...ToolOption) {
	entry := &toolEntry{
		name:        name,
		description: description,
		schema:      inputSchema,
		execute:     execute,
	}
	for _, opt := range opts {
		opt(entry)
	}
	if !entry.skipValidation {
		var err error
		if entry.validator, err = compileSchema(inputSchema); err != nil {
			entry.schemaErr = fmt.Errorf("%w: %s: %v", ErrInvalidSchema, name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = entry
}

// Execute runs a tool by name with the given raw JSON input. Arguments are
// validated against the tool schema first.
func (r *ToolRegistry) Execute(ctx context.Context, name string, input json.RawMessage) (*ToolResult, error) {
	entry := r.get(name)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if entry.schemaErr != nil {
		return nil, entry.schemaErr
	}
	args, err := validateArguments(entry.validator, entry.schema, input)
	if err != nil {
		return nil, &ArgumentError{Tool: name, Err: err}
	}
	return entry.execute(ctx, args)
}

// Has reports whether a tool is registered under name.
func (r *ToolRegistry) Has(name string) bool {
	return r.get(name) != nil
}

// Names returns the names of all registered tools in registration order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Specs returns the advertised definitions of all tools in registration order.
func (r *ToolRegistry) Specs() []llm.ToolSpec {
	return r.specs(r.Names())
}

func (r *ToolRegistry) specs(names []string) []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]llm.ToolSpec, 0, len(names))
	for _, name := range names {
		entry, ok := r.tools[name]
		if !ok {
			continue
		}
		result = append(result, llm.ToolSpec{
			Name:        entry.name,
			Description: entry.description,
			Parameters:  entry.schema,
		})
	}
	return result
}

func (r *ToolRegistry) exclusive(name string) bool {
	entry := r.get(name)
	return entry != nil && entry.exclusive
}

func (r *ToolRegistry) get(name string) *toolEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}
