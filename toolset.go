package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/armatrix/taskagent/llm"
)

type filterMode int

const (
	filterAll filterMode = iota
	filterExcept
	filterOnly
)

// ToolFilter selects a subset of a registry: every tool, every tool except
// some names, or exactly the listed names.
type ToolFilter struct {
	mode  filterMode
	names []string
}

// AllTools selects every registered tool.
func AllTools() ToolFilter {
	return ToolFilter{mode: filterAll}
}

// AllToolsExcept selects every registered tool but the named ones.
func AllToolsExcept(names ...string) ToolFilter {
	return ToolFilter{mode: filterExcept, names: names}
}

// OnlyTools selects exactly the named tools.
func OnlyTools(names ...string) ToolFilter {
	return ToolFilter{mode: filterOnly, names: names}
}

// ParseToolFilter reads the list form used in configuration: ["*"] for all
// tools, ["*", "!Task"] for all but Task, or plain names for an allowlist.
// An empty list means all tools.
func ParseToolFilter(spec []string) (ToolFilter, error) {
	if len(spec) == 0 {
		return AllTools(), nil
	}
	wildcard := false
	var excluded, included []string
	for _, s := range spec {
		s = strings.TrimSpace(s)
		switch {
		case s == "*":
			wildcard = true
		case strings.HasPrefix(s, "!"):
			excluded = append(excluded, strings.TrimPrefix(s, "!"))
		case s != "":
			included = append(included, s)
		}
	}
	switch {
	case wildcard && len(included) > 0:
		return ToolFilter{}, fmt.Errorf("%w: %q mixes * with tool names", ErrInvalidFilter, spec)
	case !wildcard && len(excluded) > 0:
		return ToolFilter{}, fmt.Errorf("%w: %q excludes tools without *", ErrInvalidFilter, spec)
	case wildcard && len(excluded) > 0:
		return AllToolsExcept(excluded...), nil
	case wildcard:
		return AllTools(), nil
	}
	return OnlyTools(included...), nil
}

// String renders the filter in its list form.
func (f ToolFilter) String() string {
	switch f.mode {
	case filterExcept:
		parts := []string{"*"}
		for _, n := range f.names {
			parts = append(parts, "!"+n)
		}
		return strings.Join(parts, ",")
	case filterOnly:
		return strings.Join(f.names, ",")
	}
	return "*"
}

// Resolve applies f to the registry. Every name the filter mentions must be
// registered; otherwise ErrUnknownTool is returned. A selected tool whose
// schema failed to compile yields ErrInvalidSchema.
func (r *ToolRegistry) Resolve(f ToolFilter) (*ToolSet, error) {
	for _, name := range f.names {
		if !r.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
	}
	mentioned := make(map[string]bool, len(f.names))
	for _, name := range f.names {
		mentioned[name] = true
	}

	set := &ToolSet{registry: r, allowed: make(map[string]bool)}
	for _, name := range r.Names() {
		keep := true
		switch f.mode {
		case filterExcept:
			keep = !mentioned[name]
		case filterOnly:
			keep = mentioned[name]
		}
		if keep {
			if entry := r.get(name); entry != nil && entry.schemaErr != nil {
				return nil, entry.schemaErr
			}
			set.names = append(set.names, name)
			set.allowed[name] = true
		}
	}
	return set, nil
}

// ToolSet is the resolved subset of a registry one agent may use. Tools
// outside the set are neither advertised to the model nor executable.
type ToolSet struct {
	registry *ToolRegistry
	names    []string
	allowed  map[string]bool
}

// Names returns the tool names in registration order.
func (s *ToolSet) Names() []string {
	return append([]string(nil), s.names...)
}

// Contains reports whether name is part of the set.
func (s *ToolSet) Contains(name string) bool {
	return s.allowed[name]
}

// Specs returns the tool definitions advertised to the model.
func (s *ToolSet) Specs() []llm.ToolSpec {
	return s.registry.specs(s.names)
}

// Call executes a tool on behalf of the model. It never returns nil: unknown
// tools, tools outside the set, invalid arguments and execution errors are
// reported as structured error results.
func (s *ToolSet) Call(ctx context.Context, name string, args json.RawMessage) *ToolResult {
	if !s.registry.Has(name) {
		return errorBody("Unknown tool: " + name)
	}
	if !s.allowed[name] {
		return errorBody(fmt.Sprintf("Tool '%s' is not available to this agent", name))
	}

	result, err := s.registry.Execute(ctx, name, args)
	var argErr *ArgumentError
	switch {
	case errors.As(err, &argErr):
		return errorBody(fmt.Sprintf("Tool '%s' argument error: %v", name, argErr.Err))
	case err != nil:
		return errorBody(fmt.Sprintf("Tool '%s' runtime error: %v", name, err))
	case result == nil:
		return TextResult("")
	}
	return result
}

func errorBody(msg string) *ToolResult {
	return JSONResult(map[string]string{"error": msg}, true)
}
