package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compileSchema compiles a tool input schema. A fresh compiler is used per
// schema to avoid resource collisions.
func compileSchema(inputSchema map[string]any) (*jsonschema.Schema, error) {
	if len(inputSchema) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(inputSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	const url = "mem://tool/schema"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile(url)
}

// validateArguments checks raw against the compiled schema. Obvious scalar
// mismatches models tend to produce ("5" for 5, "true" for true) are coerced
// before a second attempt. It returns the arguments to execute with.
func validateArguments(sch *jsonschema.Schema, inputSchema map[string]any, raw json.RawMessage) (json.RawMessage, error) {
	if sch == nil {
		return raw, nil
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	firstErr := sch.Validate(inst)
	if firstErr == nil {
		return raw, nil
	}

	args, ok := inst.(map[string]any)
	if !ok {
		return nil, flattenValidationError(firstErr)
	}
	coerced := coerceArgs(args, inputSchema)
	b, err := json.Marshal(coerced)
	if err != nil {
		return nil, flattenValidationError(firstErr)
	}
	inst, err = jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil || sch.Validate(inst) != nil {
		return nil, flattenValidationError(firstErr)
	}
	return b, nil
}

// coerceArgs attempts simple type coercions on top-level properties.
func coerceArgs(args map[string]any, inputSchema map[string]any) map[string]any {
	props, _ := inputSchema["properties"].(map[string]any)
	out := make(map[string]any, len(args))
	for k, v := range args {
		prop, _ := props[k].(map[string]any)
		typ, _ := prop["type"].(string)
		out[k] = coerceValue(v, typ)
	}
	return out
}

func coerceValue(v any, targetType string) any {
	switch targetType {
	case "number", "integer":
		if s, ok := v.(string); ok {
			var n json.Number
			if err := json.Unmarshal([]byte(s), &n); err == nil {
				return n
			}
		}
	case "string":
		if n, ok := v.(json.Number); ok {
			return n.String()
		}
	case "boolean":
		if s, ok := v.(string); ok {
			switch strings.ToLower(s) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	}
	return v
}

// flattenValidationError turns the multi-line validator output into one line.
func flattenValidationError(err error) error {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	if len(lines) > 1 {
		lines = lines[1:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(l), "- ")
	}
	return fmt.Errorf("%s", strings.Join(lines, "; "))
}
