package manifest

import (
	"fmt"
	"strings"
)

// Context holds the variables visible to a template. Values are scalars or
// nested map[string]any. A Context is never mutated once built; Merge
// returns a new one.
type Context map[string]any

// Merge returns c overlaid with overlay. Nested maps merge recursively and
// the overlay wins on scalar conflicts.
func (c Context) Merge(overlay Context) Context {
	return Context(DeepMerge(c, overlay))
}

// Lookup resolves a dotted path such as "service.network".
func (c Context) Lookup(path string) (any, bool) {
	var current any = map[string]any(c)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ServiceFolder is the context entry every declaration is rendered with:
// {service: {folder: "./<base>"}}.
func ServiceFolder(base string) Context {
	return Context{"service": map[string]any{"folder": "./" + base}}
}

// ParseVariables builds a Context from "path=value" assignments. Dotted
// paths nest, so "service.env=prod" yields {service: {env: prod}}. Later
// assignments win.
func ParseVariables(assignments []string) (Context, error) {
	ctx := Context{}
	for _, assignment := range assignments {
		path, value, ok := strings.Cut(assignment, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid variable %q: expected path=value", assignment)
		}
		if !pathPattern.MatchString(path) {
			return nil, fmt.Errorf("invalid variable path %q", path)
		}

		parts := strings.Split(path, ".")
		var entry any = value
		for i := len(parts) - 1; i > 0; i-- {
			entry = map[string]any{parts[i]: entry}
		}
		ctx = ctx.Merge(Context{parts[0]: entry})
	}
	return ctx, nil
}

// DeepMerge recursively merges overlay into base and returns a new map.
// Maps merge key by key; any other value in overlay replaces the base value.
func DeepMerge(base, overlay map[string]any) map[string]any {
	result := copyMap(base)

	for key, overlayValue := range overlay {
		baseValue, exists := result[key]
		if !exists {
			result[key] = deepCopy(overlayValue)
			continue
		}

		baseMap, baseIsMap := asMap(baseValue)
		overlayMap, overlayIsMap := asMap(overlayValue)
		if baseIsMap && overlayIsMap {
			result[key] = DeepMerge(baseMap, overlayMap)
			continue
		}

		result[key] = deepCopy(overlayValue)
	}

	return result
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Context:
		return v, true
	default:
		return nil, false
	}
}

// copyMap creates a shallow copy of a map.
func copyMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

// deepCopy creates a deep copy of any value.
func deepCopy(value any) any {
	switch v := value.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = deepCopy(val)
		}
		return result
	case Context:
		return deepCopy(map[string]any(v))
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = deepCopy(val)
		}
		return result
	case []string:
		result := make([]string, len(v))
		copy(result, v)
		return result
	default:
		return value
	}
}
