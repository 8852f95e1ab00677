package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/sprig/v3"
)

// placeholderPattern matches {{ expression }} and {% statement %} markers.
var placeholderPattern = regexp.MustCompile(`\{\{(.*?)\}\}|\{%(.*?)%\}`)

// pathPattern matches a dotted variable path such as service.network.
var pathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z_][A-Za-z0-9_-]*)*$`)

// filters are the string to string functions from sprig usable after a pipe.
var filters = stringFilters()

func stringFilters() map[string]func(string) string {
	out := make(map[string]func(string) string)
	for name, fn := range sprig.TxtFuncMap() {
		if f, ok := fn.(func(string) string); ok {
			out[name] = f
		}
	}
	return out
}

// RenderErrorKind classifies a placeholder failure.
type RenderErrorKind int

// Placeholder failure kinds.
const (
	UndefinedVariable RenderErrorKind = iota + 1
	UnknownFilter
	InvalidPlaceholder
	NonScalarValue
)

// Sentinels matched by errors.Is against a *RenderError.
var (
	ErrUndefinedVariable  = errors.New("undefined variable")
	ErrUnknownFilter      = errors.New("unknown filter")
	ErrInvalidPlaceholder = errors.New("invalid placeholder")
	ErrNonScalarValue     = errors.New("non-scalar value")
)

func (k RenderErrorKind) sentinel() error {
	switch k {
	case UndefinedVariable:
		return ErrUndefinedVariable
	case UnknownFilter:
		return ErrUnknownFilter
	case NonScalarValue:
		return ErrNonScalarValue
	default:
		return ErrInvalidPlaceholder
	}
}

// RenderFailure is one placeholder that could not be expanded.
type RenderFailure struct {
	Kind RenderErrorKind

	// Placeholder is the raw matched text, e.g. "{{ service.port }}".
	Placeholder string

	// Path is the variable path or filter name at fault.
	Path string
}

func (f RenderFailure) String() string {
	if f.Path == "" {
		return fmt.Sprintf("%v %s", f.Kind.sentinel(), f.Placeholder)
	}
	return fmt.Sprintf("%v %s", f.Kind.sentinel(), f.Path)
}

// RenderError reports every placeholder in a template that failed.
type RenderError struct {
	Failures []RenderFailure
}

func (e *RenderError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.String()
	}
	return strings.Join(msgs, ", ")
}

// Kind is the kind of the first failure.
func (e *RenderError) Kind() RenderErrorKind {
	if len(e.Failures) == 0 {
		return InvalidPlaceholder
	}
	return e.Failures[0].Kind
}

// Paths returns the variable path or filter name of every failure.
func (e *RenderError) Paths() []string {
	paths := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		paths[i] = f.Path
	}
	return paths
}

// Is matches the sentinel of any failure's kind.
func (e *RenderError) Is(target error) bool {
	for _, f := range e.Failures {
		if f.Kind.sentinel() == target {
			return true
		}
	}
	return false
}

// Render expands every {{ path }} and {{ path | filter | filter }}
// placeholder in text against ctx. Text outside placeholders is copied
// unchanged. Either every placeholder resolves or a *RenderError listing all
// failures is returned; there is no partial substitution.
// This function operates on raw text BEFORE YAML parsing.
func Render(text string, ctx Context) (string, error) {
	var failures []RenderFailure

	result := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		value, failure := expand(match, ctx)
		if failure != nil {
			failures = append(failures, *failure)
			return match
		}
		return value
	})

	if len(failures) > 0 {
		return "", &RenderError{Failures: failures}
	}
	return result, nil
}

func expand(match string, ctx Context) (string, *RenderFailure) {
	if strings.HasPrefix(match, "{%") {
		return "", &RenderFailure{Kind: InvalidPlaceholder, Placeholder: match}
	}

	expr := strings.TrimSpace(match[2 : len(match)-2])
	segments := strings.Split(expr, "|")
	path := strings.TrimSpace(segments[0])
	if !pathPattern.MatchString(path) {
		return "", &RenderFailure{Kind: InvalidPlaceholder, Placeholder: match}
	}

	pipeline := make([]func(string) string, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		name := strings.TrimSpace(segment)
		if name == "" {
			return "", &RenderFailure{Kind: InvalidPlaceholder, Placeholder: match}
		}
		fn, ok := filters[name]
		if !ok {
			return "", &RenderFailure{Kind: UnknownFilter, Placeholder: match, Path: name}
		}
		pipeline = append(pipeline, fn)
	}

	raw, ok := ctx.Lookup(path)
	if !ok || raw == nil {
		return "", &RenderFailure{Kind: UndefinedVariable, Placeholder: match, Path: path}
	}
	value, ok := scalarString(raw)
	if !ok {
		return "", &RenderFailure{Kind: NonScalarValue, Placeholder: match, Path: path}
	}

	for _, fn := range pipeline {
		value = fn(value)
	}
	return value, nil
}

// scalarString converts a scalar to its string form. Maps and lists are
// rejected.
func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case float32, float64:
		return fmt.Sprintf("%v", val), true
	case bool:
		return fmt.Sprintf("%t", val), true
	default:
		return "", false
	}
}
