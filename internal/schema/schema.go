// Package schema validates gantry documents against the embedded JSON schemas.
//
// Schemas are kept as data under schemas/ so that new constraints need no
// code changes. Documents are plain decoded YAML values (map[string]any).
package schema

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var files embed.FS

// ID names one of the embedded schemas.
type ID string

// Embedded schema identifiers.
const (
	Service       ID = "service"
	ServiceGroup  ID = "service_group"
	Config        ID = "config"
	BuildManifest ID = "build_manifest"
	Traefik       ID = "traefik"
)

// All lists every embedded schema in a stable order.
var All = []ID{Service, ServiceGroup, Config, BuildManifest, Traefik}

// ErrUnknownSchema indicates a schema ID with no embedded document.
var ErrUnknownSchema = errors.New("unknown schema")

// Violation is a single schema failure inside a document.
type Violation struct {
	// Field is the JSON path of the offending value, e.g. "$.service-ports.http".
	Field string

	// Keyword is the JSON-Schema keyword that failed, e.g. "required" or "not".
	Keyword string

	// Message is a human readable description of the failure.
	Message string

	// Value is the offending value, when one exists.
	Value any
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Validator checks a decoded document against a schema and returns every
// violation found. A nil slice means the document is valid.
type Validator interface {
	Validate(document any, id ID) ([]Violation, error)
}

// JSONValidator validates against the embedded schemas. It is safe for
// concurrent use once constructed.
type JSONValidator struct {
	compiled map[ID]*gojsonschema.Schema
}

// New compiles every embedded schema.
func New() (*JSONValidator, error) {
	v := &JSONValidator{compiled: make(map[ID]*gojsonschema.Schema, len(All))}
	for _, id := range All {
		data, err := Document(id)
		if err != nil {
			return nil, err
		}

		compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", id, err)
		}
		v.compiled[id] = compiled
	}
	return v, nil
}

// MustNew is New for package-level initialization; the embedded schemas are
// fixed at build time so a failure is a programming error.
func MustNew() *JSONValidator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate implements Validator.
func (v *JSONValidator) Validate(document any, id ID) ([]Violation, error) {
	compiled, ok := v.compiled[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, id)
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", id, err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		violations = append(violations, Violation{
			Field:   jsonPath(re.Context()),
			Keyword: keyword(re.Type()),
			Message: re.Description(),
			Value:   re.Value(),
		})
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Field != violations[j].Field {
			return violations[i].Field < violations[j].Field
		}
		return violations[i].Message < violations[j].Message
	})

	return violations, nil
}

// Document returns the raw JSON text of an embedded schema.
func Document(id ID) ([]byte, error) {
	data, err := files.ReadFile("schemas/" + string(id) + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, id)
	}
	return data, nil
}

// Lookup maps a schema name to its ID.
func Lookup(name string) (ID, bool) {
	for _, id := range All {
		if string(id) == name {
			return id, true
		}
	}
	return "", false
}

// Prefix rewrites violation fields so they are rooted at path instead of "$".
// Used when a sub-document (e.g. router args) is validated separately.
func Prefix(path string, violations []Violation) []Violation {
	out := make([]Violation, len(violations))
	for i, v := range violations {
		v.Field = path + strings.TrimPrefix(v.Field, "$")
		out[i] = v
	}
	return out
}

// jsonPath turns a gojsonschema context such as "(root).files.conf" into
// "$.files.conf".
func jsonPath(ctx *gojsonschema.JsonContext) string {
	if ctx == nil {
		return "$"
	}
	return "$" + strings.TrimPrefix(ctx.String(), "(root)")
}

// keyword maps gojsonschema error types back to the schema keyword.
func keyword(errType string) string {
	switch errType {
	case "number_not":
		return "not"
	case "number_any_of":
		return "anyOf"
	case "number_one_of":
		return "oneOf"
	case "number_all_of":
		return "allOf"
	case "number_gte", "number_gt":
		return "minimum"
	case "number_lte", "number_lt":
		return "maximum"
	case "additional_property_not_allowed":
		return "additionalProperties"
	case "invalid_type":
		return "type"
	case "string_gte":
		return "minLength"
	case "array_min_items":
		return "minItems"
	case "unique":
		return "uniqueItems"
	case "does_not_match_pattern":
		return "pattern"
	case "condition_then":
		return "then"
	case "condition_else":
		return "else"
	default:
		return errType
	}
}
