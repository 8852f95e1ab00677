package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cameronsjo/gantry/internal/schema"
)

// ErrorKind classifies a load failure.
type ErrorKind int

// Load failure kinds.
const (
	MissingDeclaration ErrorKind = iota + 1
	TemplateFailure
	MalformedDocument
	SchemaViolation
	NameMismatch
	DuplicateService
	MissingService
	UnknownProvider
)

// Sentinels matched by errors.Is against a *LoadError of the same kind.
var (
	ErrMissingDeclaration = errors.New("missing declaration")
	ErrTemplateFailure    = errors.New("template failure")
	ErrMalformedDocument  = errors.New("malformed document")
	ErrSchemaViolation    = errors.New("schema violation")
	ErrNameMismatch       = errors.New("name mismatch")
	ErrDuplicateService   = errors.New("duplicate service")
	ErrMissingService     = errors.New("missing service")
	ErrUnknownProvider    = errors.New("unknown router provider")
)

var kindSentinels = map[ErrorKind]error{
	MissingDeclaration: ErrMissingDeclaration,
	TemplateFailure:    ErrTemplateFailure,
	MalformedDocument:  ErrMalformedDocument,
	SchemaViolation:    ErrSchemaViolation,
	NameMismatch:       ErrNameMismatch,
	DuplicateService:   ErrDuplicateService,
	MissingService:     ErrMissingService,
	UnknownProvider:    ErrUnknownProvider,
}

var kindNames = map[ErrorKind]string{
	MissingDeclaration: "MissingDeclaration",
	TemplateFailure:    "TemplateFailure",
	MalformedDocument:  "MalformedDocument",
	SchemaViolation:    "SchemaViolation",
	NameMismatch:       "NameMismatch",
	DuplicateService:   "DuplicateService",
	MissingService:     "MissingService",
	UnknownProvider:    "UnknownProvider",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	if err, ok := kindSentinels[k]; ok {
		return err
	}
	return errors.New(k.String())
}

// LoadError describes why a declaration could not be resolved.
type LoadError struct {
	Kind ErrorKind

	// Path is the file or folder the error refers to.
	Path string

	// Service is the member the error belongs to, if any.
	Service string

	// Detail is extra context, e.g. the mismatched names.
	Detail string

	// Violations holds every schema failure for SchemaViolation errors.
	Violations []schema.Violation

	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	var b strings.Builder

	if e.Service != "" {
		fmt.Fprintf(&b, "service %s: ", e.Service)
	}
	b.WriteString(e.Kind.Sentinel().Error())
	if e.Path != "" {
		fmt.Fprintf(&b, " in %s", e.Path)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	switch len(e.Violations) {
	case 0:
	case 1:
		b.WriteString(": ")
		b.WriteString(e.Violations[0].String())
	default:
		fmt.Fprintf(&b, ": %d violations", len(e.Violations))
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *LoadError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// GroupError aggregates every failure found while loading a service group.
type GroupError struct {
	// Folder is the group folder.
	Folder string

	Errors []*LoadError
}

func (e *GroupError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("load service group %s: %v", e.Folder, e.Errors[0])
	}

	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("load service group %s: %d errors: %s", e.Folder, len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes each member failure to errors.Is and errors.As.
func (e *GroupError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// asLoadError converts err into a *LoadError, wrapping foreign errors with
// the fallback kind.
func asLoadError(err error, fallback ErrorKind, path string) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Kind: fallback, Path: path, Err: err}
}
