package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
)

// serviceDocument is the YAML shape of a service declaration.
type serviceDocument struct {
	Name         string                  `yaml:"name"`
	Entrypoint   yaml.Node               `yaml:"entrypoint"`
	Image        string                  `yaml:"image"`
	BuildArgs    map[string]any          `yaml:"build-args"`
	Environment  map[string]any          `yaml:"environment"`
	Files        map[string]fileDocument `yaml:"files"`
	Volumes      map[string]string       `yaml:"volumes"`
	ServicePorts map[string]portDocument `yaml:"service-ports"`
	Healthcheck  *bool                   `yaml:"healthcheck"`
	Internal     *bool                   `yaml:"internal"`
	Metadata     map[string]any          `yaml:"metadata"`
}

type entrypointDocument struct {
	Routes    yaml.Node `yaml:"routes"`
	ListensOn int       `yaml:"listens-on"`
}

type fileDocument struct {
	Internal string `yaml:"internal"`
	External string `yaml:"external"`
	ReadOnly *bool  `yaml:"read-only"`
}

type portDocument struct {
	Internal int    `yaml:"internal"`
	External int    `yaml:"external"`
	Protocol string `yaml:"protocol"`
}

// LoadService resolves the service declared in folder. The declaration is
// rendered with inherited overlaid by {service: {folder: "./<base>"}}, then
// parsed, validated, and converted with every default applied. The declared
// name must equal the folder's base name.
func (l *Loader) LoadService(folder string, inherited Context) (*ServiceDefinition, error) {
	folder, err := filepath.Abs(folder)
	if err != nil {
		return nil, &LoadError{Kind: MissingDeclaration, Path: folder, Err: err}
	}
	base := filepath.Base(folder)

	path, doc, err := l.readDocument(folder, inherited.Merge(ServiceFolder(base)))
	if err != nil {
		return nil, err
	}

	def, err := ResolveDefinition(doc, l.validator)
	if err != nil {
		le := asLoadError(err, MalformedDocument, path)
		le.Path = path
		return nil, le
	}

	if def.Name != base {
		return nil, &LoadError{
			Kind:   NameMismatch,
			Path:   path,
			Detail: fmt.Sprintf("declared name %q does not match folder %q", def.Name, base),
		}
	}
	def.Folder = folder

	ui.Debug("Loaded service %s from %s", def.Name, path)
	return def, nil
}

// ResolveDefinition validates a decoded service document against the
// service schema and converts it into a ServiceDefinition with defaults
// applied. Folder is left empty.
func ResolveDefinition(doc map[string]any, v schema.Validator) (*ServiceDefinition, error) {
	violations, err := v.Validate(doc, schema.Service)
	if err != nil {
		return nil, &LoadError{Kind: SchemaViolation, Err: err}
	}
	if len(violations) > 0 {
		return nil, &LoadError{Kind: SchemaViolation, Violations: violations}
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, &LoadError{Kind: MalformedDocument, Err: err}
	}
	var sd serviceDocument
	if err := yaml.Unmarshal(raw, &sd); err != nil {
		return nil, &LoadError{Kind: MalformedDocument, Err: err}
	}

	return sd.definition()
}

func (sd *serviceDocument) definition() (*ServiceDefinition, error) {
	def := &ServiceDefinition{
		Name:         sd.Name,
		Image:        sd.Image,
		BuildArgs:    stringMap(sd.BuildArgs),
		Environment:  stringMap(sd.Environment),
		Files:        make(map[string]FileMapping, len(sd.Files)),
		Volumes:      make(map[string]string, len(sd.Volumes)),
		ServicePorts: make(map[string]PortMapping, len(sd.ServicePorts)),
		Healthcheck:  boolOr(sd.Healthcheck, true),
		Internal:     boolOr(sd.Internal, false),
		Metadata:     make(map[string]any, len(sd.Metadata)),
	}

	for name, f := range sd.Files {
		def.Files[name] = FileMapping{
			Internal: f.Internal,
			External: f.External,
			ReadOnly: boolOr(f.ReadOnly, true),
		}
	}
	for name, path := range sd.Volumes {
		def.Volumes[name] = path
	}
	for name, p := range sd.ServicePorts {
		protocol := Protocol(p.Protocol)
		if protocol == "" {
			protocol = TCP
		}
		def.ServicePorts[name] = PortMapping{Internal: p.Internal, External: p.External, Protocol: protocol}
	}
	for k, v := range sd.Metadata {
		def.Metadata[k] = v
	}

	if !def.Internal {
		ep, err := entrypoint(&sd.Entrypoint, def.Name)
		if err != nil {
			return nil, &LoadError{Kind: MalformedDocument, Detail: "entrypoint", Err: err}
		}
		def.Entrypoint = ep
	}

	return def, nil
}

// entrypoint applies the entrypoint defaults: no declaration routes
// "/<name>" to port 80, a bare string is a single route on port 80.
func entrypoint(node *yaml.Node, name string) (*Entrypoint, error) {
	ep := &Entrypoint{ListensOn: DefaultListenPort}

	switch node.Kind {
	case 0:
		ep.Routes = []string{"/" + name}
	case yaml.ScalarNode:
		ep.Routes = []string{node.Value}
	case yaml.MappingNode:
		var doc entrypointDocument
		if err := node.Decode(&doc); err != nil {
			return nil, err
		}
		if doc.ListensOn != 0 {
			ep.ListensOn = doc.ListensOn
		}
		switch doc.Routes.Kind {
		case 0:
			ep.Routes = []string{"/" + name}
		case yaml.ScalarNode:
			ep.Routes = []string{doc.Routes.Value}
		default:
			if err := doc.Routes.Decode(&ep.Routes); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unexpected yaml node kind %d", node.Kind)
	}

	return ep, nil
}

// readDocument finds the declaration in folder, renders it with ctx, and
// decodes it into a mapping.
func (l *Loader) readDocument(folder string, ctx Context) (string, map[string]any, error) {
	path, text, err := readDeclaration(folder)
	if err != nil {
		return folder, nil, &LoadError{Kind: MissingDeclaration, Path: folder, Err: err}
	}

	rendered, err := Render(text, ctx)
	if err != nil {
		return path, nil, &LoadError{Kind: TemplateFailure, Path: path, Err: err}
	}

	doc, err := decodeMapping(rendered)
	if err != nil {
		return path, nil, &LoadError{Kind: MalformedDocument, Path: path, Err: err}
	}
	return path, doc, nil
}

// readDeclaration returns the path and contents of the first declaration
// file found in folder.
func readDeclaration(folder string) (string, string, error) {
	for _, name := range DeclarationFiles {
		path := filepath.Join(folder, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return path, "", fmt.Errorf("read declaration: %w", err)
		}
		return path, string(data), nil
	}
	return "", "", fmt.Errorf("no %s in %s", DeclarationFiles[0], folder)
}

// decodeMapping parses a single YAML document whose root must be a mapping.
func decodeMapping(text string) (map[string]any, error) {
	var doc any
	if err := yaml.NewDecoder(bytes.NewBufferString(text)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("document is empty")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document root must be a mapping, got %T", doc)
	}
	return m, nil
}

func stringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := scalarString(v); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
