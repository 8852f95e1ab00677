// Package router resolves a service group's router declaration into the
// router's own container and the metadata it needs on routed services.
package router

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cameronsjo/gantry/internal/manifest"
	"github.com/cameronsjo/gantry/internal/schema"
)

// ServiceName is the name of the router's synthesized service.
const ServiceName = "proxy"

// Provider generates routing configuration for one router implementation.
type Provider interface {
	// Name is the value of router.provider that selects this provider.
	Name() string

	// ArgsSchema is the schema router.args is validated against.
	ArgsSchema() schema.ID

	// VirtualService returns the service document for the router's own
	// container. configFile is the base name of the rendered config.
	VirtualService(args map[string]any, configFile string) (map[string]any, error)

	// Resources returns the folders, relative to the group folder, that must
	// be shipped alongside the generated manifests.
	Resources(args map[string]any) ([]string, error)

	// Registrar decodes args once and returns the registrar that produces
	// routing metadata for exposed services.
	Registrar(args map[string]any) (manifest.ServiceRegistrar, error)
}

// Resolver maps provider names to providers. It implements
// manifest.RouterResolver.
type Resolver struct {
	validator schema.Validator
	providers map[string]Provider
}

// NewResolver creates a Resolver with the given providers.
func NewResolver(validator schema.Validator, providers ...Provider) *Resolver {
	r := &Resolver{
		validator: validator,
		providers: make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Default creates a Resolver with every built-in provider.
func Default(validator schema.Validator) *Resolver {
	return NewResolver(validator, Traefik{})
}

// Register adds a provider, replacing any provider with the same name.
func (r *Resolver) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Lookup returns the provider registered under name.
func (r *Resolver) Lookup(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in sorted order.
func (r *Resolver) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve validates the router declaration, renders its config template
// with ctx, and synthesizes the router's virtual service.
func (r *Resolver) Resolve(cfg manifest.RouterConfig, groupFolder string, ctx manifest.Context) (*manifest.Router, error) {
	provider, ok := r.Lookup(cfg.Provider)
	if !ok {
		return nil, &manifest.LoadError{
			Kind:   manifest.UnknownProvider,
			Path:   groupFolder,
			Detail: fmt.Sprintf("%q is not one of %v", cfg.Provider, r.Names()),
		}
	}

	args := cfg.Args
	if args == nil {
		args = map[string]any{}
	}

	violations, err := r.validator.Validate(args, provider.ArgsSchema())
	if err != nil {
		return nil, &manifest.LoadError{Kind: manifest.SchemaViolation, Path: groupFolder, Err: err}
	}
	if len(violations) > 0 {
		return nil, &manifest.LoadError{
			Kind:       manifest.SchemaViolation,
			Path:       groupFolder,
			Violations: schema.Prefix("$.router.args", violations),
		}
	}

	configPath := filepath.Join(groupFolder, cfg.Config)
	text, err := os.ReadFile(configPath)
	if err != nil {
		return nil, &manifest.LoadError{Kind: manifest.MissingDeclaration, Path: configPath, Err: err}
	}

	rendered, err := manifest.Render(string(text), ctx)
	if err != nil {
		return nil, &manifest.LoadError{Kind: manifest.TemplateFailure, Path: configPath, Err: err}
	}

	resources, err := r.resources(provider, args, groupFolder)
	if err != nil {
		return nil, err
	}

	doc, err := provider.VirtualService(args, filepath.Base(cfg.Config))
	if err != nil {
		return nil, &manifest.LoadError{Kind: manifest.MalformedDocument, Path: groupFolder, Detail: "router service", Err: err}
	}
	svc, err := manifest.ResolveDefinition(doc, r.validator)
	if err != nil {
		return nil, err
	}

	reg, err := provider.Registrar(args)
	if err != nil {
		return nil, &manifest.LoadError{Kind: manifest.MalformedDocument, Path: groupFolder, Detail: "router args", Err: err}
	}

	return &manifest.Router{
		Config: manifest.RouterConfig{
			Provider: cfg.Provider,
			Config:   cfg.Config,
			Args:     args,
		},
		ConfigPath: configPath,
		Rendered:   rendered,
		Service:    svc,
		Resources:  resources,
		Registrar:  reg,
	}, nil
}

// resources resolves provider resources against the group folder. Each must
// be an existing folder.
func (r *Resolver) resources(p Provider, args map[string]any, groupFolder string) ([]string, error) {
	rel, err := p.Resources(args)
	if err != nil {
		return nil, &manifest.LoadError{Kind: manifest.MalformedDocument, Path: groupFolder, Err: err}
	}

	var violations []schema.Violation
	paths := make([]string, 0, len(rel))
	for _, res := range rel {
		path := filepath.Join(groupFolder, res)
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			violations = append(violations, schema.Violation{
				Field:   "$.router.args",
				Keyword: "folder",
				Message: fmt.Sprintf("%s is not a folder", res),
				Value:   res,
			})
			continue
		}
		paths = append(paths, path)
	}

	if len(violations) > 0 {
		return nil, &manifest.LoadError{Kind: manifest.SchemaViolation, Path: groupFolder, Violations: violations}
	}
	return paths, nil
}
