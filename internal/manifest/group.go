package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
)

// RouterResolver turns a router declaration into a resolved Router.
// Errors should be *LoadError values.
type RouterResolver interface {
	Resolve(cfg RouterConfig, groupFolder string, ctx Context) (*Router, error)
}

// Loader resolves services and service groups. It is safe for concurrent
// use; a Loader holds no per-load state.
type Loader struct {
	validator schema.Validator
	router    RouterResolver

	// Variables is the base template context, typically from --var flags.
	Variables Context

	// Concurrency bounds parallel member loads. Zero means GOMAXPROCS.
	Concurrency int
}

// NewLoader creates a Loader.
func NewLoader(validator schema.Validator, router RouterResolver) *Loader {
	return &Loader{
		validator: validator,
		router:    router,
		Variables: Context{},
	}
}

type groupDocument struct {
	Name    string `yaml:"name"`
	Network string `yaml:"network"`
	Router  struct {
		Provider string         `yaml:"provider"`
		Config   string         `yaml:"config"`
		Args     map[string]any `yaml:"args"`
	} `yaml:"router"`
	Services []string `yaml:"services"`
}

// LoadGroup resolves the service group declared in folder together with its
// router and every member service. On failure the returned error is a
// *GroupError carrying every problem found; members are still evaluated
// after an earlier failure so all of them are reported.
func (l *Loader) LoadGroup(ctx context.Context, folder string) (*ServiceGroup, error) {
	folder, err := filepath.Abs(folder)
	if err != nil {
		return nil, fmt.Errorf("resolve group folder: %w", err)
	}

	groupErr := &GroupError{Folder: folder}
	fail := func(err *LoadError) (*ServiceGroup, error) {
		groupErr.Errors = append(groupErr.Errors, err)
		return nil, groupErr
	}

	path, doc, err := l.readDocument(folder, l.Variables.Merge(ServiceFolder(filepath.Base(folder))))
	if err != nil {
		return fail(asLoadError(err, MalformedDocument, folder))
	}

	violations, err := l.validator.Validate(doc, schema.ServiceGroup)
	if err != nil {
		return fail(&LoadError{Kind: SchemaViolation, Path: path, Err: err})
	}
	if len(violations) > 0 {
		return fail(&LoadError{Kind: SchemaViolation, Path: path, Violations: violations})
	}

	gd, err := decodeGroup(doc)
	if err != nil {
		return fail(&LoadError{Kind: MalformedDocument, Path: path, Err: err})
	}

	group := &ServiceGroup{
		Name:    gd.Name,
		Network: gd.Network,
		Folder:  folder,
	}
	ui.Debug("Loading group %s (network %s) from %s", group.Name, group.Network, path)

	members := l.checkMembers(folder, gd.Services, groupErr)

	routerCtx := l.Variables.Merge(Context{"service": map[string]any{
		"name":    gd.Name,
		"network": gd.Network,
	}})
	routerCfg := RouterConfig{Provider: gd.Router.Provider, Config: gd.Router.Config, Args: gd.Router.Args}
	router, err := l.router.Resolve(routerCfg, folder, routerCtx)
	if err != nil {
		groupErr.Errors = append(groupErr.Errors, asLoadError(err, UnknownProvider, path))
	} else {
		group.Router = *router
		members = l.checkRouterName(folder, members, router, groupErr)
	}

	memberCtx := l.Variables.Merge(Context{"service": map[string]any{"network": gd.Network}})
	defs, err := l.loadMembers(ctx, folder, members, memberCtx, groupErr)
	if err != nil {
		return nil, err
	}

	if len(groupErr.Errors) > 0 {
		return nil, groupErr
	}

	group.Services = defs
	return group, nil
}

func decodeGroup(doc map[string]any) (*groupDocument, error) {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var gd groupDocument
	if err := yaml.Unmarshal(raw, &gd); err != nil {
		return nil, err
	}
	return &gd, nil
}

// checkMembers reports duplicate and missing members and returns the
// remaining names in declared order.
func (l *Loader) checkMembers(folder string, names []string, groupErr *GroupError) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		if seen[name] {
			groupErr.Errors = append(groupErr.Errors, &LoadError{
				Kind:    DuplicateService,
				Path:    folder,
				Service: name,
			})
			continue
		}
		seen[name] = true

		info, err := os.Stat(filepath.Join(folder, name))
		if err != nil || !info.IsDir() {
			groupErr.Errors = append(groupErr.Errors, &LoadError{
				Kind:    MissingService,
				Path:    filepath.Join(folder, name),
				Service: name,
			})
			continue
		}
		out = append(out, name)
	}
	return out
}

// checkRouterName reports a member whose name collides with the router's
// synthesized service and drops it from names.
func (l *Loader) checkRouterName(folder string, names []string, router *Router, groupErr *GroupError) []string {
	if router.Service == nil {
		return names
	}
	out := names[:0]
	for _, name := range names {
		if name == router.Service.Name {
			groupErr.Errors = append(groupErr.Errors, &LoadError{
				Kind:    DuplicateService,
				Path:    folder,
				Service: name,
				Detail:  "collides with the router service",
			})
			continue
		}
		out = append(out, name)
	}
	return out
}

// loadMembers loads every named member in parallel. Results keep declared
// order. Member failures are appended to groupErr; only cancellation is
// returned directly.
func (l *Loader) loadMembers(ctx context.Context, folder string, names []string, inherited Context, groupErr *GroupError) ([]*ServiceDefinition, error) {
	defs := make([]*ServiceDefinition, len(names))
	errs := make([]error, len(names))

	var g errgroup.Group
	g.SetLimit(l.concurrency())

	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			defs[i], errs[i] = l.LoadService(filepath.Join(folder, name), inherited)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		le := asLoadError(err, MalformedDocument, filepath.Join(folder, names[i]))
		le.Service = names[i]
		groupErr.Errors = append(groupErr.Errors, le)
	}

	return defs, nil
}

func (l *Loader) concurrency() int {
	if l.Concurrency > 0 {
		return l.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// IsLoadError reports whether err carries load failures.
func IsLoadError(err error) bool {
	var le *LoadError
	var ge *GroupError
	return errors.As(err, &le) || errors.As(err, &ge)
}
