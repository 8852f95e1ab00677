// Package deploy assembles a resolved service group into the deployment
// model consumed by the build and orchestration targets.
package deploy

import (
	"path/filepath"

	"github.com/cameronsjo/gantry/internal/manifest"
)

// Model is a fully resolved service group. It is built fresh from a
// ServiceGroup and never mutated afterwards.
type Model struct {
	Name    string
	Network string

	// Folder is the group folder the model was loaded from.
	Folder string

	Router Router

	// Services holds the router's service first, then members in declared
	// order.
	Services []Service
}

// Router describes the router's generated configuration.
type Router struct {
	Provider string

	// ConfigFile is the base name the rendered config is written under.
	ConfigFile string

	// Rendered is the expanded config template.
	Rendered string

	// Resources are absolute folders shipped alongside the manifests.
	Resources []string
}

// Service is one container of the model.
type Service struct {
	*manifest.ServiceDefinition

	// Network is the group network the service attaches to.
	Network string

	// IsRouter marks the router's own service.
	IsRouter bool

	// Labels is the service metadata merged over the router's labels.
	Labels map[string]any
}

// Build assembles a model from a resolved group. It never rejects: every
// invariant has already been checked by the loader.
func Build(group *manifest.ServiceGroup) *Model {
	m := &Model{
		Name:    group.Name,
		Network: group.Network,
		Folder:  group.Folder,
		Router: Router{
			Provider:  group.Router.Config.Provider,
			Rendered:  group.Router.Rendered,
			Resources: append([]string(nil), group.Router.Resources...),
		},
		Services: make([]Service, 0, len(group.Services)+1),
	}

	if group.Router.Config.Config != "" {
		m.Router.ConfigFile = filepath.Base(group.Router.Config.Config)
	}
	if group.Router.Service != nil {
		m.Services = append(m.Services, m.service(group.Router, group.Router.Service, true))
	}
	for _, def := range group.Services {
		m.Services = append(m.Services, m.service(group.Router, def, false))
	}

	return m
}

func (m *Model) service(router manifest.Router, def *manifest.ServiceDefinition, isRouter bool) Service {
	svc := Service{
		ServiceDefinition: def.Clone(),
		Network:           m.Network,
		IsRouter:          isRouter,
	}

	var labels map[string]any
	if router.Registrar != nil && !def.Internal {
		labels = router.Registrar.Register(def)
	}
	svc.Labels = manifest.DeepMerge(labels, def.Metadata)

	return svc
}

// Service returns the service with the given name.
func (m *Model) Service(name string) (Service, bool) {
	for _, svc := range m.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return Service{}, false
}

// Members returns the group's own services, excluding the router.
func (m *Model) Members() []Service {
	out := make([]Service, 0, len(m.Services))
	for _, svc := range m.Services {
		if !svc.IsRouter {
			out = append(out, svc)
		}
	}
	return out
}

// Volumes returns every namespaced volume in the model, sorted.
func (m *Model) Volumes() []string {
	seen := make(map[string]struct{})
	for _, svc := range m.Services {
		for name := range svc.NamespacedVolumes() {
			seen[name] = struct{}{}
		}
	}
	return manifest.SortedKeys(seen)
}
