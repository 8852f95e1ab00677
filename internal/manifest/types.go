package manifest

import (
	"sort"
)

// Declaration file names, in lookup order.
var DeclarationFiles = []string{"service.yml", "service.yaml"}

// DefaultListenPort is the port a service is routed to when its entrypoint
// does not name one.
const DefaultListenPort = 80

// Protocol is the transport of a published port.
type Protocol string

// Supported port protocols.
const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

// Entrypoint is the set of URL path prefixes routed to a service and the
// port the service listens on inside its container.
type Entrypoint struct {
	Routes    []string
	ListensOn int
}

// FileMapping maps a host path into a container.
type FileMapping struct {
	Internal string
	External string
	ReadOnly bool
}

// PortMapping publishes a container port on the host.
type PortMapping struct {
	Internal int
	External int
	Protocol Protocol
}

// ServiceDefinition is a fully resolved member service. Every optional field
// has had its default applied.
type ServiceDefinition struct {
	// Name matches the base name of Folder.
	Name string

	// Folder is the absolute path of the service folder. Empty for services
	// synthesized by a router provider.
	Folder string

	// Entrypoint is nil for internal services.
	Entrypoint *Entrypoint

	// Image and BuildArgs are mutually exclusive. When Image is empty the
	// service is built from the recipe in Folder.
	Image     string
	BuildArgs map[string]string

	Environment  map[string]string
	Files        map[string]FileMapping
	Volumes      map[string]string
	ServicePorts map[string]PortMapping
	Healthcheck  bool
	Internal     bool
	Metadata     map[string]any
}

// Buildable reports whether the service is built from a recipe rather than
// pulled as an existing image.
func (s *ServiceDefinition) Buildable() bool {
	return s.Image == ""
}

// NamespacedVolumes returns the service's volumes keyed by "<service>-<volume>".
func (s *ServiceDefinition) NamespacedVolumes() map[string]string {
	out := make(map[string]string, len(s.Volumes))
	for name, path := range s.Volumes {
		out[s.Name+"-"+name] = path
	}
	return out
}

// RouterConfig is the group's router declaration.
type RouterConfig struct {
	// Provider selects the router implementation, e.g. "traefik".
	Provider string

	// Config is the path of the provider's config template, relative to the
	// group folder.
	Config string

	// Args holds provider specific options.
	Args map[string]any
}

// Router is a resolved router: its declaration, rendered config, and the
// virtual service that runs the router itself.
type Router struct {
	Config RouterConfig

	// ConfigPath is the absolute path of the config template.
	ConfigPath string

	// Rendered is the expanded config template.
	Rendered string

	// Service is the router's own container.
	Service *ServiceDefinition

	// Resources are absolute paths of folders the router needs copied next
	// to the generated manifest.
	Resources []string

	// Registrar produces the routing metadata for exposed services.
	Registrar ServiceRegistrar
}

// ServiceRegistrar registers an exposed service with a router by returning
// the metadata the router needs attached to the service's container.
type ServiceRegistrar interface {
	Register(svc *ServiceDefinition) map[string]any
}

// ServiceGroup is a resolved service group. It is immutable once returned by
// the loader.
type ServiceGroup struct {
	Name    string
	Network string

	// Folder is the absolute path of the group folder.
	Folder string

	Router Router

	// Services are the members in declared order.
	Services []*ServiceDefinition
}

// Service returns the member with the given name.
func (g *ServiceGroup) Service(name string) (*ServiceDefinition, bool) {
	for _, svc := range g.Services {
		if svc.Name == name {
			return svc, true
		}
	}
	return nil, false
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the definition.
func (s *ServiceDefinition) Clone() *ServiceDefinition {
	out := *s
	if s.Entrypoint != nil {
		ep := *s.Entrypoint
		ep.Routes = append([]string(nil), s.Entrypoint.Routes...)
		out.Entrypoint = &ep
	}
	out.BuildArgs = cloneMap(s.BuildArgs)
	out.Environment = cloneMap(s.Environment)
	out.Files = cloneMap(s.Files)
	out.Volumes = cloneMap(s.Volumes)
	out.ServicePorts = cloneMap(s.ServicePorts)
	out.Metadata = DeepMerge(nil, s.Metadata)
	return &out
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
