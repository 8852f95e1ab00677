package router

import (
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/gantry/internal/manifest"
	"github.com/cameronsjo/gantry/internal/schema"
)

// Traefik defaults.
const (
	TraefikImage        = "traefik:v2.10.1"
	TraefikStaticConfig = "/etc/traefik/traefik.yml"
	DockerSocket        = "/var/run/docker.sock"
)

// Traefik routes by path prefix using container labels.
type Traefik struct{}

type traefikArgs struct {
	EnableAPI       bool   `yaml:"enable-api"`
	EnableDashboard bool   `yaml:"enable-dashboard"`
	EnableTLS       bool   `yaml:"enable-tls"`
	MapSocket       *bool  `yaml:"map-socket"`
	Socket          string `yaml:"socket"`
	DynamicConfig   string `yaml:"dynamic-config"`
}

func decodeTraefikArgs(args map[string]any) (traefikArgs, error) {
	var ta traefikArgs
	raw, err := yaml.Marshal(args)
	if err != nil {
		return ta, fmt.Errorf("encode traefik args: %w", err)
	}
	if err := yaml.Unmarshal(raw, &ta); err != nil {
		return ta, fmt.Errorf("decode traefik args: %w", err)
	}
	if ta.Socket == "" {
		ta.Socket = DockerSocket
	}
	return ta, nil
}

// api reports whether the Traefik API is served; the dashboard needs it.
func (a traefikArgs) api() bool {
	return a.EnableAPI || a.EnableDashboard
}

func (a traefikArgs) mapSocket() bool {
	return a.MapSocket == nil || *a.MapSocket
}

// Name implements Provider.
func (Traefik) Name() string { return "traefik" }

// ArgsSchema implements Provider.
func (Traefik) ArgsSchema() schema.ID { return schema.Traefik }

// VirtualService implements Provider. The proxy is only routable when the
// API or dashboard is enabled.
func (Traefik) VirtualService(args map[string]any, configFile string) (map[string]any, error) {
	ta, err := decodeTraefikArgs(args)
	if err != nil {
		return nil, err
	}

	files := map[string]any{
		"static-config": map[string]any{
			"internal": TraefikStaticConfig,
			"external": "./" + configFile,
		},
	}
	ports := map[string]any{
		"http": map[string]any{"internal": 80, "external": 80},
	}
	doc := map[string]any{
		"name":          ServiceName,
		"image":         TraefikImage,
		"files":         files,
		"service-ports": ports,
	}

	if ta.EnableTLS {
		ports["https"] = map[string]any{"internal": 443, "external": 443}
	}
	if ta.mapSocket() {
		files["docker-socket"] = map[string]any{
			"internal": DockerSocket,
			"external": ta.Socket,
		}
	}
	if ta.DynamicConfig != "" {
		base := path.Base(strings.TrimSuffix(ta.DynamicConfig, "/"))
		files["dynamic-config"] = map[string]any{
			"internal": "/" + base,
			"external": "./" + base,
		}
	}

	if ta.api() {
		routes := []any{"/api"}
		if ta.EnableDashboard {
			routes = append(routes, "/dashboard")
		}
		doc["entrypoint"] = map[string]any{"routes": routes}
		doc["metadata"] = map[string]any{
			"traefik.http.routers." + ServiceName + ".service": "api@internal",
		}
	} else {
		doc["internal"] = true
	}

	return doc, nil
}

// Resources implements Provider.
func (Traefik) Resources(args map[string]any) ([]string, error) {
	ta, err := decodeTraefikArgs(args)
	if err != nil {
		return nil, err
	}
	if ta.DynamicConfig == "" {
		return nil, nil
	}
	return []string{ta.DynamicConfig}, nil
}

// Registrar implements Provider.
func (Traefik) Registrar(args map[string]any) (manifest.ServiceRegistrar, error) {
	ta, err := decodeTraefikArgs(args)
	if err != nil {
		return nil, err
	}
	return traefikRegistrar{args: ta}, nil
}

// traefikRegistrar labels exposed services for Traefik's docker provider.
type traefikRegistrar struct {
	args traefikArgs
}

// Register implements manifest.ServiceRegistrar. Services without an
// entrypoint get no labels.
func (r traefikRegistrar) Register(svc *manifest.ServiceDefinition) map[string]any {
	if svc.Internal || svc.Entrypoint == nil {
		return nil
	}

	labels := map[string]any{"traefik.enable": true}

	if svc.Entrypoint.ListensOn != 0 {
		labels[fmt.Sprintf("traefik.http.services.%s.loadbalancer.server.port", svc.Name)] = svc.Entrypoint.ListensOn
	}

	if len(svc.Entrypoint.Routes) > 0 {
		rules := make([]string, len(svc.Entrypoint.Routes))
		for i, route := range svc.Entrypoint.Routes {
			rules[i] = fmt.Sprintf("PathPrefix(`%s`)", route)
		}
		labels[fmt.Sprintf("traefik.http.routers.%s.rule", svc.Name)] = strings.Join(rules, " || ")
	}

	if r.args.EnableTLS {
		labels[fmt.Sprintf("traefik.http.routers.%s.tls", svc.Name)] = true
	}

	return labels
}
