// Package compose renders a deployment model as a docker-compose.yml.
package compose

import (
	"fmt"
	"io"
	"strconv"

	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/gantry/internal/deploy"
	"github.com/cameronsjo/gantry/internal/manifest"
)

// FileName is the name of the generated compose file.
const FileName = "docker-compose.yml"

// BuildTag is the tag given to images built from a service folder.
const BuildTag = "custom"

// Header is written at the top of every generated file.
const Header = "# This file has been automatically generated.\n# DO NOT MODIFY\n\n"

// File is a compose file. Services keep model order when encoded.
type File struct {
	Services []NamedService
	Networks []string
	Volumes  []string
}

// NamedService pairs a compose service with its key.
type NamedService struct {
	Name    string
	Service Service
}

// Service is the subset of the compose service spec gantry emits.
type Service struct {
	ContainerName string            `yaml:"container_name"`
	Image         string            `yaml:"image"`
	Build         *Build            `yaml:"build,omitempty"`
	Environment   map[string]string `yaml:"environment,omitempty"`
	Restart       string            `yaml:"restart"`
	Ports         []string          `yaml:"ports,omitempty"`
	Networks      []string          `yaml:"networks,omitempty"`
	Volumes       []string          `yaml:"volumes,omitempty"`
	Labels        map[string]string `yaml:"labels,omitempty"`
	Healthcheck   *Healthcheck      `yaml:"healthcheck,omitempty"`
}

// Build is a compose build section.
type Build struct {
	Context string            `yaml:"context"`
	Args    map[string]string `yaml:"args,omitempty"`
}

// Healthcheck is a compose healthcheck section.
type Healthcheck struct {
	Disable bool `yaml:"disable"`
}

// Options tune how a model is converted.
type Options struct {
	// Images overrides the image of built services, keyed by service name.
	// Used when images have already been built and tagged.
	Images map[string]string
}

// FromModel converts a deployment model into a compose file.
func FromModel(m *deploy.Model, opts Options) (*File, error) {
	f := &File{
		Services: make([]NamedService, 0, len(m.Services)),
		Networks: []string{m.Network},
		Volumes:  m.Volumes(),
	}

	for _, svc := range m.Services {
		cs, err := convert(svc, opts)
		if err != nil {
			return nil, fmt.Errorf("convert service %s: %w", svc.Name, err)
		}
		f.Services = append(f.Services, NamedService{Name: svc.Name, Service: cs})
	}

	return f, nil
}

func convert(svc deploy.Service, opts Options) (Service, error) {
	cs := Service{
		ContainerName: svc.Name,
		Restart:       "unless-stopped",
		Networks:      []string{svc.Network},
		Environment:   svc.Environment,
	}

	switch {
	case !svc.Buildable():
		cs.Image = svc.Image
	case opts.Images[svc.Name] != "":
		cs.Image = opts.Images[svc.Name]
	default:
		cs.Image = svc.Name + ":" + BuildTag
		cs.Build = &Build{Context: "./" + svc.Name}
		if len(svc.BuildArgs) > 0 {
			cs.Build.Args = svc.BuildArgs
		}
	}

	for _, name := range manifest.SortedKeys(svc.ServicePorts) {
		port, err := PortString(svc.ServicePorts[name])
		if err != nil {
			return Service{}, fmt.Errorf("port %s: %w", name, err)
		}
		cs.Ports = append(cs.Ports, port)
	}

	for _, name := range manifest.SortedKeys(svc.Files) {
		cs.Volumes = append(cs.Volumes, FileString(svc.Files[name]))
	}
	volumes := svc.NamespacedVolumes()
	for _, name := range manifest.SortedKeys(volumes) {
		cs.Volumes = append(cs.Volumes, name+":"+volumes[name])
	}

	if len(svc.Labels) > 0 {
		cs.Labels = make(map[string]string, len(svc.Labels))
		for k, v := range svc.Labels {
			cs.Labels[k] = fmt.Sprint(v)
		}
	}

	if !svc.Healthcheck {
		cs.Healthcheck = &Healthcheck{Disable: true}
	}

	return cs, nil
}

// PortString formats a port mapping as "external:internal", with a "/udp"
// suffix for UDP ports.
func PortString(p manifest.PortMapping) (string, error) {
	port, err := nat.NewPort(string(p.Protocol), strconv.Itoa(p.Internal))
	if err != nil {
		return "", err
	}

	s := fmt.Sprintf("%d:%s", p.External, port.Port())
	if port.Proto() == string(manifest.UDP) {
		s += "/" + port.Proto()
	}
	return s, nil
}

// FileString formats a file mapping as "external:internal", with ":ro" for
// read-only mappings.
func FileString(f manifest.FileMapping) string {
	s := f.External + ":" + f.Internal
	if f.ReadOnly {
		s += ":ro"
	}
	return s
}

// MarshalYAML emits services in model order followed by the top-level
// networks and volumes.
func (f *File) MarshalYAML() (any, error) {
	services := &yaml.Node{Kind: yaml.MappingNode}
	for _, ns := range f.Services {
		var value yaml.Node
		if err := value.Encode(ns.Service); err != nil {
			return nil, fmt.Errorf("encode service %s: %w", ns.Name, err)
		}
		services.Content = append(services.Content, scalar(ns.Name), &value)
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, scalar("services"), services)
	if len(f.Networks) > 0 {
		root.Content = append(root.Content, scalar("networks"), nullMapping(f.Networks))
	}
	if len(f.Volumes) > 0 {
		root.Content = append(root.Content, scalar("volumes"), nullMapping(f.Volumes))
	}
	return root, nil
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func nullMapping(keys []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range keys {
		node.Content = append(node.Content, scalar(key), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"})
	}
	return node
}

// Write encodes f to w with the generated-file header.
func Write(w io.Writer, f *File) error {
	if _, err := io.WriteString(w, Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(4)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode compose file: %w", err)
	}
	return enc.Close()
}
