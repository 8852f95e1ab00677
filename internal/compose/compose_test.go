package compose

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/gantry/internal/deploy"
	"github.com/cameronsjo/gantry/internal/manifest"
)

func testModel() *deploy.Model {
	proxy := &manifest.ServiceDefinition{
		Name:  "proxy",
		Image: "traefik:v2.10.1",
		Files: map[string]manifest.FileMapping{
			"static-config": {Internal: "/etc/traefik/traefik.yml", External: "./traefik.yml", ReadOnly: true},
			"docker-socket": {Internal: "/var/run/docker.sock", External: "/var/run/docker.sock", ReadOnly: true},
		},
		ServicePorts: map[string]manifest.PortMapping{
			"http": {Internal: 80, External: 80, Protocol: manifest.TCP},
		},
		Healthcheck: true,
		Internal:    true,
	}
	web := &manifest.ServiceDefinition{
		Name:        "web",
		Image:       "nginx:1.25",
		Entrypoint:  &manifest.Entrypoint{Routes: []string{"/web"}, ListensOn: 80},
		Environment: map[string]string{"MODE": "prod"},
		Volumes:     map[string]string{"cache": "/var/cache/nginx"},
		ServicePorts: map[string]manifest.PortMapping{
			"dns":  {Internal: 53, External: 5353, Protocol: manifest.UDP},
			"http": {Internal: 80, External: 8080, Protocol: manifest.TCP},
		},
		Healthcheck: true,
	}
	app := &manifest.ServiceDefinition{
		Name:      "app",
		BuildArgs: map[string]string{"VERSION": "3"},
		Files: map[string]manifest.FileMapping{
			"data": {Internal: "/data", External: "./app/data", ReadOnly: false},
		},
		Healthcheck: false,
		Internal:    true,
	}

	return &deploy.Model{
		Name:    "demo",
		Network: "net0",
		Services: []deploy.Service{
			{ServiceDefinition: proxy, Network: "net0", IsRouter: true},
			{ServiceDefinition: web, Network: "net0", Labels: map[string]any{"traefik.enable": true, "traefik.http.services.web.loadbalancer.server.port": 80}},
			{ServiceDefinition: app, Network: "net0"},
		},
	}
}

func TestFromModel(t *testing.T) {
	f, err := FromModel(testModel(), Options{})
	require.NoError(t, err)

	require.Len(t, f.Services, 3)
	assert.Equal(t, "proxy", f.Services[0].Name)
	assert.Equal(t, "web", f.Services[1].Name)
	assert.Equal(t, "app", f.Services[2].Name)
	assert.Equal(t, []string{"net0"}, f.Networks)
	assert.Equal(t, []string{"web-cache"}, f.Volumes)

	proxy := f.Services[0].Service
	assert.Equal(t, "traefik:v2.10.1", proxy.Image)
	assert.Nil(t, proxy.Build)
	assert.Equal(t, []string{"80:80"}, proxy.Ports)
	assert.Equal(t, []string{
		"/var/run/docker.sock:/var/run/docker.sock:ro",
		"./traefik.yml:/etc/traefik/traefik.yml:ro",
	}, proxy.Volumes)
	assert.Nil(t, proxy.Healthcheck)

	web := f.Services[1].Service
	assert.Equal(t, "web", web.ContainerName)
	assert.Equal(t, "unless-stopped", web.Restart)
	assert.Equal(t, []string{"net0"}, web.Networks)
	assert.Equal(t, []string{"5353:53/udp", "8080:80"}, web.Ports)
	assert.Equal(t, []string{"web-cache:/var/cache/nginx"}, web.Volumes)
	assert.Equal(t, map[string]string{"traefik.enable": "true", "traefik.http.services.web.loadbalancer.server.port": "80"}, web.Labels)

	app := f.Services[2].Service
	assert.Equal(t, "app:custom", app.Image)
	require.NotNil(t, app.Build)
	assert.Equal(t, "./app", app.Build.Context)
	assert.Equal(t, map[string]string{"VERSION": "3"}, app.Build.Args)
	assert.Equal(t, []string{"./app/data:/data"}, app.Volumes)
	assert.Equal(t, &Healthcheck{Disable: true}, app.Healthcheck)
}

func TestFromModel_ImageOverride(t *testing.T) {
	f, err := FromModel(testModel(), Options{Images: map[string]string{"app": "registry.local/app:20240101.001"}})
	require.NoError(t, err)

	app := f.Services[2].Service
	assert.Equal(t, "registry.local/app:20240101.001", app.Image)
	assert.Nil(t, app.Build)
}

func TestFromModel_BuildWithoutArgs(t *testing.T) {
	web := &manifest.ServiceDefinition{
		Name:        "web",
		Entrypoint:  &manifest.Entrypoint{Routes: []string{"/web"}, ListensOn: 80},
		Healthcheck: true,
	}
	m := &deploy.Model{
		Name:     "demo",
		Network:  "net0",
		Services: []deploy.Service{{ServiceDefinition: web, Network: "net0"}},
	}

	f, err := FromModel(m, Options{})
	require.NoError(t, err)

	svc := f.Services[0].Service
	assert.Equal(t, "web:custom", svc.Image)
	require.NotNil(t, svc.Build)
	assert.Equal(t, "./web", svc.Build.Context)
	assert.Nil(t, svc.Build.Args)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	assert.Contains(t, buf.String(), "image: web:custom")
	assert.Contains(t, buf.String(), "context: ./web")
	assert.NotContains(t, buf.String(), "args:")
}

func TestPortString(t *testing.T) {
	tests := []struct {
		port manifest.PortMapping
		want string
	}{
		{manifest.PortMapping{Internal: 80, External: 8080, Protocol: manifest.TCP}, "8080:80"},
		{manifest.PortMapping{Internal: 53, External: 53, Protocol: manifest.UDP}, "53:53/udp"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := PortString(tt.port)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileString(t *testing.T) {
	assert.Equal(t, "./a:/a:ro", FileString(manifest.FileMapping{Internal: "/a", External: "./a", ReadOnly: true}))
	assert.Equal(t, "./a:/a", FileString(manifest.FileMapping{Internal: "/a", External: "./a"}))
}

func TestWrite(t *testing.T) {
	f, err := FromModel(testModel(), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, Header))

	proxyAt := strings.Index(out, "proxy:")
	webAt := strings.Index(out, "web:")
	appAt := strings.Index(out, "app:")
	assert.True(t, proxyAt < webAt && webAt < appAt, "services keep model order")
	assert.Less(t, strings.Index(out, "\nservices:"), strings.Index(out, "\nnetworks:"))
	assert.Less(t, strings.Index(out, "\nnetworks:"), strings.Index(out, "\nvolumes:"))

	var parsed struct {
		Services map[string]Service `yaml:"services"`
		Networks map[string]any     `yaml:"networks"`
		Volumes  map[string]any     `yaml:"volumes"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &parsed))

	assert.Len(t, parsed.Services, 3)
	assert.Equal(t, []string{"5353:53/udp", "8080:80"}, parsed.Services["web"].Ports)
	assert.Equal(t, map[string]any{"net0": nil}, parsed.Networks)
	assert.Equal(t, map[string]any{"web-cache": nil}, parsed.Volumes)
	assert.True(t, parsed.Services["app"].Healthcheck.Disable)
}

func TestWrite_Deterministic(t *testing.T) {
	render := func() string {
		f, err := FromModel(testModel(), Options{})
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f))
		return buf.String()
	}

	first := render()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, render())
	}
}

func TestWrite_NoVolumes(t *testing.T) {
	m := testModel()
	m.Services = m.Services[:1]

	f, err := FromModel(m, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	assert.NotContains(t, buf.String(), "\nvolumes:")
}
