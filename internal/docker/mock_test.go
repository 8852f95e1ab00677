package docker

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
)

// Common test errors.
var (
	errMockPing  = errors.New("mock: ping failed")
	errMockBuild = errors.New("mock: image build failed")
	errMockPull  = errors.New("mock: image pull failed")
)

// MockDockerAPI is a mock implementation of DockerAPI for testing.
type MockDockerAPI struct {
	// Function overrides for each method
	PingFunc       func(ctx context.Context) (types.Ping, error)
	ImageBuildFunc func(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePullFunc  func(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	CloseFunc      func() error

	// Call tracking
	PingCalls       int
	ImageBuildCalls int
	ImagePullCalls  int
	CloseCalls      int
}

// NewMockDockerAPI creates a new mock with default no-op implementations.
func NewMockDockerAPI() *MockDockerAPI {
	return &MockDockerAPI{}
}

// Ping implements DockerAPI.
func (m *MockDockerAPI) Ping(ctx context.Context) (types.Ping, error) {
	m.PingCalls++
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return types.Ping{APIVersion: "1.45"}, nil
}

// ImageBuild implements DockerAPI.
func (m *MockDockerAPI) ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error) {
	m.ImageBuildCalls++
	if m.ImageBuildFunc != nil {
		return m.ImageBuildFunc(ctx, buildContext, options)
	}
	return build.ImageBuildResponse{Body: jsonStream(`{"stream":"Successfully built"}`)}, nil
}

// ImagePull implements DockerAPI.
func (m *MockDockerAPI) ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error) {
	m.ImagePullCalls++
	if m.ImagePullFunc != nil {
		return m.ImagePullFunc(ctx, ref, options)
	}
	return jsonStream(`{"status":"Pull complete"}`), nil
}

// Close implements DockerAPI.
func (m *MockDockerAPI) Close() error {
	m.CloseCalls++
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// jsonStream returns an engine progress stream with one message per line.
func jsonStream(lines ...string) io.ReadCloser {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return io.NopCloser(&buf)
}
