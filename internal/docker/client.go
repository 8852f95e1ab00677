package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"golang.org/x/term"
)

// Client wraps the Docker SDK client.
type Client struct {
	api DockerAPI

	// Output receives engine progress. Defaults to os.Stdout.
	Output io.Writer
}

// NewClient creates a new Docker client connection.
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Client{api: cli, Output: os.Stdout}, nil
}

// NewClientWithAPI creates a new Docker client with a custom API implementation.
// This is primarily used for testing with mock implementations.
func NewClientWithAPI(api DockerAPI) *Client {
	return &Client{api: api, Output: io.Discard}
}

// Ping tests the connection to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker: %w", err)
	}

	return nil
}

// Close closes the Docker client connection.
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}

// BuildRequest describes one image build.
type BuildRequest struct {
	// ContextDir is the folder sent to the engine as the build context.
	ContextDir string

	// Dockerfile is relative to ContextDir. Defaults to "Dockerfile".
	Dockerfile string

	Tags   []string
	Args   map[string]string
	Labels map[string]string
}

// BuildImage builds an image from req.ContextDir.
func (c *Client) BuildImage(ctx context.Context, req BuildRequest) error {
	if info, err := os.Stat(req.ContextDir); err != nil {
		return fmt.Errorf("build context: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("build context %s is not a directory", req.ContextDir)
	}

	buildContext, err := archive.TarWithOptions(req.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("archive build context %s: %w", req.ContextDir, err)
	}
	defer buildContext.Close()

	resp, err := c.api.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:       req.Tags,
		Dockerfile: req.Dockerfile,
		BuildArgs:  buildArgs(req.Args),
		Labels:     req.Labels,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("build image %v: %w", req.Tags, err)
	}
	defer resp.Body.Close()

	if err := c.stream(resp.Body); err != nil {
		return fmt.Errorf("build image %v: %w", req.Tags, err)
	}
	return nil
}

// PullImage pulls ref from its registry.
func (c *Client) PullImage(ctx context.Context, ref string) error {
	body, err := c.api.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer body.Close()

	if err := c.stream(body); err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	return nil
}

// stream renders engine progress messages and returns the first error the
// engine reports.
func (c *Client) stream(r io.Reader) error {
	out := c.Output
	if out == nil {
		out = io.Discard
	}

	var fd uintptr
	isTerminal := false
	if f, ok := out.(*os.File); ok {
		fd = f.Fd()
		isTerminal = term.IsTerminal(int(fd))
	}

	return jsonmessage.DisplayJSONMessagesStream(r, out, fd, isTerminal, nil)
}

// buildArgs converts build args to the engine's pointer form.
func buildArgs(args map[string]string) map[string]*string {
	if len(args) == 0 {
		return nil
	}

	out := make(map[string]*string, len(args))
	for k, v := range args {
		out[k] = &v
	}
	return out
}
