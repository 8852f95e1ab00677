package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// commandRunner runs an external command and returns its combined output.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ComposeClient runs docker compose against a generated manifest.
type ComposeClient struct {
	file string
	run  commandRunner
}

// NewComposeClient creates a new compose client for the given compose file.
func NewComposeClient(file string) (*ComposeClient, error) {
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("compose file not found: %w", err)
	}
	return &ComposeClient{file: file, run: execRunner}, nil
}

// Verify asks docker compose to parse and validate the manifest.
func (c *ComposeClient) Verify(ctx context.Context) error {
	output, err := c.run(ctx, "docker", "compose", "-f", c.file, "config", "--quiet")
	if err != nil {
		return fmt.Errorf("docker compose config: %w\n%s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Services lists the service names docker compose sees in the manifest.
func (c *ComposeClient) Services(ctx context.Context) ([]string, error) {
	output, err := c.run(ctx, "docker", "compose", "-f", c.file, "config", "--services")
	if err != nil {
		return nil, fmt.Errorf("docker compose config: %w\n%s", err, strings.TrimSpace(string(output)))
	}

	var services []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			services = append(services, line)
		}
	}
	return services, nil
}
