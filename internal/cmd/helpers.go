package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cameronsjo/gantry/internal/config"
	"github.com/cameronsjo/gantry/internal/deploy"
	"github.com/cameronsjo/gantry/internal/docker"
	"github.com/cameronsjo/gantry/internal/manifest"
	"github.com/cameronsjo/gantry/internal/router"
	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
)

// loadModel loads the service group at --services and builds its model.
func loadModel(ctx context.Context, v schema.Validator) (*deploy.Model, error) {
	vars, err := manifest.ParseVariables(variables)
	if err != nil {
		return nil, err
	}

	loader := manifest.NewLoader(v, router.Default(v))
	loader.Variables = vars

	group, err := loader.LoadGroup(ctx, servicesDir)
	if err != nil {
		if !manifest.IsLoadError(err) {
			return nil, err
		}
		reportLoadError(err)
		return nil, fmt.Errorf("failed to parse service group definition")
	}

	ui.Debug("Loaded service group %s from %s", group.Name, group.Folder)
	return deploy.Build(group), nil
}

// reportLoadError prints every member failure of a group load.
func reportLoadError(err error) {
	ui.Error("Invalid service group definition")

	var groupErr *manifest.GroupError
	if !errors.As(err, &groupErr) {
		ui.Item("%v", err)
		return
	}

	for _, le := range groupErr.Errors {
		ui.Item("%v", le)
		if len(le.Violations) > 1 {
			for _, v := range le.Violations {
				ui.SubItem("%s", v)
			}
		}
	}
}

func loadConfig(v schema.Validator) (*config.Config, error) {
	cfg, err := config.Load(configPath, v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Path != "" {
		ui.Debug("Using config %s", cfg.Path)
	}
	return cfg, nil
}

// withDockerClient executes a function with a Docker client, handling connection and cleanup.
func withDockerClient(ctx context.Context, fn func(*docker.Client) error) error {
	client, err := docker.NewClient()
	if err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("connect to docker: %w", err)
	}

	return fn(client)
}

// defaultTag returns the auto-generated "YYYYMMDD.NNN" image tag.
func defaultTag(now time.Time, buildNumber int) string {
	return fmt.Sprintf("%s.%03d", now.Format("20060102"), buildNumber)
}
