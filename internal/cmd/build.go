package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/docker"
	"github.com/cameronsjo/gantry/internal/preflight"
	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/target"
	"github.com/cameronsjo/gantry/internal/ui"
)

var (
	composeOutput    string
	composeOverwrite bool
	composeVerify    bool

	imageTag         string
	imageBuildNumber int
	imageBuildFolder string
	imageOptions     []string
)

// buildCmd groups the build targets.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the service group for deployment",
}

var buildComposeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Write a compose folder",
	Long: `Write the service group as a folder ready for docker compose.

The folder holds docker-compose.yml, the rendered router config, and each
service's resources. An existing folder is refused unless --overwrite is set.

Examples:
  gantry build compose -o out/
  gantry build compose -o out/ --overwrite --verify`,
	Args: cobra.NoArgs,
	RunE: runBuildCompose,
}

var buildImageCmd = &cobra.Command{
	Use:   "image [SERVICE]...",
	Short: "Build service container images",
	Long: `Build the container image of each SERVICE.

By default every service is built. Services declaring an image are pulled
instead. A YYYYMMDD.NNN tag is generated unless --tag is given; --build-number
sets the NNN part.

Target options (-O):
  overwrite    Overwrite an existing build folder
  skip-build   Assemble the build folder without calling docker

Examples:
  gantry build image
  gantry build image -n 4 api
  gantry build image -t 1.2.0 -O overwrite`,
	ValidArgsFunction: completeServiceNames,
	RunE:              runBuildImage,
}

func init() {
	buildComposeCmd.Flags().StringVarP(&composeOutput, "output", "o", "", "Output folder")
	buildComposeCmd.Flags().BoolVar(&composeOverwrite, "overwrite", false, "Overwrite an existing output folder")
	buildComposeCmd.Flags().BoolVar(&composeVerify, "verify", false, "Check the result with docker compose config")
	buildComposeCmd.MarkFlagRequired("output")

	buildImageCmd.Flags().StringVarP(&imageTag, "tag", "t", "", "Image tag (overrides the generated tag)")
	buildImageCmd.Flags().IntVarP(&imageBuildNumber, "build-number", "n", 0, "Build number of the generated tag")
	buildImageCmd.Flags().StringVarP(&imageBuildFolder, "build-folder", "b", "build", "Build folder")
	buildImageCmd.Flags().StringArrayVarP(&imageOptions, "option", "O", nil, "Target option as key or key=value")
	buildImageCmd.MarkFlagsMutuallyExclusive("tag", "build-number")

	buildCmd.AddCommand(buildComposeCmd, buildImageCmd)
	rootCmd.AddCommand(buildCmd)
}

func runBuildCompose(cmd *cobra.Command, args []string) error {
	v, err := schema.New()
	if err != nil {
		return err
	}

	model, err := loadModel(cmd.Context(), v)
	if err != nil {
		return err
	}

	var opts []target.ComposeOption
	if composeVerify {
		if err := preflight.Require("docker"); err != nil {
			return err
		}
		opts = append(opts, target.WithVerifier(func(ctx context.Context, file string) error {
			client, err := docker.NewComposeClient(file)
			if err != nil {
				return err
			}
			if err := client.Verify(ctx); err != nil {
				return err
			}

			services, err := client.Services(ctx)
			if err != nil {
				return err
			}
			if len(services) != len(model.Services) {
				return fmt.Errorf("docker compose sees %d services, expected %d", len(services), len(model.Services))
			}
			ui.Debug("docker compose config: %s", strings.Join(services, ", "))
			return nil
		}))
	}

	return target.NewComposeTarget(composeOutput, composeOverwrite, opts...).Build(cmd.Context(), model)
}

func runBuildImage(cmd *cobra.Command, args []string) error {
	v, err := schema.New()
	if err != nil {
		return err
	}

	opts, err := target.ParseOptions(target.ImageOptions, imageOptions)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	model, err := loadModel(cmd.Context(), v)
	if err != nil {
		return err
	}

	tag := imageTag
	if tag == "" {
		tag = defaultTag(time.Now(), imageBuildNumber)
	}

	req := target.ImageRequest{
		BuildFolder: imageBuildFolder,
		Tag:         tag,
		Config:      cfg,
		Services:    args,
		Options:     imageOptions,
	}

	if opts.Has("skip-build") {
		t, err := target.NewImageTarget(req, nil, v)
		if err != nil {
			return err
		}
		return t.Build(cmd.Context(), model)
	}

	if err := preflight.Require("docker"); err != nil {
		return err
	}
	return withDockerClient(cmd.Context(), func(client *docker.Client) error {
		t, err := target.NewImageTarget(req, client, v)
		if err != nil {
			return err
		}
		return t.Build(cmd.Context(), model)
	})
}
