package target

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/cameronsjo/gantry/internal/config"
	"github.com/cameronsjo/gantry/internal/deploy"
	"github.com/cameronsjo/gantry/internal/docker"
	"github.com/cameronsjo/gantry/internal/lock"
	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
	"github.com/cameronsjo/gantry/internal/vcs"
)

// ErrUnknownService indicates a requested service that is not a group member.
var ErrUnknownService = errors.New("unknown service")

// ImageBuilder builds and pulls container images.
type ImageBuilder interface {
	BuildImage(ctx context.Context, req docker.BuildRequest) error
	PullImage(ctx context.Context, ref string) error
}

var _ ImageBuilder = (*docker.Client)(nil)

// ImageOptions lists the options the image target accepts.
var ImageOptions = []Option{
	{
		Name: "overwrite",
		Description: "Overwrite the contents of the build folder before building. " +
			"By default existing build folders are left untouched.",
	},
	{
		Name:        "skip-build",
		Description: "Skip the docker build stage and only assemble the build folder.",
	},
}

// ImageRequest configures an image target.
type ImageRequest struct {
	// BuildFolder holds <group>/ and manifest.json.
	BuildFolder string

	Tag    string
	Config *config.Config

	// Services limits the build to the named members. Empty builds all.
	Services []string

	Options []string
}

// ImageTarget assembles a build folder and builds each service's image.
type ImageTarget struct {
	req       ImageRequest
	builder   ImageBuilder
	validator schema.Validator
	pipeline  *Pipeline
}

// NewImageTarget creates an image target. builder may be nil when the
// skip-build option is given.
func NewImageTarget(req ImageRequest, builder ImageBuilder, v schema.Validator) (*ImageTarget, error) {
	opts, err := ParseOptions(ImageOptions, req.Options)
	if err != nil {
		return nil, err
	}

	t := &ImageTarget{req: req, builder: builder, validator: v}
	t.pipeline = NewPipeline(
		CreateFolder{Path: req.BuildFolder, PerGroup: true, Overwrite: opts.Has("overwrite")},
		CopyResources{Path: req.BuildFolder, PerGroup: true},
		StageFunc(t.updateManifest),
	)

	if opts.Has("skip-build") {
		ui.Info("Docker build stage will be skipped")
	} else {
		if builder == nil {
			return nil, errors.New("image target: no image builder configured")
		}
		t.pipeline.Add(StageFunc(t.buildImages))
	}
	return t, nil
}

// Build implements Target.
func (t *ImageTarget) Build(ctx context.Context, m *deploy.Model) error {
	if _, err := t.selected(m); err != nil {
		return err
	}

	err := lock.WithLock(t.req.BuildFolder, m.Name, func() error {
		return t.pipeline.Run(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("build image target: %w", err)
	}
	return nil
}

// ImageName returns the image name a service is tagged with.
func (t *ImageTarget) ImageName(service string) string {
	return t.req.Config.ImageName(service, t.req.Tag)
}

// selected returns the buildable members named by the request, in model order.
func (t *ImageTarget) selected(m *deploy.Model) ([]deploy.Service, error) {
	members := m.Members()
	if len(t.req.Services) == 0 {
		return members, nil
	}

	known := make(map[string]bool, len(members))
	for _, svc := range members {
		known[svc.Name] = true
	}
	want := make(map[string]bool, len(t.req.Services))
	for _, name := range t.req.Services {
		if !known[name] {
			return nil, fmt.Errorf("%w: %q is not a member of %s", ErrUnknownService, name, m.Name)
		}
		want[name] = true
	}

	var out []deploy.Service
	for _, svc := range members {
		if want[svc.Name] {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (t *ImageTarget) updateManifest(_ context.Context, m *deploy.Model) error {
	services, err := t.selected(m)
	if err != nil {
		return err
	}

	var entries []Entry
	for _, svc := range services {
		if !svc.Buildable() {
			continue
		}
		entries = append(entries, ImageEntry(t.ImageName(svc.Name), path.Join(m.Name, svc.Name, "Dockerfile")))
	}

	manifestPath := filepath.Join(t.req.BuildFolder, ManifestFile)
	bm, err := LoadBuildManifest(manifestPath, t.validator)
	switch {
	case err == nil:
		bm.Append(entries...)
		ui.Debug("Updating manifest at %s", manifestPath)
	case os.IsNotExist(err):
		bm = NewBuildManifest(entries...)
		ui.Debug("Generating manifest at %s", manifestPath)
	default:
		return err
	}

	if err := bm.Save(manifestPath); err != nil {
		return fmt.Errorf("save build manifest: %w", err)
	}
	ui.Debug("Build manifest lists %d image(s)", len(bm.Images()))
	return nil
}

func (t *ImageTarget) buildImages(ctx context.Context, m *deploy.Model) error {
	services, err := t.selected(m)
	if err != nil {
		return err
	}

	labels := vcs.Labels(m.Folder)
	ui.Header("Building services")

	for i, svc := range services {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !svc.Buildable() {
			ui.Step(i+1, "Pulling %s", svc.Image)
			if err := t.builder.PullImage(ctx, svc.Image); err != nil {
				return fmt.Errorf("service %s: %w", svc.Name, err)
			}
			continue
		}

		image := t.ImageName(svc.Name)
		ui.Step(i+1, "Building %s", image)
		err := t.builder.BuildImage(ctx, docker.BuildRequest{
			ContextDir: filepath.Join(t.req.BuildFolder, m.Name, svc.Name),
			Tags:       []string{image},
			Args:       svc.BuildArgs,
			Labels:     labels,
		})
		if err != nil {
			return fmt.Errorf("service %s: %w", svc.Name, err)
		}
	}

	ui.Success("Built %d service(s)", len(services))
	return nil
}
