package target

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cameronsjo/gantry/internal/compose"
	"github.com/cameronsjo/gantry/internal/deploy"
	"github.com/cameronsjo/gantry/internal/fileutil"
	"github.com/cameronsjo/gantry/internal/manifest"
	"github.com/cameronsjo/gantry/internal/snapshot"
	"github.com/cameronsjo/gantry/internal/ui"
)

// ErrOutputExists indicates the output folder exists and overwrite is off.
var ErrOutputExists = errors.New("output folder already exists")

// CreateFolder creates the output folder. With PerGroup set the folder is
// Path/<group>.
type CreateFolder struct {
	Path      string
	PerGroup  bool
	Overwrite bool
}

// Run implements Stage.
func (s CreateFolder) Run(_ context.Context, m *deploy.Model) error {
	path := groupFolder(s.Path, m, s.PerGroup)

	if _, err := os.Stat(path); err == nil {
		if !s.Overwrite {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		ui.Debug("Overwriting existing folder %s", path)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	return nil
}

// CopyResources copies router resources and member folders into the output
// folder. Member folders land in <out>/<service> without their declaration.
type CopyResources struct {
	Path     string
	PerGroup bool
}

// Run implements Stage.
func (s CopyResources) Run(_ context.Context, m *deploy.Model) error {
	out := groupFolder(s.Path, m, s.PerGroup)
	ui.Debug("Copying service resources to %s", out)

	for _, res := range m.Router.Resources {
		dst := filepath.Join(out, filepath.Base(res))
		if err := fileutil.CopyDir(res, dst); err != nil {
			return fmt.Errorf("copy router resource %s: %w", res, err)
		}
	}

	for _, svc := range m.Services {
		if svc.Folder == "" {
			continue
		}
		dst := filepath.Join(out, svc.Name)
		if err := fileutil.CopyDir(svc.Folder, dst, manifest.DeclarationFiles...); err != nil {
			return fmt.Errorf("copy service %s: %w", svc.Name, err)
		}
	}
	return nil
}

// SnapshotOutput keeps a copy of an existing output folder before it is
// overwritten. Retain overrides snapshot.DefaultRetain when non-zero.
type SnapshotOutput struct {
	Path   string
	Retain int
}

// Run implements Stage.
func (s SnapshotOutput) Run(_ context.Context, _ *deploy.Model) error {
	store, err := snapshot.New(s.Path)
	if err != nil {
		return err
	}
	if s.Retain != 0 {
		store.Retain = s.Retain
	}

	name, err := store.Create()
	if err != nil {
		return fmt.Errorf("snapshot output: %w", err)
	}
	if name != "" {
		ui.Item("Snapshot: %s", name)
	}
	return nil
}

// WriteRouterConfig writes the rendered router config next to the manifest.
type WriteRouterConfig struct {
	Path string
}

// Run implements Stage.
func (s WriteRouterConfig) Run(_ context.Context, m *deploy.Model) error {
	if m.Router.ConfigFile == "" {
		return nil
	}

	path := filepath.Join(s.Path, m.Router.ConfigFile)
	if err := fileutil.WriteFile(path, []byte(m.Router.Rendered), 0644); err != nil {
		return fmt.Errorf("write router config: %w", err)
	}
	ui.Item("Wrote: %s", path)
	return nil
}

// WriteCompose writes docker-compose.yml into the output folder.
type WriteCompose struct {
	Path    string
	Options compose.Options
}

// Run implements Stage.
func (s WriteCompose) Run(_ context.Context, m *deploy.Model) error {
	file, err := compose.FromModel(m, s.Options)
	if err != nil {
		return err
	}

	path := filepath.Join(s.Path, compose.FileName)
	if err := fileutil.WriteWith(path, 0644, func(w io.Writer) error {
		return compose.Write(w, file)
	}); err != nil {
		return fmt.Errorf("write %s: %w", compose.FileName, err)
	}
	ui.Item("Wrote: %s", path)
	return nil
}

func groupFolder(root string, m *deploy.Model, perGroup bool) string {
	if perGroup {
		return filepath.Join(root, m.Name)
	}
	return root
}
