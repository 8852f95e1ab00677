// Package snapshot keeps copies of generated output folders so an
// overwritten build can be rolled back.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cameronsjo/gantry/internal/fileutil"
)

const (
	// Prefix starts every snapshot folder name.
	Prefix = "snapshot-"

	// TimeFormat is the timestamp part of a snapshot name. Nanoseconds keep
	// snapshots taken in the same second apart.
	TimeFormat = "20060102-150405.000000000"

	// DefaultRetain is the number of snapshots kept per output folder.
	DefaultRetain = 10
)

// ErrNotFound indicates a snapshot name with no folder.
var ErrNotFound = errors.New("snapshot not found")

// Info describes a stored snapshot.
type Info struct {
	Name    string
	Path    string
	Created time.Time
	Files   int
}

// Store holds the snapshots of one output folder in
// <parent>/.gantry/snapshots/<output>.
type Store struct {
	output string
	dir    string

	// Retain is the number of snapshots kept after each Create.
	Retain int

	now func() time.Time
}

// New creates the store for output.
func New(output string) (*Store, error) {
	abs, err := filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolve output folder: %w", err)
	}

	return &Store{
		output: abs,
		dir:    filepath.Join(filepath.Dir(abs), ".gantry", "snapshots", filepath.Base(abs)),
		Retain: DefaultRetain,
		now:    time.Now,
	}, nil
}

// Dir returns the folder snapshots are kept in.
func (s *Store) Dir() string {
	return s.dir
}

// Create copies the output folder into a new snapshot and prunes old ones.
// It returns an empty name when the output folder is missing or empty.
func (s *Store) Create() (string, error) {
	if !hasContent(s.output) {
		return "", nil
	}

	name := Prefix + s.now().Format(TimeFormat)
	path := filepath.Join(s.dir, name)

	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("create snapshot folder: %w", err)
	}
	if err := fileutil.CopyDir(s.output, path); err != nil {
		if cleanupErr := os.RemoveAll(path); cleanupErr != nil {
			return "", fmt.Errorf("copy output to snapshot: %w (cleanup also failed: %v)", err, cleanupErr)
		}
		return "", fmt.Errorf("copy output to snapshot: %w", err)
	}

	if err := s.Prune(); err != nil {
		return name, err
	}
	return name, nil
}

// List returns the stored snapshots, newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshots folder: %w", err)
	}

	var snapshots []Info
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), Prefix) {
			continue
		}

		created, err := time.Parse(TimeFormat, strings.TrimPrefix(entry.Name(), Prefix))
		if err != nil {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			created = info.ModTime()
		}

		path := filepath.Join(s.dir, entry.Name())
		snapshots = append(snapshots, Info{
			Name:    entry.Name(),
			Path:    path,
			Created: created,
			Files:   countFiles(path),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Created.After(snapshots[j].Created)
	})
	return snapshots, nil
}

// Latest returns the newest snapshot.
func (s *Store) Latest() (Info, error) {
	snapshots, err := s.List()
	if err != nil {
		return Info{}, err
	}
	if len(snapshots) == 0 {
		return Info{}, fmt.Errorf("%w: no snapshots of %s", ErrNotFound, s.output)
	}
	return snapshots[0], nil
}

// Restore replaces the output folder with the named snapshot. The current
// output is snapshotted first so a restore can itself be undone.
func (s *Store) Restore(name string) error {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	id := uuid.New().String()[:8]
	tempDir := s.output + ".restore-" + id
	oldDir := s.output + ".old-" + id

	if err := fileutil.CopyDir(path, tempDir); err != nil {
		os.RemoveAll(tempDir)
		return fmt.Errorf("copy snapshot: %w", err)
	}

	if _, err := s.Create(); err != nil {
		os.RemoveAll(tempDir)
		return fmt.Errorf("snapshot current output: %w", err)
	}

	_, statErr := os.Stat(s.output)
	exists := statErr == nil
	if exists {
		if err := os.Rename(s.output, oldDir); err != nil {
			os.RemoveAll(tempDir)
			return fmt.Errorf("move current output: %w", err)
		}
	}

	if err := os.Rename(tempDir, s.output); err != nil {
		if exists {
			if recoverErr := os.Rename(oldDir, s.output); recoverErr != nil {
				os.RemoveAll(tempDir)
				return fmt.Errorf("restore output: %w (recovery also failed: %v)", err, recoverErr)
			}
		}
		os.RemoveAll(tempDir)
		return fmt.Errorf("restore output: %w", err)
	}

	if exists {
		os.RemoveAll(oldDir)
	}
	return nil
}

// Prune removes snapshots beyond Retain. A Retain of zero or less keeps
// everything.
func (s *Store) Prune() error {
	if s.Retain <= 0 {
		return nil
	}

	snapshots, err := s.List()
	if err != nil {
		return err
	}
	if len(snapshots) <= s.Retain {
		return nil
	}

	var errs []string
	for _, snap := range snapshots[s.Retain:] {
		if err := os.RemoveAll(snap.Path); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", snap.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("prune %d snapshot(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

func hasContent(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

func countFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}
