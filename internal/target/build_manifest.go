package target

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cameronsjo/gantry/internal/fileutil"
	"github.com/cameronsjo/gantry/internal/schema"
)

// ManifestFile is the build manifest's file name inside a build folder.
const ManifestFile = "manifest.json"

// ManifestType identifies gantry build manifests.
const ManifestType = "gantry-manifest"

// ErrInvalidManifest indicates a build manifest that fails validation.
var ErrInvalidManifest = errors.New("invalid build manifest")

// EntryType is the kind of artifact a manifest entry describes.
type EntryType string

// Build manifest entry types.
const (
	EntryImage   EntryType = "image"
	EntryCompose EntryType = "docker-compose"
)

// Entry is one artifact of a build.
type Entry struct {
	Type EntryType `json:"type"`

	// Image and Source describe image entries. Source is the Dockerfile path
	// relative to the build folder.
	Image  string `json:"image,omitempty"`
	Source string `json:"source,omitempty"`

	// ComposeFile and IsDeployable describe docker-compose entries.
	ComposeFile  string `json:"compose-file,omitempty"`
	IsDeployable *bool  `json:"is-deployable,omitempty"`
}

// ImageEntry creates an image entry.
func ImageEntry(image, source string) Entry {
	return Entry{Type: EntryImage, Image: image, Source: source}
}

// BuildManifest lists everything a build folder contains.
type BuildManifest struct {
	Type     string  `json:"type"`
	Contents []Entry `json:"contents"`
}

// NewBuildManifest creates a manifest holding entries.
func NewBuildManifest(entries ...Entry) *BuildManifest {
	return &BuildManifest{Type: ManifestType, Contents: append([]Entry{}, entries...)}
}

// Append adds entries to the end of the manifest.
func (b *BuildManifest) Append(entries ...Entry) {
	b.Contents = append(b.Contents, entries...)
}

// Images returns the image entries in order.
func (b *BuildManifest) Images() []Entry {
	var out []Entry
	for _, e := range b.Contents {
		if e.Type == EntryImage {
			out = append(out, e)
		}
	}
	return out
}

// LoadBuildManifest reads and validates a manifest. A missing file is
// reported with an error satisfying os.IsNotExist.
func LoadBuildManifest(path string, v schema.Validator) (*BuildManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err // unwrapped for os.IsNotExist
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	violations, err := v.Validate(doc, schema.BuildManifest)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidManifest, path, violations[0])
	}

	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the manifest as indented JSON.
func (b *BuildManifest) Save(path string) error {
	return fileutil.WriteWith(path, 0644, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(b)
	})
}
