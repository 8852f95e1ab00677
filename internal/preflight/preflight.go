// Package preflight checks for the host binaries gantry shells out to.
package preflight

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrMissingBinary indicates a required binary is not on PATH.
var ErrMissingBinary = errors.New("missing binary")

// Binary is a host tool and what gantry needs it for.
type Binary struct {
	Name        string
	Purpose     string
	InstallHint string
}

// Binaries lists every tool gantry may invoke.
var Binaries = []Binary{
	{
		Name:        "docker",
		Purpose:     "image builds and compose verification",
		InstallHint: "Install Docker: https://docs.docker.com/get-docker/",
	},
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Result is the outcome of looking up one binary.
type Result struct {
	Binary Binary

	// Path is where the binary was found. Empty when missing.
	Path string
}

// Found reports whether the binary is on PATH.
func (r Result) Found() bool {
	return r.Path != ""
}

// Check looks up every known binary.
func Check() []Result {
	results := make([]Result, 0, len(Binaries))
	for _, bin := range Binaries {
		path, _ := lookPath(bin.Name)
		results = append(results, Result{Binary: bin, Path: path})
	}
	return results
}

// Require returns an error naming each binary in names that is missing,
// with its install hint.
func Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, err := lookPath(name); err == nil {
			continue
		}
		hint := ""
		if bin, ok := lookup(name); ok {
			hint = " (" + bin.InstallHint + ")"
		}
		missing = append(missing, name+hint)
	}

	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingBinary, strings.Join(missing, ", "))
}

func lookup(name string) (Binary, bool) {
	for _, bin := range Binaries {
		if bin.Name == name {
			return bin, true
		}
	}
	return Binary{}, false
}
