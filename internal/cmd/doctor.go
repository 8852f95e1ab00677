package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/docker"
	"github.com/cameronsjo/gantry/internal/preflight"
	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the host for the tools gantry needs",
	Long: `Check that the docker binary is installed, the docker daemon answers,
and the gantry config file is valid.

Only "build image" and "build compose --verify" need docker. Validation and
rendering work without it.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ui.Header("Host checks")
	failures := 0

	for _, r := range preflight.Check() {
		if r.Found() {
			ui.Success("%s: %s", r.Binary.Name, r.Path)
			continue
		}
		failures++
		ui.Error("%s not found, needed for %s", r.Binary.Name, r.Binary.Purpose)
		ui.Item("%s", r.Binary.InstallHint)
	}

	err := withDockerClient(cmd.Context(), func(*docker.Client) error { return nil })
	if err != nil {
		failures++
		ui.Error("docker daemon: %v", err)
	} else {
		ui.Success("docker daemon is reachable")
	}

	v, err := schema.New()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	switch {
	case err != nil:
		failures++
		ui.Error("%v", err)
	case cfg.Path == "":
		ui.Info("No config file, using defaults")
	default:
		ui.Success("config: %s", cfg.Path)
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	return nil
}
