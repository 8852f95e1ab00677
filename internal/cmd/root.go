// Package cmd provides the CLI commands for gantry.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/ui"
)

const version = "0.3.0"

var (
	servicesDir string
	variables   []string
	configPath  string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gantry",
	Short: "Build single-host container deployments from service groups",
	Long: `gantry - service groups for a single Docker host

A service group is a folder with a service.yml naming the group's network,
router, and member services. Each member lives in a subfolder with its own
service.yml. Declarations are templates: {{ service.network }} and friends
are expanded before parsing.

COMMANDS
  validate              Load the service group and report every error
  render                Print the generated docker-compose.yml
  build compose -o DIR  Write a compose folder ready for docker compose
  build image [SVC...]  Build or pull the image of each service
  schemas list          List the embedded JSON schemas
  schemas dump NAME     Print one schema
  schemas export -o DIR Write every schema to DIR
  snapshots list -o DIR List snapshots of an overwritten compose folder
  snapshots restore     Roll a compose folder back to a snapshot
  configure             Set values in the gantry config file
  doctor                Check the host for docker and a valid config
  update                Update gantry to the latest release`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetVerbose(verbose)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel in-flight loads and builds.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&servicesDir, "services", "s", ".", "Service group folder")
	rootCmd.PersistentFlags().StringArrayVarP(&variables, "var", "V", nil, "Template variable as key=value (dotted keys nest)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $GANTRY_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output")

	rootCmd.SetVersionTemplate("gantry version {{.Version}}\n")
}
