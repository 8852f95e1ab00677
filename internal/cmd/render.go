package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/compose"
	"github.com/cameronsjo/gantry/internal/schema"
)

var renderRouterConfig bool

// renderCmd represents the render command.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the generated docker-compose.yml",
	Long: `Render the service group as a docker-compose.yml on stdout.

Nothing is written to disk. Use "gantry build compose" to produce a
deployable folder.

Examples:
  gantry render
  gantry render --router-config   # print the rendered router config instead`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderRouterConfig, "router-config", false, "Print the rendered router config instead")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	v, err := schema.New()
	if err != nil {
		return err
	}

	model, err := loadModel(cmd.Context(), v)
	if err != nil {
		return err
	}

	if renderRouterConfig {
		_, err := cmd.OutOrStdout().Write([]byte(model.Router.Rendered))
		return err
	}

	file, err := compose.FromModel(model, compose.Options{})
	if err != nil {
		return err
	}
	return compose.Write(cmd.OutOrStdout(), file)
}
