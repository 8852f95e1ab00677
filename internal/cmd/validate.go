package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the service group",
	Long: `Load the service group and every member service without writing anything.

Every member is evaluated, so all broken declarations are reported at once.

Examples:
  gantry validate
  gantry validate -s services/ -V env=prod`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	v, err := schema.New()
	if err != nil {
		return err
	}

	model, err := loadModel(cmd.Context(), v)
	if err != nil {
		return err
	}

	ui.Success("Service group %s is valid", model.Name)
	for _, svc := range model.Services {
		switch {
		case svc.IsRouter:
			ui.Item("%s (router: %s)", svc.Name, model.Router.Provider)
		case svc.Buildable():
			ui.Item("%s (build)", svc.Name)
		default:
			ui.Item("%s (%s)", svc.Name, svc.Image)
		}
	}
	return nil
}
