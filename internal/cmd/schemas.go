package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/fileutil"
	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
)

var schemasOutput string

// schemasCmd groups the schema commands.
var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "Inspect the embedded JSON schemas",
}

var schemasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the schema names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range schema.All {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var schemasDumpCmd = &cobra.Command{
	Use:               "dump NAME",
	Short:             "Print a schema",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSchemaNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := schema.Lookup(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", schema.ErrUnknownSchema, args[0])
		}

		data, err := schema.Document(id)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var schemasExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every schema to a folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range schema.All {
			data, err := schema.Document(id)
			if err != nil {
				return err
			}

			path := filepath.Join(schemasOutput, string(id)+".json")
			if err := fileutil.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("export %s: %w", id, err)
			}
			ui.Item("Wrote: %s", path)
		}
		return nil
	},
}

func init() {
	schemasExportCmd.Flags().StringVarP(&schemasOutput, "output", "o", ".", "Output folder")

	schemasCmd.AddCommand(schemasListCmd, schemasDumpCmd, schemasExportCmd)
	rootCmd.AddCommand(schemasCmd)
}
