package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/config"
	"github.com/cameronsjo/gantry/internal/schema"
	"github.com/cameronsjo/gantry/internal/ui"
)

var (
	configureRegistryURL       string
	configureRegistryNamespace string
	configureForgeProvider     string
	configureForgeURL          string
	configureForgeOwner        string
)

var configureFlags = []string{"registry-url", "registry-namespace", "forge-provider", "forge-url", "forge-owner"}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set values in the gantry config file",
	Long: `Set values in the gantry config file and write it back.

The file is --config, then $GANTRY_CONFIG, then config.yml in the user config
directory. It is created when missing. Only the flags given change; the rest
of the file is kept. The result is validated before anything is written.`,
	Example: `  gantry configure --registry-url registry.example.com --registry-namespace acme
  gantry configure --forge-url https://git.example.com --forge-owner acme`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureRegistryURL, "registry-url", "", "Container registry URL")
	configureCmd.Flags().StringVar(&configureRegistryNamespace, "registry-namespace", "", "Namespace prefixed to image names")
	configureCmd.Flags().StringVar(&configureForgeProvider, "forge-provider", "gitea", "Code forge provider")
	configureCmd.Flags().StringVar(&configureForgeURL, "forge-url", "", "Code forge URL")
	configureCmd.Flags().StringVar(&configureForgeOwner, "forge-owner", "", "Owner of the service repositories")

	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	changed := false
	for _, name := range configureFlags {
		changed = changed || flags.Changed(name)
	}
	if !changed {
		return fmt.Errorf("nothing to configure, see --help")
	}

	v, err := schema.New()
	if err != nil {
		return err
	}

	path, _, err := config.Path(configPath)
	if err != nil {
		return err
	}

	cfg := &config.Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = config.Parse(data, v); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("read config: %w", err)
	}

	if flags.Changed("registry-url") || flags.Changed("registry-namespace") {
		if cfg.Registry == nil {
			cfg.Registry = &config.Registry{}
		}
		if flags.Changed("registry-url") {
			cfg.Registry.URL = configureRegistryURL
		}
		if flags.Changed("registry-namespace") {
			cfg.Registry.Namespace = configureRegistryNamespace
		}
	}

	if flags.Changed("forge-provider") || flags.Changed("forge-url") || flags.Changed("forge-owner") {
		if cfg.Forge == nil {
			cfg.Forge = &config.Forge{Provider: configureForgeProvider}
		}
		if flags.Changed("forge-provider") {
			cfg.Forge.Provider = configureForgeProvider
		}
		if flags.Changed("forge-url") {
			cfg.Forge.URL = configureForgeURL
		}
		if flags.Changed("forge-owner") {
			cfg.Forge.Owner = configureForgeOwner
		}
	}

	if err := config.Save(path, cfg, v); err != nil {
		return err
	}
	ui.Success("Wrote: %s", path)
	return nil
}
