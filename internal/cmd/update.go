package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/gantry/internal/ui"
	"github.com/cameronsjo/gantry/internal/update"
)

const changelogLines = 10

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"upgrade", "selfupdate"},
	Short:   "Update gantry to the latest version",
	Long: `Update gantry to the latest version from GitHub releases.

Examples:
  gantry update           # Update to latest version
  gantry update --check   # Check for updates without installing`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

var checkOnly bool

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for updates, don't install")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ui.Blue.Printf("Current version: %s (%s)\n", version, update.PlatformInfo())
	ui.Blue.Println("Checking for updates...")

	if checkOnly {
		release, available, err := update.CheckForUpdate(cmd.Context(), version)
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !available {
			ui.Success("You're running the latest version!")
			return nil
		}

		ui.Success("New version available: %s (released %s)", release.Version, release.PublishedAt)
		ui.Blue.Println("To update, run: gantry update")
		printChangelog(release)
		return nil
	}

	release, err := update.Update(cmd.Context(), version)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if release == nil {
		ui.Success("You're already running the latest version!")
		return nil
	}

	ui.Success("Successfully updated to version %s!", release.Version)
	printChangelog(release)
	return nil
}

func printChangelog(release *update.Release) {
	lines, omitted := update.ChangelogPreview(release.Changelog, changelogLines)
	if len(lines) == 0 {
		return
	}

	fmt.Println()
	ui.Yellow.Println("What's new:")
	for _, line := range lines {
		fmt.Printf("  %s\n", line)
	}
	if omitted > 0 {
		fmt.Printf("  ... (%d more lines)\n", omitted)
	}
}
