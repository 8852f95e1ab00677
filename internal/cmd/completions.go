package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/gantry/internal/manifest"
	"github.com/cameronsjo/gantry/internal/schema"
)

// completeServiceNames completes member names from the group declaration at
// --services. The declaration is read without rendering so completion stays
// fast and never fails on template errors.
func completeServiceNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var decl struct {
		Services []string `yaml:"services"`
	}

	for _, name := range manifest.DeclarationFiles {
		data, err := os.ReadFile(filepath.Join(servicesDir, name))
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &decl); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		break
	}

	taken := make(map[string]bool, len(args))
	for _, a := range args {
		taken[a] = true
	}

	var names []string
	for _, name := range decl.Services {
		if !taken[name] && strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeSchemaNames completes embedded schema names.
func completeSchemaNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, id := range schema.All {
		if strings.HasPrefix(string(id), toComplete) {
			names = append(names, string(id))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
