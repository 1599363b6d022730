package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/widgetdeck/cli"
	"github.com/grovetools/widgetdeck/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd returns the config command group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration layers and schema",
	}
	cmd.AddCommand(newConfigLayersCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	return cmd
}

func newConfigLayersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "Display the layered configuration for the current directory",
		Long: `Shows how the final configuration is built by merging layers:
1. Global config (<config dir>/widgetdeck.yml)
2. Project config (widgetdeck.yml, searched upward)
3. Override files (widgetdeck.override.yml)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}

			layered, err := config.LoadLayeredWithLogger(cwd, cli.GetLogger(cmd).Logger)
			if err != nil {
				return fmt.Errorf("failed to load layered config: %w", err)
			}

			out := cmd.OutOrStdout()
			printLayer := func(title string, path string, cfg *config.Config) {
				if cfg == nil {
					return
				}
				fmt.Fprintf(out, "--- # %s\n", title)
				if path != "" {
					fmt.Fprintf(out, "# Source: %s\n", path)
				}
				data, _ := yaml.Marshal(cfg)
				fmt.Fprintln(out, string(data))
			}

			printLayer("GLOBAL CONFIG", layered.FilePaths[config.SourceGlobal], layered.Global)
			printLayer("PROJECT CONFIG", layered.FilePaths[config.SourceProject], layered.Project)
			for _, override := range layered.Overrides {
				printLayer("OVERRIDE CONFIG", override.Path, override.Config)
			}
			printLayer("FINAL MERGED CONFIG", "", layered.Final)
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of widgetdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
