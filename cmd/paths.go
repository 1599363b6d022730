package cmd

import (
	"fmt"

	"github.com/grovetools/widgetdeck/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the XDG-compliant paths used by widgetdeck.
type PathsOutput struct {
	ConfigDir string `json:"config_dir"`
	DataDir   string `json:"data_dir"`
	StateDir  string `json:"state_dir"`
	CacheDir  string `json:"cache_dir"`
	LogDir    string `json:"log_dir"`
	PidFile   string `json:"pid_file"`
}

// NewPathsCmd returns the paths command.
func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the XDG-compliant paths used by widgetdeck",
		Long: `Print the XDG-compliant paths used by widgetdeck as JSON.

- config_dir: global widgetdeck.yml
- state_dir: persisted state (file and sqlite backends), logs, pid file
- data_dir, cache_dir: reserved`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir: paths.ConfigDir(),
				DataDir:   paths.DataDir(),
				StateDir:  paths.StateDir(),
				CacheDir:  paths.CacheDir(),
				LogDir:    paths.LogDir(),
				PidFile:   paths.PidFilePath(),
			}
			if err := printValue(cmd, output, "json"); err != nil {
				return fmt.Errorf("failed to print paths: %w", err)
			}
			return nil
		},
	}
}
