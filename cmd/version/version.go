// Package version provides the version command for catalogcore
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/internal/buildinfo"
)

// Command creates and returns the version command
func Command(build buildinfo.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the catalogcore version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "catalogcore %s (built %s)\n", build.GetVersion(), build.GetBuildDate())
			return err
		},
	}
}
