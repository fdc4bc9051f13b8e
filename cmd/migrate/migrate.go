// Package migrate provides the migrate command for catalogcore
package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/cmd/cmdutil"
	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// Command creates and returns the migrate command
func Command(open cmdutil.Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema and best-photo indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the services migrates the schema.
			return cmdutil.WithServices(open, func(s *runtime.Services) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s at %s)\n", s.Store.Dialect(), s.Store.Path())
				return err
			})
		},
	}
}
