// Package diagnose provides the diagnose command for catalogcore
package diagnose

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/cmd/cmdutil"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// Command creates and returns the diagnose command
func Command(open cmdutil.Opener) *cobra.Command {
	var (
		catalogID int64
		failOnBad bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Report best-photo and ownership invariant violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmdutil.WithServices(open, func(s *runtime.Services) error {
				report, err := s.Engine.Diagnose(cmd.Context(), consolidation.DiagnoseRequest{CatalogID: catalogID})
				if err != nil {
					return err
				}
				if err := cmdutil.WriteJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if failOnBad && !report.Healthy {
					return fmt.Errorf("catalog invariants violated")
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&catalogID, "catalog", 0, "Limit the report to one catalog entry")
	cmd.Flags().BoolVar(&failOnBad, "fail-on-violation", false, "Exit non-zero when any violation is found")

	return cmd
}
