// Package merge provides the merge command for catalogcore
package merge

import (
	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/cmd/cmdutil"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// Command creates and returns the merge command
func Command(open cmdutil.Opener) *cobra.Command {
	var deleteDetached bool

	cmd := &cobra.Command{
		Use:   "merge <idA> <idB>",
		Short: "Merge two catalog entries that are the same individual",
		Long: `Merge moves every manta and photo of the larger catalog id onto the smaller one,
keeps exactly one best photo per view, and recomputes the sighting summary.
The order of the two ids does not matter.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idA, err := consolidation.ParseID("idA", args[0])
			if err != nil {
				return err
			}
			idB, err := consolidation.ParseID("idB", args[1])
			if err != nil {
				return err
			}

			return cmdutil.WithServices(open, func(s *runtime.Services) error {
				summary, err := s.Engine.Merge(cmd.Context(), consolidation.MergeRequest{
					IDA:                       idA,
					IDB:                       idB,
					DeleteSecondaryIfDetached: deleteDetached,
				})
				if err != nil {
					return err
				}
				return cmdutil.WriteJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
	cmd.Flags().BoolVar(&deleteDetached, "delete-detached", false, "Delete the secondary entry once nothing references it")

	return cmd
}
