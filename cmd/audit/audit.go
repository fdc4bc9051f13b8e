// Package audit provides the audit command for catalogcore
package audit

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/cmd/cmdutil"
	"github.com/mantamatcher/catalogcore/internal/datastore/entities"
	"github.com/mantamatcher/catalogcore/internal/datastore/repository"
	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// Command creates and returns the audit command
func Command(open cmdutil.Opener) *cobra.Command {
	var (
		kind     string
		entityID int64
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List committed merges and best-photo changes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repository.AuditFilter{EntityID: entityID, Limit: limit}
			switch k := entities.AuditKind(strings.ToLower(kind)); k {
			case "":
			case entities.AuditMerge, entities.AuditBestAssetSet:
				filter.Kind = k
			default:
				return fmt.Errorf("unknown audit kind %q: must be %s or %s", kind, entities.AuditMerge, entities.AuditBestAssetSet)
			}

			return cmdutil.WithServices(open, func(s *runtime.Services) error {
				entries, err := s.Engine.Repositories().Audit.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return cmdutil.WriteJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by kind: merge or best_asset_set")
	cmd.Flags().Int64Var(&entityID, "entity", 0, "Filter by catalog entry or manta id")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")

	return cmd
}
