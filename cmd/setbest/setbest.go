// Package setbest provides the set-best command for catalogcore
package setbest

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/cmd/cmdutil"
	"github.com/mantamatcher/catalogcore/internal/consolidation"
	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// Command creates and returns the set-best command
func Command(open cmdutil.Opener) *cobra.Command {
	var (
		kind  string
		id    string
		view  string
		photo string
	)

	cmd := &cobra.Command{
		Use:   "set-best",
		Short: "Choose or clear the best photo of a catalog entry or manta",
		Example: `  catalogcore set-best --kind catalog --id 47 --view ventral --photo 1500
  catalogcore set-best --kind manta --id 310 --view dorsal --photo none`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(kind, id, view, photo)
			if err != nil {
				return err
			}
			return cmdutil.WithServices(open, func(s *runtime.Services) error {
				result, err := s.Engine.SetBest(cmd.Context(), req)
				if err != nil {
					return err
				}
				return cmdutil.WriteJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(consolidation.EntityCatalog), "Entity kind: catalog or manta")
	cmd.Flags().StringVar(&id, "id", "", "Entity id")
	cmd.Flags().StringVar(&view, "view", "ventral", "View: ventral or dorsal")
	cmd.Flags().StringVar(&photo, "photo", "", `Photo id, or "none" to clear`)
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("photo")

	return cmd
}

func buildRequest(kind, id, view, photo string) (consolidation.SetBestRequest, error) {
	entityKind, err := consolidation.ParseEntityKind(kind)
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}
	entityID, err := consolidation.ParseID("id", id)
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}
	v, err := consolidation.ParseView(view)
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}

	req := consolidation.SetBestRequest{EntityKind: entityKind, EntityID: entityID, View: v}
	if strings.EqualFold(strings.TrimSpace(photo), "none") {
		return req, nil
	}
	photoID, err := consolidation.ParseID("photo", photo)
	if err != nil {
		return consolidation.SetBestRequest{}, err
	}
	req.PhotoID = &photoID
	return req, nil
}
