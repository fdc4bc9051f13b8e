// Package config provides the config command for catalogcore
package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/internal/conf"
)

// Command creates and returns the config command
func Command(load func() (*conf.Settings, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration as YAML with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := load()
			if err != nil {
				return err
			}
			out, err := settings.RedactedYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return err
		},
	})
	return cmd
}
