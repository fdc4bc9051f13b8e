package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mantamatcher/catalogcore/cmd/audit"
	"github.com/mantamatcher/catalogcore/cmd/cmdutil"
	configcmd "github.com/mantamatcher/catalogcore/cmd/config"
	"github.com/mantamatcher/catalogcore/cmd/diagnose"
	"github.com/mantamatcher/catalogcore/cmd/merge"
	"github.com/mantamatcher/catalogcore/cmd/migrate"
	"github.com/mantamatcher/catalogcore/cmd/serve"
	"github.com/mantamatcher/catalogcore/cmd/setbest"
	"github.com/mantamatcher/catalogcore/cmd/version"
	"github.com/mantamatcher/catalogcore/internal/buildinfo"
	"github.com/mantamatcher/catalogcore/internal/conf"
	"github.com/mantamatcher/catalogcore/internal/runtime"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	debug      bool
}

// RootCommand creates and returns the root command
func RootCommand(build buildinfo.BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "catalogcore",
		Short:         "Manta catalog identity consolidation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to config file (default: search standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Enable debug output")

	load := func() (*conf.Settings, error) {
		settings, err := conf.Load(flags.configFile)
		if err != nil {
			return nil, err
		}
		if flags.debug {
			settings.Debug = true
		}
		return settings, nil
	}
	open := cmdutil.Opener(func() (*runtime.Services, error) {
		settings, err := load()
		if err != nil {
			return nil, err
		}
		return runtime.Open(settings, build)
	})

	rootCmd.AddCommand(
		serve.Command(open),
		merge.Command(open),
		setbest.Command(open),
		diagnose.Command(open),
		audit.Command(open),
		migrate.Command(open),
		configcmd.Command(load),
		version.Command(build),
	)

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute(build buildinfo.BuildInfo) int {
	if err := RootCommand(build).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
