package main

import (
	"streakd/internal/structures"

	"github.com/spf13/cobra"
)

// newRootCommand parses the daemon flags and hands them to run.
func newRootCommand(run func(flags *structures.CliFlags) error) *cobra.Command {
	flags := &structures.CliFlags{}

	cmd := &cobra.Command{
		Use:           "streakd",
		Short:         "streakd - reading streak engagement daemon",
		Long:          "Tracks daily reading qualification and streaks per profile over HTTP.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}

	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "config.yml", "path to the YAML config file")
	cmd.Flags().BoolVarP(&flags.DebugMode, "debug", "d", false, "console logging and the reset route")

	return cmd
}
