package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harlequingg/taskplanner/internal/config"
	"github.com/harlequingg/taskplanner/internal/planner"
)

func themeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme [light|dark|toggle]",
		Short: "Show or change the theme preference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()

			var theme planner.Theme
			switch {
			case len(args) == 0:
				theme, err = s.planner.Theme(cmd.Context())
			case args[0] == "toggle":
				theme, err = s.planner.ToggleTheme(cmd.Context())
			default:
				theme = planner.Theme(args[0])
				err = s.planner.SetTheme(cmd.Context(), theme)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		},
	}
	return cmd
}

func configCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(flags.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", flags.configPath)
			return nil
		},
	})
	return cmd
}
