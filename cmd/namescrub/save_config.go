package main

import (
	"fmt"

	"namescrub/internal/config"

	"github.com/spf13/cobra"
)

func newSaveConfigCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "save-config [path]",
		Short: "Write the effective settings to a config file",
		Long: `Merges the config file and any flags given, validates the result and
writes it as YAML to path, or to $HOME/.config/namescrub/config.yaml.
Later runs pick it up without repeating the flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}

			var path string
			if len(args) > 0 {
				path = args[0]
			} else if path, err = config.DefaultPath(); err != nil {
				return err
			}

			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", path)
			return nil
		},
	}
}
