package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kimeweb/internal/config"
	"kimeweb/internal/hangul"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	var writePath string
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a config file",
		Long: `Validate a config file the way an install would: decode, schema check,
semantic validation, and construction of the configured engine.

With --write the validated config is saved to another file, in the format
named by its extension, with every default filled in.`,
		Example: `  kime check ~/.config/kime/config.yaml
  kime check config.yaml --write config.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.resolvedConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			return runCheck(cmd, path, writePath)
		},
	}
	cmd.Flags().StringVar(&writePath, "write", "", "Save the normalized config to this path (.toml, .json, .yaml)")
	return cmd
}

func runCheck(cmd *cobra.Command, path, writePath string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := hangul.New(cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (category %s, layout %s, %d hotkeys)\n",
		path, cfg.Engine.DefaultCategory, cfg.Engine.Hangul.Layout, len(cfg.Engine.Hotkeys))

	if writePath == "" {
		return nil
	}
	if err := config.SaveConfig(cfg, writePath); err != nil {
		return fmt.Errorf("write %s: %w", writePath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", writePath)
	return nil
}
