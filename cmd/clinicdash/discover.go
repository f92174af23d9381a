package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiscoverCmd(g *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the detected schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "pretty" {
				return fmt.Errorf("unknown format %q (want json or pretty)", format)
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			st, err := loadStore(cfg, logger)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), st.Schema(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, pretty")
	return cmd
}
