package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/store"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		filters filterFlags
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered rows as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			spec, err := filters.spec()
			if err != nil {
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
			filtered := engine.Filter(st.Dataset(), spec)

			var w io.Writer = cmd.OutOrStdout()
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := store.WriteCSV(w, filtered); err != nil {
				return err
			}
			if outFile != "" {
				logger.Info("export written", "path", outFile, "rows", filtered.Len())
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&outFile, "out", "", "Write CSV to file instead of stdout")
	return cmd
}
