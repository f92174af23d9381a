package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/server"
)

// filterFlags are the --start/--end/--select flags of summarize and export.
type filterFlags struct {
	start   string
	end     string
	selects []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Start date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "End date, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&f.selects, "select", nil, "Category filter Column:Value (repeatable)")
}

func (f *filterFlags) spec() (engine.FilterSpec, error) {
	cats, err := server.ParseSelections(f.selects)
	if err != nil {
		return engine.FilterSpec{}, err
	}
	return server.FilterRequest{Start: f.start, End: f.end, Categories: cats}.ToSpec()
}

func newSummarizeCmd(g *globalFlags) *cobra.Command {
	var (
		filters filterFlags
		format  string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print the dashboard for a filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch format {
			case "json", "pretty", "text", "csv":
			default:
				return fmt.Errorf("unknown format %q (want json, pretty, text or csv)", format)
			}

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

			opts := append(cfg.EngineOptions(), engine.WithLogger(logger))
			result := engine.Execute(st.Dataset(), spec, opts...)

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				fmt.Fprintln(out, renderText(result))
				return nil
			case "csv":
				return writeTableCSV(out, result.StatsTable)
			default:
				return writeJSON(out, result, format)
			}
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json, pretty, text, csv")
	return cmd
}
