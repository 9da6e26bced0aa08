package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"moneygr/internal/backend"
	"moneygr/internal/core"
	"moneygr/internal/report"
)

func newReportCmd() *cobra.Command {
	var from, to string
	var stack bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the outcome and income series for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			rng, err := parseRange(from, to)
			if err != nil {
				return err
			}
			bcfg, err := backend.FromAppConfig(cfg)
			if err != nil {
				return err
			}
			be, err := backend.NewFactory(logger).Create(cmd.Context(), bcfg)
			if err != nil {
				return err
			}
			defer be.Cleanup()

			rep, err := report.NewService(be.Store, be.Store).Generate(cmd.Context(), rng, stack)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&to, "to", "", "last day (defaults to the end of the first day's month)")
	cmd.Flags().BoolVar(&stack, "stack", false, "stacked chart mode")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func parseRange(from, to string) (core.DateRange, error) {
	f, err := core.ParseDate(from)
	if err != nil {
		return core.DateRange{}, err
	}
	var t core.Date
	if to != "" {
		if t, err = core.ParseDate(to); err != nil {
			return core.DateRange{}, err
		}
	}
	return core.RangeFrom(f, t), nil
}

func printReport(w io.Writer, rep *report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "period (%s)\toutcome\tincome\t\n", rep.Series.Granularity)
	for i, o := range rep.Series.Outcomes {
		var income int64
		if i < len(rep.Series.Incomes) {
			income = rep.Series.Incomes[i].SubTotal
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", o.OutcomeDate, core.FormatAmount(o.SubTotal), core.FormatAmount(income))
	}
	fmt.Fprintf(tw, "total\t%s\t%s\t\n", core.FormatAmount(rep.OutcomeTotal), core.FormatAmount(rep.IncomeTotal))
	fmt.Fprintf(tw, "in - out\t\t%s\t\n", core.FormatAmount(rep.Net))
	for _, p := range rep.ByParentCategory {
		fmt.Fprintf(tw, "%s\t%s\t\t\n", p.ParentCategoryName, core.FormatAmount(p.SubTotal))
	}
	return tw.Flush()
}
