package commands

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/output"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

var metricIntervals = map[string]bool{"": true, "hour": true, "day": true, "week": true, "month": true}

// seriesTable flattens metric series into rows, sorted by series name
type seriesTable client.MetricData

func (t seriesTable) Headers() []string { return []string{"Series", "Date", "Value"} }

func (t seriesTable) Rows() [][]string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, name := range names {
		for _, p := range t[name] {
			rows = append(rows, []string{name, p.Date, formatValue(p.Value)})
		}
	}
	return rows
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTrend(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}

// NewMetricsCmd creates the metrics command group. It only reads.
func NewMetricsCmd() *cobra.Command {
	var params client.MetricsParams

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show platform usage metrics",
		Long: `Show platform usage metrics.

Without a subcommand the dashboard overview is printed. The requests, tokens
and errors subcommands print the matching time series.`,
		Args: cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, _ session.Snapshot) error {
			if err := validateInterval(params.Interval); err != nil {
				return err
			}
			m, err := rt.Client.GetDashboardMetrics(cmd.Context(), params)
			if err != nil {
				return err
			}
			if rt.Printer.Format() != output.FormatTable {
				return rt.Printer.Print(m)
			}
			output.PrintFields(rt.Printer.Writer(), [][2]string{
				{"Users", fmt.Sprintf("%d (%s)", m.TotalUsers, formatTrend(m.Trends.Users))},
				{"Requests", fmt.Sprintf("%d (%s)", m.TotalRequests, formatTrend(m.Trends.Requests))},
				{"Tokens", fmt.Sprintf("%d (%s)", m.TotalTokens, formatTrend(m.Trends.Tokens))},
				{"Error rate", fmt.Sprintf("%s%% (%s)", formatValue(m.ErrorRate), formatTrend(m.Trends.Errors))},
			})
			return nil
		}),
	}

	cmd.PersistentFlags().StringVar(&params.StartDate, "from", "", "Start date (YYYY-MM-DD)")
	cmd.PersistentFlags().StringVar(&params.EndDate, "to", "", "End date (YYYY-MM-DD)")
	cmd.PersistentFlags().StringVar(&params.Interval, "interval", "", "Bucket size (hour, day, week, month)")

	for _, series := range []string{client.SeriesRequests, client.SeriesTokens, client.SeriesErrors} {
		cmd.AddCommand(newMetricSeriesCmd(series, &params))
	}

	return cmd
}

func newMetricSeriesCmd(series string, params *client.MetricsParams) *cobra.Command {
	return &cobra.Command{
		Use:   series,
		Short: fmt.Sprintf("Show the %s series", series),
		Args:  cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, _ session.Snapshot) error {
			if err := validateInterval(params.Interval); err != nil {
				return err
			}
			data, err := rt.Client.GetMetricSeries(cmd.Context(), series, *params)
			if err != nil {
				return err
			}
			if len(data) == 0 && rt.Printer.Format() == output.FormatTable {
				rt.Printer.Println("No data for this period.")
				return nil
			}
			if rt.Printer.Format() != output.FormatTable {
				return rt.Printer.Print(data)
			}
			return rt.Printer.Print(seriesTable(data))
		}),
	}
}

func validateInterval(interval string) error {
	if !metricIntervals[interval] {
		return fmt.Errorf("interval must be one of: hour, day, week, month")
	}
	return nil
}
