package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/output"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

type quotaTable []client.QuotaLimit

func (t quotaTable) Headers() []string {
	return []string{"Type", "Period", "Used", "Limit", "Remaining"}
}

func (t quotaTable) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, q := range t {
		rows[i] = []string{
			q.Type,
			q.Period,
			strconv.FormatInt(q.Used, 10),
			strconv.FormatInt(q.Limit, 10),
			strconv.FormatInt(q.Remaining(), 10),
		}
	}
	return rows
}

type usageTable struct{ *client.QuotaUsage }

func (t usageTable) Headers() []string { return []string{"Date", "Value"} }

func (t usageTable) Rows() [][]string {
	rows := make([][]string, len(t.Usage))
	for i, p := range t.Usage {
		rows[i] = []string{p.Date, strconv.FormatInt(p.Value, 10)}
	}
	return rows
}

// NewQuotasCmd creates the quotas command group
func NewQuotasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotas",
		Short: "Inspect API quotas",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list", "limits"},
		Short:   "List quota limits",
		Args:    cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, _ session.Snapshot) error {
			limits, err := rt.Client.ListQuotaLimits(cmd.Context())
			if err != nil {
				return err
			}
			return rt.Printer.Print(quotaTable(limits))
		}),
	})

	var period string
	usage := &cobra.Command{
		Use:   "usage",
		Short: "Show quota usage for a period",
		Args:  cobra.NoArgs,
		RunE: protected(func(cmd *cobra.Command, _ []string, rt *Runtime, _ session.Snapshot) error {
			u, err := rt.Client.GetQuotaUsage(cmd.Context(), strings.ToUpper(period))
			if err != nil {
				return err
			}
			if rt.Printer.Format() != output.FormatTable {
				return rt.Printer.Print(u)
			}
			rt.Printer.Printf("%s usage %s to %s: %d of %d\n\n", u.Period, u.StartDate, u.EndDate, u.Used, u.Total)
			return rt.Printer.Print(usageTable{u})
		}),
	}
	usage.Flags().StringVar(&period, "period", "monthly", "Period (daily, monthly, yearly)")
	cmd.AddCommand(usage)

	return cmd
}
