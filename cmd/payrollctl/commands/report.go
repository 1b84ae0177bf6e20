package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"payroll/internal/core"
	"payroll/internal/export"
	"payroll/internal/i18n"
)

func dashboardCmd(app func() *App) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show salary totals and month-over-month change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			p, err := periodFrom(a.Now(), year, month)
			if err != nil {
				return err
			}
			snap := a.Store.Snapshot()
			d := core.Summarize(snap.Employees, snap.Withdrawals, p)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, i18n.PeriodLabel(p))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "إجمالي الرواتب\t%s\n", i18n.Currency(d.SalaryTotal))
			fmt.Fprintf(tw, "المسحوب هذا الشهر\t%s\n", i18n.Currency(d.CurrentTotal))
			fmt.Fprintf(tw, "المسحوب الشهر الماضي\t%s\n", i18n.Currency(d.PreviousTotal))
			fmt.Fprintf(tw, "المتبقي\t%s\n", i18n.Currency(d.Remaining))
			fmt.Fprintf(tw, "التغير\t%s\n", changeLabel(d.Change))
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(d.Employees) == 0 {
				fmt.Fprintln(out, "لا يوجد موظفون")
				return nil
			}
			fmt.Fprintln(out)
			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, l := range d.Employees {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Employee.Name,
					i18n.Currency(l.Withdrawn), i18n.Currency(l.Remaining), i18n.Percent(l.PercentUsed))
			}
			return tw.Flush()
		},
	}
	addPeriodFlags(cmd, &year, &month)
	return cmd
}

func changeLabel(c core.MonthChange) string {
	switch c.Kind {
	case core.NoPriorData:
		return "لا توجد بيانات للشهر السابق"
	case core.Changed:
		return i18n.Percent(c.Percent)
	default:
		return "لا تغيير"
	}
}

func reportCmd(app func() *App) *cobra.Command {
	var year, month int
	var csvPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly report or export it as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			p, err := periodFrom(a.Now(), year, month)
			if err != nil {
				return err
			}
			snap := a.Store.Snapshot()
			r := core.BuildReport(snap.Employees, snap.Withdrawals, p)

			switch csvPath {
			case "":
				return printReport(cmd, r)
			case "-":
				return export.WriteCSV(cmd.OutOrStdout(), r)
			default:
				return writeCSVFile(csvPath, r)
			}
		},
	}
	addPeriodFlags(cmd, &year, &month)
	cmd.Flags().StringVar(&csvPath, "csv", "", `write CSV to this file ("-" for stdout)`)
	return cmd
}

func printReport(cmd *cobra.Command, r core.Report) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, i18n.PeriodLabel(r.Period))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "الموظف\tالراتب الأساسي\tالمسحوب\tالمتبقي")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Name,
			i18n.Currency(row.BaseSalary), i18n.Currency(row.Withdrawn), i18n.Currency(row.Remaining))
	}
	fmt.Fprintf(tw, "الإجمالي\t%s\t%s\t%s\n",
		i18n.Currency(r.Totals.BaseSalary), i18n.Currency(r.Totals.Withdrawn), i18n.Currency(r.Totals.Remaining))
	return tw.Flush()
}

func writeCSVFile(path string, r core.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return export.WriteCSV(f, r)
}
