package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"payroll/internal/core"
	"payroll/internal/i18n"
	"payroll/internal/ledger"
)

func withdrawalCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "withdrawal",
		Aliases: []string{"withdrawals", "wd"},
		Short:   "Record, list, update and delete salary withdrawals",
	}
	cmd.AddCommand(withdrawalAddCmd(app), withdrawalListCmd(app), withdrawalUpdateCmd(app), withdrawalDeleteCmd(app))
	return cmd
}

type withdrawalFlags struct {
	employee, amount, date, notes string
}

func (f *withdrawalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.employee, "employee", "", "employee id")
	cmd.Flags().StringVar(&f.amount, "amount", "", "withdrawn amount")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&f.notes, "notes", "", "optional notes")
}

// apply overwrites the fields of w whose flags were set.
func (f *withdrawalFlags) apply(cmd *cobra.Command, w *core.Withdrawal) error {
	if cmd.Flags().Changed("employee") {
		w.EmployeeID = f.employee
	}
	if cmd.Flags().Changed("amount") {
		amount, err := parseAmountFlag("amount", f.amount)
		if err != nil {
			return err
		}
		w.Amount = amount
	}
	if cmd.Flags().Changed("date") {
		d, err := core.ParseDate(f.date)
		if err != nil {
			return err
		}
		w.Date = d
	}
	if cmd.Flags().Changed("notes") {
		w.Notes = f.notes
	}
	return w.Validate()
}

func withdrawalAddCmd(app func() *App) *cobra.Command {
	var f withdrawalFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a withdrawal against an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := core.Withdrawal{Date: core.DateOf(app().Now())}
			if err := f.apply(cmd, &w); err != nil {
				return err
			}
			created, err := app().Store.AddWithdrawal(cmd.Context(), w.EmployeeID, w.Amount, w.Date, w.Notes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func withdrawalListCmd(app func() *App) *cobra.Command {
	var employee string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List withdrawals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := app().Store
			withdrawals := store.Withdrawals(ledger.WithdrawalFilter{EmployeeID: employee})
			if len(withdrawals) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "لا توجد مسحوبات")
				return nil
			}
			names := map[string]string{}
			for _, e := range store.Employees() {
				names[e.ID] = e.Name
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tEMPLOYEE\tAMOUNT\tNOTES")
			for _, w := range withdrawals {
				name, ok := names[w.EmployeeID]
				if !ok {
					name = w.EmployeeID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", w.ID, w.Date, name, i18n.Currency(w.Amount), w.Notes)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&employee, "employee", "", "only this employee's withdrawals")
	return cmd
}

func withdrawalUpdateCmd(app func() *App) *cobra.Command {
	var f withdrawalFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a recorded withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var current *core.Withdrawal
			for _, w := range app().Store.Withdrawals(ledger.WithdrawalFilter{}) {
				if w.ID == args[0] {
					current = &w
					break
				}
			}
			if current == nil {
				return fmt.Errorf("no withdrawal with id %s", args[0])
			}
			if err := f.apply(cmd, current); err != nil {
				return err
			}
			return app().Store.UpdateWithdrawal(cmd.Context(), *current)
		},
	}
	f.register(cmd)
	return cmd
}

func withdrawalDeleteCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Store.DeleteWithdrawal(cmd.Context(), args[0])
		},
	}
}
