package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"payroll/internal/core"
	"payroll/internal/i18n"
)

func employeeCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "employee",
		Aliases: []string{"employees", "emp"},
		Short:   "Add, list, update and delete employees",
	}
	cmd.AddCommand(employeeAddCmd(app), employeeListCmd(app), employeeUpdateCmd(app), employeeDeleteCmd(app))
	return cmd
}

func employeeAddCmd(app func() *App) *cobra.Command {
	var name, salary string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmountFlag("salary", salary)
			if err != nil {
				return err
			}
			e := core.Employee{Name: name, BaseSalary: amount}
			if err := e.Validate(); err != nil {
				return err
			}
			created, err := app().Store.AddEmployee(cmd.Context(), e.Name, e.BaseSalary)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "employee name")
	cmd.Flags().StringVar(&salary, "salary", "", "monthly base salary")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("salary")
	return cmd
}

func employeeListCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			employees := app().Store.Employees()
			if len(employees) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "لا يوجد موظفون")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tBASE SALARY")
			for _, e := range employees {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Name, i18n.Currency(e.BaseSalary))
			}
			return tw.Flush()
		},
	}
}

func employeeUpdateCmd(app func() *App) *cobra.Command {
	var name, salary string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an employee's name or base salary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, ok := app().Store.Employee(args[0])
			if !ok {
				return fmt.Errorf("no employee with id %s", args[0])
			}
			if cmd.Flags().Changed("name") {
				e.Name = name
			}
			if cmd.Flags().Changed("salary") {
				amount, err := parseAmountFlag("salary", salary)
				if err != nil {
					return err
				}
				e.BaseSalary = amount
			}
			if err := e.Validate(); err != nil {
				return err
			}
			return app().Store.UpdateEmployee(cmd.Context(), e)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&salary, "salary", "", "new monthly base salary")
	return cmd
}

func employeeDeleteCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an employee and all of their withdrawals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app().Store.DeleteEmployee(cmd.Context(), args[0])
		},
	}
}
