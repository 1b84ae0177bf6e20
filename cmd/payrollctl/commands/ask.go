package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func askCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant about the payroll data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is empty")
			}
			a := app()
			snap := a.Store.Snapshot()
			fmt.Fprintln(cmd.OutOrStdout(), a.Bridge.Ask(cmd.Context(), question, snap.Employees, snap.Withdrawals))
			return nil
		},
	}
}
