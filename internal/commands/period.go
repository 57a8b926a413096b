package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/stmtfilter/internal/date"
	"github.com/cleared-dev/stmtfilter/internal/lookback"
)

func newPeriodCommand() *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:     "period <query>",
		Short:   "Show the date range a lookback query resolves to",
		Example: `  stmtfilter period 1 year 2 months --today 2024-03-01`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end := date.Today()
			if today != "" {
				d, err := date.Parse(date.Format, today)
				if err != nil {
					return fmt.Errorf("--today: %w", err)
				}
				end = d
			}

			lb, err := lookback.Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}
			r := lb.Range(end)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d days)\n", lb, r, lb.Days())
			return nil
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "end of the period as YYYY-MM-DD (default: current date)")

	return cmd
}
