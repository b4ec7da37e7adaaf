package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aristath/rotation/internal/modules/rotation"
	"github.com/aristath/rotation/internal/services"
)

func newScreenCmd(load func(context.Context) (*app, error)) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Sync prices and print the current screening and selection without trading",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if !offline {
				if _, err := a.container.RebalanceService.Sync(ctx); err != nil {
					return err
				}
			}

			decision, err := a.container.RebalanceService.Preview(ctx)
			if err != nil {
				return err
			}
			printDecision(cmd.OutOrStdout(), decision)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "evaluate stored prices without syncing")
	return cmd
}

func newRebalanceCmd(load func(context.Context) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "rebalance",
		Short: "Run one full rebalance now against the configured executor",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.container.RebalanceService.Rebalance(ctx, services.TriggerCLI)
			if errors.Is(err, services.ErrWarmingUp) {
				fmt.Fprintln(cmd.OutOrStdout(), err)
				return nil
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printDecision(out, result.Decision)
			fmt.Fprintf(out, "Run %s via %s\n", result.RunID, result.Executor)
			for _, o := range result.Orders {
				fmt.Fprintf(out, "  %-4s %-6s %.4f\n", o.Side, o.Symbol, o.Weight)
			}
			return nil
		},
	}
}

func newSyncCmd(load func(context.Context) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh stored price history only",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := load(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.container.RebalanceService.Sync(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			symbols := make([]string, 0, len(result.PerSymbol))
			for s := range result.PerSymbol {
				symbols = append(symbols, s)
			}
			sort.Strings(symbols)
			for _, s := range symbols {
				fmt.Fprintf(out, "%-6s %d rows\n", s, result.PerSymbol[s])
			}
			fmt.Fprintf(out, "Synced %d symbols, %d rows\n", result.Symbols, result.Rows)
			return nil
		},
	}
}

// printDecision writes the screening report, the momentum ranking and the selection
func printDecision(w io.Writer, d *rotation.Decision) {
	fmt.Fprintf(w, "As of %s, cash return %s\n", d.AsOf.Format("2006-01-02"), pct(d.CashReturn))

	for _, s := range d.Screening {
		if s.Eligible {
			fmt.Fprintf(w, "ELIGIBLE  %-6s 6M=%s\n", s.Symbol, pct(s.AbsReturn))
			continue
		}
		fmt.Fprintf(w, "EXCLUDED  %-6s 6M=%s reason=%s\n", s.Symbol, pct(s.AbsReturn), s.Reason)
	}

	eligible := d.Eligible()
	sort.SliceStable(eligible, func(i, j int) bool {
		return d.Scores[eligible[i]] > d.Scores[eligible[j]]
	})
	for i, symbol := range eligible {
		fmt.Fprintf(w, "%2d. %-6s momentum=%s\n", i+1, symbol, pct(d.Scores[symbol]))
	}

	if d.RiskOff {
		fmt.Fprintln(w, "No eligible instruments, fully in cash")
	}
	fmt.Fprintln(w, d.String())
}

func pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
