package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/restaurant-orderflow/internal/app"
	"github.com/imrishuroy/restaurant-orderflow/internal/config"
	"github.com/imrishuroy/restaurant-orderflow/internal/logging"
	"github.com/imrishuroy/restaurant-orderflow/internal/orders"
)

var cfgFile string

// buildApp is swapped in tests.
var buildApp = func(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, logging.New(cfg.LogLevel, cfg.LogFormat))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ordersctl",
		Short:         "Operator tooling for the restaurant order service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_FILE)")

	root.AddCommand(newSeedMenuCmd(), newAnalyticsCmd(), newSetStatusCmd())
	return root
}

func newSeedMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-menu",
		Short: "Load the default menu into the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			items, err := a.Menu.Seed(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed menu (%d created): %w", len(items), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d menu items\n", len(items))
			return nil
		},
	}
}

func newAnalyticsCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print order analytics for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dateRange(start, end)
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.Orders.Analytics(cmd.Context(), r)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&start, "start-date", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end-date", "", "last day, inclusive (YYYY-MM-DD)")
	return cmd
}

func newSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status ORDER_ID STATUS",
		Short: "Overwrite an order's status and notify subscribers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			o, err := a.Orders.TransitionStatus(cmd.Context(), args[0], orders.Status(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), o)
		},
	}
}

func dateRange(start, end string) (orders.DateRange, error) {
	var r orders.DateRange
	if start != "" {
		t, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return r, fmt.Errorf("--start-date: %w", err)
		}
		r.From = t
	}
	if end != "" {
		t, err := time.Parse(time.DateOnly, end)
		if err != nil {
			return r, fmt.Errorf("--end-date: %w", err)
		}
		r.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	return r, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
