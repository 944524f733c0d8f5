package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pbaille/timecsv/internal/api"
	"github.com/pbaille/timecsv/internal/clockify"
	"github.com/pbaille/timecsv/internal/config"
	"github.com/pbaille/timecsv/internal/logging"
	"github.com/pbaille/timecsv/internal/report"
	"github.com/pbaille/timecsv/internal/store"
	"github.com/pbaille/timecsv/internal/termview"
	"github.com/spf13/cobra"
)

var cfg = config.Load()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "timecsv",
		Short:        "Monthly Clockify hours as a description x date CSV",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "run history database path (empty disables history)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: auto, text or json")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(runsCmd())

	return rootCmd
}

func newLogger() *slog.Logger {
	return logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
}

// openStore returns nil when history is disabled
func openStore() (*store.Store, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	return store.Open(cfg.DBPath)
}

func newGenerator(s *store.Store, logger *slog.Logger) *report.Generator {
	client := clockify.New(cfg.Clockify(), logger)
	if s == nil {
		return report.NewGenerator(client, nil, logger)
	}
	return report.NewGenerator(client, s, logger)
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			s, err := openStore()
			if err != nil {
				return err
			}
			var runs api.RunLister
			if s != nil {
				defer s.Close()
				runs = s
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.New(newGenerator(s, logger), runs, cfg.Addr, logger)
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&cfg.Addr, "addr", "a", cfg.Addr, "server address")
	return cmd
}

func reportCmd() *cobra.Command {
	var (
		apiKey string
		month  string
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the monthly report from the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				apiKey = config.APIKeyFromEnv()
			}
			if apiKey == "" {
				return fmt.Errorf("api key required: pass --api-key or set CLOCKIFY_API_KEY")
			}

			when := time.Now()
			if month != "" {
				m, err := report.ParseMonth(month, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --month %q: want YYYY-MM", month)
				}
				when = m
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if format == "" {
				format = "csv"
				if output == "" && logging.IsTerminal(w) {
					format = "table"
				}
			}

			logger := newLogger()
			s, err := openStore()
			if err != nil {
				return err
			}
			if s != nil {
				defer s.Close()
			}

			rep, err := newGenerator(s, logger).GenerateForMonth(cmd.Context(), apiKey, when)
			if err != nil {
				return err
			}

			switch format {
			case "csv":
				_, err = fmt.Fprintln(w, rep.CSV)
			case "base64":
				_, err = fmt.Fprintln(w, rep.Base64)
			case "table":
				_, err = fmt.Fprintf(w, "%s\n%s\n", rep.Month.Format("January 2006"), termview.Table(rep.Aggregation))
			default:
				return fmt.Errorf("unknown --format %q: want csv, base64 or table", format)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&apiKey, "api-key", "k", "", "Clockify API key (default $TIMECSV_API_KEY or $CLOCKIFY_API_KEY)")
	cmd.Flags().StringVarP(&month, "month", "m", "", "month as YYYY-MM (default current month)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: csv, base64 or table (default table on a terminal, csv otherwise)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent report runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			if s == nil {
				return fmt.Errorf("run history is disabled: pass --db or set TIMECSV_DB")
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tMONTH\tSTATUS\tENTRIES\tHOURS\tERROR")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%.2f\t%s\n",
					shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Month, r.Status,
					r.EntriesInRange, r.EntriesFetched, r.TotalHours, r.Error)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
