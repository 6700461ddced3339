package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"smartkitchen/internal/domain/forecast"
	"smartkitchen/internal/forecasting"
	"smartkitchen/internal/repository/csvfile"
	forecastservice "smartkitchen/internal/services/forecast"
	"smartkitchen/pkg/logger"
)

type options struct {
	data          string
	output        string
	periods       int
	months        int
	intervalWidth float64
	logLevel      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "forecast [ingredient]",
		Short: "Forecast daily ingredient demand from historical sales",
		Long: "Fits a trend and seasonality model to the daily sales history, forecasts\n" +
			"the requested horizon and writes date,forecast,forecast_lower,forecast_upper to --output.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(opts.logLevel, "development"); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ingredient := ""
			if len(args) == 1 {
				ingredient = args[0]
			}
			return run(cmd.Context(), cmd.OutOrStdout(), opts, ingredient)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.data, "data", "sales_data.csv", "path to the sales history CSV")
	f.StringVar(&opts.output, "output", "forecast.csv", "path of the forecast CSV to write")
	f.IntVar(&opts.periods, "periods", 0, "days to forecast (default 30, or --months*30)")
	f.IntVar(&opts.months, "months", 0, "months to forecast, 30 days each")
	f.Float64Var(&opts.intervalWidth, "interval-width", 0.95, "width of the uncertainty interval")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, ingredient string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	periods := forecast.PeriodsFor(opts.periods, opts.months)
	svc := forecastservice.NewService(forecastservice.Config{
		DataPath:      opts.data,
		OutputPath:    opts.output,
		Periods:       periods,
		IntervalWidth: opts.intervalWidth,
	}, forecastservice.Deps{Repository: csvfile.NewForecastRepository()})

	fmt.Fprintf(out, "Loading sales data from %s...\n", opts.data)
	if ingredient != "" {
		fmt.Fprintf(out, "Filtering data for ingredient: %s...\n", ingredient)
	}
	fmt.Fprintf(out, "Generating %d-day forecast...\n", periods)

	result, err := svc.Run(ctx, forecast.Request{Ingredient: ingredient, Periods: periods}, opts.output)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Forecast saved to %s\n", opts.output)
	printSummary(out, result, forecasting.ShowMonthly(opts.months, periods))
	fmt.Fprintln(out, "\nForecasting complete!")
	return nil
}

// printSummary writes the daily statistics and, for multi-month horizons, the monthly table
func printSummary(out io.Writer, result *forecast.Result, monthly bool) {
	points := result.Points
	if len(points) == 0 {
		fmt.Fprintln(out, "\nNo forecast points generated")
		return
	}

	var total float64
	lo, hi := points[0].Forecast, points[0].Forecast
	for _, p := range points {
		total += p.Forecast
		lo = min(lo, p.Forecast)
		hi = max(hi, p.Forecast)
	}

	fmt.Fprintln(out, "\n=== Forecast Summary ===")
	fmt.Fprintf(out, "History: %s daily records\n", humanize.Comma(int64(result.History)))
	fmt.Fprintf(out, "Forecast period: %d days\n", len(points))
	fmt.Fprintf(out, "Forecast dates: %s to %s\n",
		points[0].Date.Format(forecast.DateLayout),
		points[len(points)-1].Date.Format(forecast.DateLayout))
	fmt.Fprintln(out, "\nDaily Statistics:")
	fmt.Fprintf(out, "  Average daily forecast: %.2f\n", total/float64(len(points)))
	fmt.Fprintf(out, "  Daily range: %.2f - %.2f\n", lo, hi)
	fmt.Fprintf(out, "  Total forecast (%d days): %.2f\n", len(points), total)

	if !monthly || len(result.Monthly) == 0 {
		return
	}
	fmt.Fprintln(out, "\nMonthly Summary:")
	for _, m := range result.Monthly {
		fmt.Fprintf(out, "  %s:\n", m.YearMonth)
		fmt.Fprintf(out, "    Total: %.2f (Range: %.2f - %.2f)\n", m.Total, m.TotalLower, m.TotalUpper)
		fmt.Fprintf(out, "    Daily Avg: %.2f (Min: %.2f, Max: %.2f)\n", m.DailyAvg, m.DailyMin, m.DailyMax)
	}
}
