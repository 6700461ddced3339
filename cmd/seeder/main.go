// Seeder generates the demo datasets the services read: the inventory,
// the daily ingredient sales history and the processed per-item sales.
package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"
	"time"

	"smartkitchen/internal/repository/csvfile"
	"smartkitchen/pkg/errors"
	"smartkitchen/pkg/logger"
)

type options struct {
	inventory string
	sales     string
	processed string
	rows      int
	days      int
	seed      uint64
	dryRun    bool
}

func main() {
	var opts options
	flag.StringVar(&opts.inventory, "inventory", "data/inventory.csv", "inventory output path")
	flag.StringVar(&opts.sales, "sales", "sales_data.csv", "ingredient sales history output path")
	flag.StringVar(&opts.processed, "processed", "data/processed_sales.csv", "processed sales output path")
	flag.IntVar(&opts.rows, "rows", 1000, "number of inventory rows")
	flag.IntVar(&opts.days, "days", 365, "days of sales history")
	flag.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "generate without writing files")
	flag.Parse()

	if err := logger.Init("info", "development"); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(context.Background(), opts, time.Now()); err != nil {
		logger.Get().Errorf("seeding failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, now time.Time) error {
	if opts.rows <= 0 || opts.days <= 0 {
		return errors.NewValidationError("rows", "rows and days must be positive", opts.rows)
	}
	log := logger.Get().Component("seeder")
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -opts.days)

	records := inventory(rng, opts.rows, today)
	history := salesHistory(rng, opts.days, start)
	processed := processedSales(rng, opts.days, start)

	log.Info("generated datasets",
		"inventory_rows", len(records),
		"sales_rows", history.Len(),
		"processed_rows", processed.Len(),
	)
	if opts.dryRun {
		log.Info("dry run, nothing written")
		return nil
	}

	if err := csvfile.NewInventoryRepository(opts.inventory).Save(ctx, records); err != nil {
		return errors.Wrap(err, "write inventory")
	}
	if err := csvfile.WriteTable(opts.sales, history); err != nil {
		return errors.Wrap(err, "write sales history")
	}
	if err := csvfile.WriteTable(opts.processed, processed); err != nil {
		return errors.Wrap(err, "write processed sales")
	}
	log.Info("datasets written", "inventory", opts.inventory, "sales", opts.sales, "processed", opts.processed)
	return nil
}
