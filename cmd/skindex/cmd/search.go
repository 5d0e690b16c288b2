package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/skindex/skindex/internal/config"
	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/pkg/logger"
)

func searchCmd() *cobra.Command {
	var (
		wear      string
		statTrak  bool
		souvenir  bool
		floatMin  float64
		floatMax  float64
		priceMin  float64
		priceMax  float64
		seeds     []int
		limit     int
		currency  string
		country   string
		providers []string
		sortBy    string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search all marketplaces for a skin",
		Long: "Runs one aggregation locally: fans the query out to every enabled\n" +
			"provider, waits out the per-provider deadline, and prints the merged,\n" +
			"ranked results.",
		Example: `  skindex search "awp printstream"
  skindex search "ak-47 redline" --wear ft --stattrak
  skindex search "karambit doppler" --provider csfloat --seed 412 --sort discount`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := market.SearchQuery{
				Text:       args[0],
				PaintSeeds: seeds,
				MaxResults: limit,
				Currency:   currency,
				Country:    country,
				Providers:  providers,
				SortBy:     market.SortBy(sortBy),
			}

			if wear != "" {
				w, ok := market.ParseWear(wear)
				if !ok {
					return fmt.Errorf("unknown wear tier %q", wear)
				}
				query.Wear = &w
			}

			// Flags are tri-state: absent means "both kinds".
			if cmd.Flags().Changed("stattrak") {
				query.StatTrak = &statTrak
			}
			if cmd.Flags().Changed("souvenir") {
				query.Souvenir = &souvenir
			}
			if cmd.Flags().Changed("float-min") {
				query.FloatMin = &floatMin
			}
			if cmd.Flags().Changed("float-max") {
				query.FloatMax = &floatMax
			}
			if cmd.Flags().Changed("price-min") {
				query.PriceMin = &priceMin
			}
			if cmd.Flags().Changed("price-max") {
				query.PriceMax = &priceMax
			}

			return runLocalSearch(cmd, query)
		},
	}

	cmd.Flags().StringVar(&wear, "wear", "", "wear tier (fn, mw, ft, ww, bs)")
	cmd.Flags().BoolVar(&statTrak, "stattrak", false, "StatTrak only (=false for non-StatTrak only)")
	cmd.Flags().BoolVar(&souvenir, "souvenir", false, "Souvenir only (=false for non-Souvenir only)")
	cmd.Flags().Float64Var(&floatMin, "float-min", 0, "minimum float value")
	cmd.Flags().Float64Var(&floatMax, "float-max", 0, "maximum float value")
	cmd.Flags().Float64Var(&priceMin, "price-min", 0, "minimum listing price")
	cmd.Flags().Float64Var(&priceMax, "price-max", 0, "maximum listing price")
	cmd.Flags().IntSliceVar(&seeds, "seed", nil, "paint seed / pattern IDs to keep")
	cmd.Flags().IntVar(&limit, "limit", 0, "per-provider result cap (0 = provider default)")
	cmd.Flags().StringVar(&currency, "currency", "", "currency hint")
	cmd.Flags().StringVar(&country, "country", "", "country hint")
	cmd.Flags().StringSliceVar(&providers, "provider", nil, "provider subset (default all)")
	cmd.Flags().StringVar(&sortBy, "sort", "price", "sort strategy (price, discount, market, name)")

	return cmd
}

func runLocalSearch(cmd *cobra.Command, query market.SearchQuery) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if query.Currency == "" {
		query.Currency = cfg.Aggregator.DefaultCurrency
	}
	if query.Country == "" {
		query.Country = cfg.Aggregator.DefaultCountry
	}

	log := logger.NewWithWriter(os.Stderr, "warn", "text")
	tracer := noop.NewTracerProvider().Tracer("skindex")

	agg := buildAggregator(cfg, log, tracer)
	res := agg.SearchAll(cmd.Context(), query)

	if jsonOutput() {
		return outputJSON(res)
	}

	if err := printResultsTable(res.Results); err != nil {
		return err
	}
	fmt.Println()
	return printExecutionsTable(res.Executions)
}
