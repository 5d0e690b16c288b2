package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/names"
)

func candidatesCmd() *cobra.Command {
	var (
		wear     string
		statTrak bool
		souvenir bool
	)

	cmd := &cobra.Command{
		Use:   "candidates <query>",
		Short: "Show the market hash names a query expands to",
		Long: "Prints the candidate market hash names the name generator derives\n" +
			"from a free-text query, most specific first. These are the exact\n" +
			"names providers with exact-name APIs get probed with.",
		Example: `  skindex candidates "awp printstream"
  skindex candidates "ak-47 redline" --wear ft --stattrak`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var wearPtr *market.Wear
			if wear != "" {
				w, ok := market.ParseWear(wear)
				if !ok {
					return fmt.Errorf("unknown wear tier %q", wear)
				}
				wearPtr = &w
			}

			var statTrakPtr, souvenirPtr *bool
			if cmd.Flags().Changed("stattrak") {
				statTrakPtr = &statTrak
			}
			if cmd.Flags().Changed("souvenir") {
				souvenirPtr = &souvenir
			}

			candidates := names.Candidates(args[0], wearPtr, statTrakPtr, souvenirPtr)

			if jsonOutput() {
				return outputJSON(candidates)
			}
			return printCandidatesList(candidates)
		},
	}

	cmd.Flags().StringVar(&wear, "wear", "", "pin a wear tier (fn, mw, ft, ww, bs)")
	cmd.Flags().BoolVar(&statTrak, "stattrak", false, "pin the StatTrak axis")
	cmd.Flags().BoolVar(&souvenir, "souvenir", false, "pin the Souvenir axis")

	return cmd
}
