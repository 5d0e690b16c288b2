package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skindex/skindex/internal/config"
)

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the enabled marketplace providers",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			var names []string
			for _, p := range buildProviders(cfg) {
				names = append(names, p.Name())
			}

			if jsonOutput() {
				return outputJSON(names)
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}
