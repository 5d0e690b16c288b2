// Package cmd implements the skindex CLI commands.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "skindex",
	Short: "Aggregate CS2 skin prices across marketplaces",
	Long: "skindex fans a skin query out to multiple marketplaces in parallel,\n" +
		"merges whatever answered within the deadline, and ranks the results\n" +
		"by price, discount, market, or name.",
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(candidatesCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(versionCmd())
}

func initViper() {
	viper.SetEnvPrefix("SKINDEX")
	viper.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the root command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
