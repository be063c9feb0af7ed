// Package cmd contains the harvester's CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openbeta/climb-harvester/internal/app"
	"github.com/openbeta/climb-harvester/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "climb-harvester",
	Short: "Harvest climbing route data into columnar output",
	Long: `climb-harvester pulls the full climbing route catalog from the
OpenBeta GraphQL API, adaptively partitioning countries whose payloads
exceed the backend's limits, and writes the normalized result as a
compressed Parquet file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		cmd.SetContext(app.WithApp(cmd.Context(), a))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if a, err := app.FromContext(cmd.Context()); err == nil {
			a.Close()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults plus HARVESTER_* env vars otherwise)")
}
