package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openbeta/climb-harvester/internal/app"
	"github.com/openbeta/climb-harvester/internal/export"
)

var convertInput string

var convertCmd = &cobra.Command{
	Use:   "convert <output-path>",
	Short: "Convert a Parquet export to JSON or GeoJSON",
	Long: `convert reads a previously exported Parquet file and writes it as a
JSON array, or as a GeoJSON FeatureCollection when the output path ends in
.geojson. GeoJSON output drops rows without coordinates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		outputPath := args[0]
		if err := export.Convert(cmd.Context(), convertInput, outputPath); err != nil {
			return fmt.Errorf("converting %s: %w", convertInput, err)
		}
		a.Logger.Info("conversion complete",
			zap.String("input", convertInput),
			zap.String("output", outputPath),
		)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertInput, "input", "openbeta-climbs.parquet", "Parquet file to convert")
	rootCmd.AddCommand(convertCmd)
}
