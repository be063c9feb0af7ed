package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openbeta/climb-harvester/internal/api"
	"github.com/openbeta/climb-harvester/internal/app"
	"github.com/openbeta/climb-harvester/internal/clock"
	"github.com/openbeta/climb-harvester/internal/database"
	"github.com/openbeta/climb-harvester/internal/export"
	"github.com/openbeta/climb-harvester/internal/harvest"
	"github.com/openbeta/climb-harvester/internal/progress"
	"github.com/openbeta/climb-harvester/internal/progress/sinks"
	"github.com/openbeta/climb-harvester/internal/source"
)

var harvestOutputDir string

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Fetch, normalize, filter and export the climbing catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		return runHarvest(cmd.Context(), a)
	},
}

func init() {
	harvestCmd.Flags().StringVar(&harvestOutputDir, "output-dir", ".", "directory for the Parquet file and stats sidecar")
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(ctx context.Context, a *app.App) (retErr error) {
	cfg := a.Config
	logger := a.Logger
	clk := clock.System{}

	runID := uuid.NewString()
	startedAt := clk.Now()
	logger.Info("harvest run starting", zap.String("run_id", runID))

	harvest.InitMetrics()

	store := sinks.NewStoreSink(0)
	promSink, err := sinks.NewPrometheusSink(nil)
	if err != nil {
		return fmt.Errorf("initializing prometheus sink: %w", err)
	}
	hub := progress.NewHub(
		progress.Config{Logger: logger},
		sinks.NewLogSink(logger),
		promSink,
		store,
	)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := hub.Close(closeCtx); err != nil {
			logger.Warn("closing progress hub", zap.Error(err))
		}
	}()

	var statusServer *api.Server
	if cfg.Status.Enabled {
		statusServer = api.NewServer(cfg.Status.Port, store, logger)
		statusServer.Start()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := statusServer.Shutdown(shutCtx); err != nil {
				logger.Warn("shutting down status server", zap.Error(err))
			}
		}()
	}

	hub.Emit(progress.Event{RunID: runID, TS: clk.Now(), Stage: progress.StageRunStart})

	stats := harvest.RunStats{RunID: runID, StartedAt: startedAt}
	defer func() {
		stats.FinishedAt = clk.Now()
		stats.Duration = stats.FinishedAt.Sub(stats.StartedAt)
		recordRun(ctx, a, stats, retErr)
		if retErr != nil {
			hub.Emit(progress.Event{
				RunID: runID, TS: clk.Now(), Stage: progress.StageRunError,
				Note: retErr.Error(),
			})
		}
	}()

	client, err := source.NewClient(source.Config{
		APIURL:       cfg.Source.APIURL,
		UserAgent:    cfg.Source.UserAgent,
		FetchTimeout: cfg.Source.FetchTimeout(),
		ListTimeout:  cfg.Source.ListTimeout(),
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing source client: %w", err)
	}

	controller := harvest.NewController(client, client, harvest.ControllerConfig{
		KnownLargeRegions: cfg.Harvest.KnownLargeRegions,
		MaxSplitDepth:     cfg.Harvest.MaxSplitDepth,
		RunID:             runID,
	}, logger, hub)

	records, counters, err := controller.Run(ctx)
	if err != nil {
		return fmt.Errorf("harvesting: %w", err)
	}
	stats.Counters = counters
	stats.Fetched = len(records)

	records = harvest.Normalize(records)
	hub.Emit(progress.Event{
		RunID: runID, TS: clk.Now(), Stage: progress.StageNormalize,
		Records: len(records),
	})

	records = harvest.Filter(records, harvest.FilterSpec{Regions: cfg.Harvest.Regions})
	hub.Emit(progress.Event{
		RunID: runID, TS: clk.Now(), Stage: progress.StageFilter,
		Records: len(records),
	})
	if len(records) == 0 {
		return fmt.Errorf("no records left after filtering; refusing to write an empty export")
	}

	outputPath := filepath.Join(harvestOutputDir, cfg.Export.Filename)
	exportStart := clk.Now()
	exportStats, err := export.Export(ctx, records, export.Options{
		OutputPath:  outputPath,
		Compression: cfg.Export.Compression,
		SchemaPath:  cfg.Export.SchemaFile,
	}, logger)
	if err != nil {
		return fmt.Errorf("exporting: %w", err)
	}
	hub.Emit(progress.Event{
		RunID: runID, TS: clk.Now(), Stage: progress.StageExport,
		Records: exportStats.Rows, Dur: clk.Now().Sub(exportStart),
	})

	stats.Exported = exportStats.Rows
	stats.StagedBytes = exportStats.StagedBytes
	stats.OutputBytes = exportStats.OutputBytes
	stats.Ratio = exportStats.Ratio
	stats.OutputPath = outputPath

	if uri, err := publishArtifacts(ctx, a, runID, outputPath, &stats); err != nil {
		logger.Warn("publishing artifacts", zap.Error(err))
	} else if uri != "" {
		stats.OutputURI = uri
	}

	if id, err := a.Publisher.Publish(ctx, stats); err != nil {
		logger.Warn("publishing run-completed event", zap.Error(err))
	} else {
		hub.Emit(progress.Event{
			RunID: runID, TS: clk.Now(), Stage: progress.StagePublish, Note: id,
		})
	}

	hub.Emit(progress.Event{
		RunID: runID, TS: clk.Now(), Stage: progress.StageRunDone,
		Records: stats.Exported, Dur: clk.Now().Sub(startedAt),
	})
	logger.Info("harvest run complete",
		zap.String("run_id", runID),
		zap.Int("records", stats.Exported),
		zap.Int64("output_bytes", stats.OutputBytes),
		zap.String("output", outputPath),
	)
	return nil
}

// publishArtifacts uploads the Parquet file and a JSON stats sidecar to the
// configured artifact store and returns the Parquet URI.
func publishArtifacts(ctx context.Context, a *app.App, runID, outputPath string, stats *harvest.RunStats) (string, error) {
	data, err := os.ReadFile(outputPath)
	if err != nil {
		return "", fmt.Errorf("reading parquet output: %w", err)
	}

	prefix := a.Config.Storage.Prefix
	objectName := filepath.ToSlash(filepath.Join(prefix, runID, filepath.Base(outputPath)))
	uri, err := a.Storage.PutObject(ctx, objectName, "application/vnd.apache.parquet", data)
	if err != nil {
		return "", fmt.Errorf("uploading parquet: %w", err)
	}

	sidecar, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return uri, fmt.Errorf("marshaling stats sidecar: %w", err)
	}
	sidecarName := filepath.ToSlash(filepath.Join(prefix, runID, "stats.json"))
	if _, err := a.Storage.PutObject(ctx, sidecarName, "application/json", sidecar); err != nil {
		return uri, fmt.Errorf("uploading stats sidecar: %w", err)
	}
	return uri, nil
}

// recordRun persists one row of run history regardless of outcome.
func recordRun(ctx context.Context, a *app.App, stats harvest.RunStats, runErr error) {
	rec := database.RunRecord{
		RunID:       stats.RunID,
		StartedAt:   stats.StartedAt,
		FinishedAt:  stats.FinishedAt,
		Status:      "completed",
		Records:     stats.Exported,
		StagedBytes: stats.StagedBytes,
		OutputBytes: stats.OutputBytes,
		Ratio:       stats.Ratio,
		OutputURI:   stats.OutputURI,
	}
	if runErr != nil {
		rec.Status = "failed"
		rec.ErrorText = runErr.Error()
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := a.DB.SaveRun(saveCtx, rec); err != nil {
		a.Logger.Warn("saving run history", zap.Error(err))
	}
}
