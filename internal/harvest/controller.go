package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openbeta/climb-harvester/internal/progress"
)

// ControllerConfig tunes the adaptive fetch strategy.
type ControllerConfig struct {
	// KnownLargeRegions are top-level keys known to always exceed the
	// source's size limit; the whole-country attempt is skipped for them.
	// This is a performance shortcut, not a correctness requirement.
	KnownLargeRegions []string

	// MaxSplitDepth caps how many subdivision levels the controller may
	// descend. 1 means a country splits into subregions at most once; a
	// subregion still oversized at the cap yields zero records with a
	// warning.
	MaxSplitDepth int

	// RunID stamps emitted progress events.
	RunID string
}

// Controller walks the top-level keys and decides, per key, how finely to
// partition fetches based on observed oversize signals. It is single-threaded
// by design: one request in flight at a time, results accumulated into an
// owned slice returned to the caller.
type Controller struct {
	enum     Enumerator
	fetcher  RegionFetcher
	cfg      ControllerConfig
	logger   *zap.Logger
	emitter  progress.Emitter
	large    map[string]struct{}
	counters Counters
}

// NewController wires the enumerator and fetcher into a controller.
func NewController(
	enum Enumerator,
	fetcher RegionFetcher,
	cfg ControllerConfig,
	logger *zap.Logger,
	emitter progress.Emitter,
) *Controller {
	if cfg.MaxSplitDepth <= 0 {
		cfg.MaxSplitDepth = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	large := make(map[string]struct{}, len(cfg.KnownLargeRegions))
	for _, name := range cfg.KnownLargeRegions {
		large[name] = struct{}{}
	}
	return &Controller{
		enum:    enum,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		emitter: emitter,
		large:   large,
	}
}

// Run enumerates the top-level keys and harvests each in order. Enumeration
// failure is fatal; per-region failures are isolated and only cost their own
// records. The returned slice is owned by the caller and ordered by
// (top-level key, child) traversal.
func (c *Controller) Run(ctx context.Context) ([]Record, Counters, error) {
	c.counters = Counters{}
	start := time.Now()
	countries, err := c.enum.Countries(ctx)
	if err != nil {
		return nil, c.counters, fmt.Errorf("enumerate countries: %w", err)
	}
	c.counters.Countries = len(countries)
	c.emit(progress.Event{
		Stage:   progress.StageEnumerate,
		Records: len(countries),
		Dur:     time.Since(start),
	})
	c.logger.Info("enumerated countries", zap.Int("count", len(countries)))

	var records []Record
	for i, country := range countries {
		if err := ctx.Err(); err != nil {
			return records, c.counters, fmt.Errorf("harvest canceled: %w", err)
		}
		c.logger.Info("harvesting country",
			zap.String("country", country.Name),
			zap.Int("index", i+1),
			zap.Int("total", len(countries)),
		)
		records = append(records, c.harvestCountry(ctx, country)...)
	}
	return records, c.counters, nil
}

func (c *Controller) harvestCountry(ctx context.Context, country CountryKey) []Record {
	key := PartitionKey{country.Name}
	if _, ok := c.large[country.Name]; ok {
		c.logger.Info("known large region, splitting immediately",
			zap.String("region", key.String()))
		return c.split(ctx, key, country.ID, 1)
	}
	out := c.fetchOne(ctx, key)
	switch out.Kind {
	case OutcomeSuccess:
		return out.Records
	case OutcomeOversize:
		return c.split(ctx, key, country.ID, 1)
	default:
		return nil
	}
}

// split subdivides an oversized region one level and fetches each child once.
// A child that is itself oversized is split again while depth allows;
// otherwise it contributes zero records with a warning.
func (c *Controller) split(ctx context.Context, key PartitionKey, parentID string, depth int) []Record {
	c.counters.Splits++
	c.emit(progress.Event{Stage: progress.StageRegionSplit, Region: key.String()})

	children, err := c.enum.Children(ctx, parentID)
	if err != nil {
		c.counters.HardFailures++
		c.logger.Warn("child enumeration failed, region skipped",
			zap.String("region", key.String()), zap.Error(err))
		return nil
	}
	if len(children) == 0 {
		c.logger.Warn("oversized region has no subdivisions, zero records",
			zap.String("region", key.String()))
		return nil
	}

	var records []Record
	for _, child := range children {
		if ctx.Err() != nil {
			return records
		}
		childKey := key.Extend(child.Name)
		out := c.fetchOne(ctx, childKey)
		switch out.Kind {
		case OutcomeSuccess:
			records = append(records, out.Records...)
		case OutcomeOversize:
			if depth < c.cfg.MaxSplitDepth {
				records = append(records, c.split(ctx, childKey, child.ID, depth+1)...)
				continue
			}
			c.counters.OversizeAtCap++
			observeOversizeAtCap()
			c.logger.Warn("region still oversized at split depth cap, zero records",
				zap.String("region", childKey.String()),
				zap.Int("depth", depth),
			)
		}
	}
	return records
}

// fetchOne performs exactly one bounded fetch attempt and records its
// outcome. HardFailure is logged here so callers only branch on the kind.
func (c *Controller) fetchOne(ctx context.Context, key PartitionKey) Outcome {
	start := time.Now()
	out := c.fetcher.FetchRegion(ctx, key)
	c.counters.RegionsFetched++
	observeRegionFetch(out.Kind.String())

	evt := progress.Event{
		Stage:   progress.StageRegionFetch,
		Region:  key.String(),
		Outcome: out.Kind.String(),
		Records: len(out.Records),
		Dur:     time.Since(start),
	}
	switch out.Kind {
	case OutcomeSuccess:
		observeRecords(len(out.Records))
		c.logger.Info("region fetched",
			zap.String("region", key.String()),
			zap.Int("records", len(out.Records)),
			zap.Duration("dur", time.Since(start)),
		)
	case OutcomeOversize:
		c.logger.Info("region oversized, will subdivide",
			zap.String("region", key.String()))
	case OutcomeHardFailure:
		c.counters.HardFailures++
		evt.Note = out.Err.Error()
		c.logger.Warn("region fetch failed, zero records",
			zap.String("region", key.String()),
			zap.Error(out.Err),
		)
	}
	c.emit(evt)
	return out
}

func (c *Controller) emit(evt progress.Event) {
	if c.emitter == nil {
		return
	}
	evt.RunID = c.cfg.RunID
	if evt.RunID == "" {
		evt.RunID = "unidentified"
	}
	evt.TS = time.Now().UTC()
	c.emitter.Emit(evt)
}
