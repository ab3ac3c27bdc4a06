// Package pipeline runs the whole reporting batch: load, resolve, aggregate,
// compare. A run either completes and yields a fully formed RunResult, or it
// fails; no partial result ever escapes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/de-tools/ad-atlas/pkg/services/aggregate"
	"github.com/de-tools/ad-atlas/pkg/services/compare"
	"github.com/de-tools/ad-atlas/pkg/services/config"
	"github.com/de-tools/ad-atlas/pkg/services/resolver"
	"github.com/de-tools/ad-atlas/pkg/services/source"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CohortAll scopes phase totals that span every cohort, matching how the
// pre/post analysis treats the full record set.
const CohortAll = domain.CohortTag("All")

// Run executes one batch pass over the configured sources.
func Run(ctx context.Context, cfg *config.RunConfig) (*domain.RunResult, error) {
	logger := zerolog.Ctx(ctx)

	records, quality, err := loadSources(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := buildResolver(cfg)
	if err != nil {
		var conflictErr *domain.ConflictingTagError
		if !errors.As(err, &conflictErr) {
			return nil, err
		}
		quality.Conflicts = conflictErr.Conflicts
		logger.Warn().
			Int("conflicts", len(conflictErr.Conflicts)).
			Msg("entity keys claimed by more than one cohort; tagged Unknown")
	}

	phases, err := cfg.PhaseList()
	if err != nil {
		return nil, err
	}
	polarity, err := cfg.PolarityTable()
	if err != nil {
		return nil, err
	}

	cohortAcc := aggregate.NewAccumulator(aggregate.CohortOnly())
	dailyAcc := aggregate.NewAccumulator(aggregate.ByDay())
	var monthlyAcc, asinAcc, phaseAcc, phaseAllAcc *aggregate.Accumulator
	if cfg.TimeBuckets == "monthly" {
		monthlyAcc = aggregate.NewAccumulator(aggregate.ByMonth())
	}
	if cfg.ASINBreakdown {
		asinAcc = aggregate.NewAccumulator(aggregate.ByASIN())
	}
	if len(phases) > 0 {
		phaseAcc = aggregate.NewAccumulator(aggregate.ByPhases(phases))
		phaseAllAcc = aggregate.NewAccumulator(aggregate.ByPhases(phases))
	}

	unknownEntities := make(map[string]bool)
	for _, rec := range records {
		tag := res.Tag(rec)
		if tag == domain.CohortUnknown {
			quality.UnknownRows++
			unknownEntities[rec.SKU+"|"+rec.ASIN] = true
		}
		cohortAcc.Add(rec, tag)
		dailyAcc.Add(rec, tag)
		if monthlyAcc != nil {
			monthlyAcc.Add(rec, tag)
		}
		if asinAcc != nil {
			asinAcc.Add(rec, tag)
		}
		if phaseAcc != nil {
			phaseAcc.Add(rec, tag)
			phaseAllAcc.Add(rec, CohortAll)
		}
	}
	quality.UnknownEntities = int64(len(unknownEntities))

	result := &domain.RunResult{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Cohorts:     cohortAcc.Finalize(),
		Daily:       dailyAcc.Finalize(),
	}
	if monthlyAcc != nil {
		result.Monthly = monthlyAcc.Finalize()
	}
	if asinAcc != nil {
		result.ByASIN = asinAcc.Finalize()
	}
	if phaseAcc != nil {
		result.Phases = append(phaseAcc.Finalize(), phaseAllAcc.Finalize()...)
	}

	result.CohortComparison = cohortComparison(result, polarity)
	result.PhaseComparison = phaseComparison(result, phases, polarity)

	for _, cells := range [][]domain.AggregatedMetrics{
		result.Cohorts, result.Daily, result.Monthly, result.ByASIN, result.Phases,
	} {
		quality.UndefinedRatios += aggregate.UndefinedCount(cells)
	}
	result.Quality = *quality

	logger.Info().
		Str("run_id", result.ID).
		Int("cohort_cells", len(result.Cohorts)).
		Int("daily_cells", len(result.Daily)).
		Int64("unknown_rows", quality.UnknownRows).
		Msg("run finalized")

	return result, nil
}

func loadSources(ctx context.Context, cfg *config.RunConfig) ([]domain.Record, *domain.QualitySummary, error) {
	logger := zerolog.Ctx(ctx)

	descs, err := cfg.Descriptors()
	if err != nil {
		return nil, nil, err
	}

	quality := &domain.QualitySummary{}
	var records []domain.Record
	for _, desc := range descs {
		res, err := source.Load(ctx, desc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, err
			}
			// A broken source skips that source, not the run.
			quality.Skipped = append(quality.Skipped, domain.SkippedSource{
				Source: desc.Name,
				Reason: err.Error(),
			})
			logger.Warn().Str("source", desc.Name).Err(err).Msg("source skipped")
			continue
		}
		quality.Sources = append(quality.Sources, res.Stats)
		records = append(records, res.Records...)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w (%d sources skipped)", domain.ErrNoUsableSource, len(quality.Skipped))
	}
	return records, quality, nil
}

func buildResolver(cfg *config.RunConfig) (*resolver.Resolver, error) {
	lists := make([]resolver.ReferenceList, 0, len(cfg.ReferenceLists))
	for _, rc := range cfg.ReferenceLists {
		list := resolver.ReferenceList{
			Cohort: domain.CohortTag(rc.Cohort),
			SKUs:   rc.SKUs,
			ASINs:  rc.ASINs,
		}
		if rc.Path != "" {
			pairs, err := source.LoadReferencePairs(source.Descriptor{
				Name:   rc.Cohort,
				Path:   rc.Path,
				Format: source.Format(rc.Format),
				Sheet:  rc.Sheet,
			})
			if err != nil {
				return nil, fmt.Errorf("reference list %q: %w", rc.Cohort, err)
			}
			for _, p := range pairs {
				if p.SKU != "" {
					list.SKUs = append(list.SKUs, p.SKU)
				}
				if p.ASIN != "" {
					list.ASINs = append(list.ASINs, p.ASIN)
				}
			}
		}
		lists = append(lists, list)
	}
	return resolver.New(lists)
}

// cohortComparison compares the managed cohort against the manual baseline,
// with per-cohort spend/organic correlations from the daily series.
func cohortComparison(result *domain.RunResult, polarity map[string]domain.Polarity) *domain.ComparisonResult {
	baseline, okA := result.Cohort(domain.CohortNonPerpetua)
	managed, okB := result.Cohort(domain.CohortPerpetua)
	if !okA || !okB {
		return nil
	}

	cmp := compare.Compare(baseline, managed, compare.Options{Axis: "cohort", Polarity: polarity})
	for _, cohort := range []domain.CohortTag{domain.CohortNonPerpetua, domain.CohortPerpetua} {
		cmp.Stats = append(cmp.Stats, correlationStat(result.Daily, cohort))
	}
	return &cmp
}

func correlationStat(daily []domain.AggregatedMetrics, cohort domain.CohortTag) domain.StatResult {
	series := compare.SeriesFrom(daily, cohort)
	stat, err := compare.Correlation(series)
	if err != nil {
		return domain.StatResult{
			Name:    "pearson_spend_organic",
			Scope:   string(cohort),
			Samples: len(series),
			Reason:  err.Error(),
		}
	}
	stat.Scope = string(cohort)
	return stat
}

// phaseComparison compares the first two configured phases over the full
// record set (all cohorts), with the spend elasticity of organic sales.
func phaseComparison(result *domain.RunResult, phases []domain.Phase, polarity map[string]domain.Polarity) *domain.ComparisonResult {
	if len(phases) < 2 {
		return nil
	}

	var pre, post *domain.AggregatedMetrics
	for i := range result.Phases {
		cell := &result.Phases[i]
		if cell.Cohort != CohortAll {
			continue
		}
		switch cell.Bucket.Label {
		case phases[0].Name:
			pre = cell
		case phases[1].Name:
			post = cell
		}
	}
	if pre == nil || post == nil {
		return nil
	}

	cmp := compare.Compare(*pre, *post, compare.Options{Axis: "phase", Polarity: polarity})

	elasticity := compare.Elasticity(pre.Totals, post.Totals)
	stat := domain.StatResult{
		Name:    "elasticity_spend_organic",
		Scope:   fmt.Sprintf("%s vs %s", phases[0].Name, phases[1].Name),
		Value:   elasticity,
		Samples: 2,
	}
	if !elasticity.Defined {
		stat.Reason = "undefined: spend change between the periods is zero or baseline is empty"
	}
	cmp.Stats = append(cmp.Stats, stat)
	return &cmp
}
