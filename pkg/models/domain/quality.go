package domain

import "time"

// SourceStats counts what happened to a single source's rows. Every excluded
// row is accounted for here; nothing is dropped silently.
type SourceStats struct {
	Source           string `json:"source"`
	RowsRead         int64  `json:"rows_read"`
	RowsKept         int64  `json:"rows_kept"`
	Duplicates       int64  `json:"duplicates"`
	FilteredByStatus int64  `json:"filtered_by_status"`
	Malformed        int64  `json:"malformed"`
}

// SkippedSource is a source excluded from the run, with the reason it was
// skipped (typically a schema mismatch).
type SkippedSource struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// TagConflict records an entity key claimed by more than one cohort list.
// The entity is tagged Unknown for aggregation and left for manual follow-up.
type TagConflict struct {
	Key     string   `json:"key"`
	KeyType string   `json:"key_type"` // "sku" or "asin"
	Cohorts []string `json:"cohorts"`
}

// QualitySummary is the data-quality side channel of a run, so report
// consumers can tell "$0 spend" from "no data".
type QualitySummary struct {
	Sources         []SourceStats   `json:"sources"`
	Skipped         []SkippedSource `json:"skipped,omitempty"`
	Conflicts       []TagConflict   `json:"conflicts,omitempty"`
	UnknownEntities int64           `json:"unknown_entities"`
	UnknownRows     int64           `json:"unknown_rows"`
	UndefinedRatios int64           `json:"undefined_ratios"`
}

// RunResult is the finalized output of one pipeline invocation. It is only
// ever constructed fully formed; renderers and stores never see a partially
// accumulated run.
type RunResult struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Cohorts []AggregatedMetrics `json:"cohorts"`
	Daily   []AggregatedMetrics `json:"daily,omitempty"`
	Monthly []AggregatedMetrics `json:"monthly,omitempty"`
	ByASIN  []AggregatedMetrics `json:"by_asin,omitempty"`
	Phases  []AggregatedMetrics `json:"phases,omitempty"`

	CohortComparison *ComparisonResult `json:"cohort_comparison,omitempty"`
	PhaseComparison  *ComparisonResult `json:"phase_comparison,omitempty"`

	Quality QualitySummary `json:"quality"`
}

// Cohort returns the cohort-wide cell for the given tag.
func (r *RunResult) Cohort(tag CohortTag) (AggregatedMetrics, bool) {
	for _, m := range r.Cohorts {
		if m.Cohort == tag {
			return m, true
		}
	}
	return AggregatedMetrics{}, false
}
