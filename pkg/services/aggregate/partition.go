package aggregate

import (
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

// Partitioner assigns a record to the time bucket (or entity bucket) of one
// partition axis. A false return excludes the record from this partition; the
// caller accounts for exclusions separately.
type Partitioner interface {
	Kind() domain.BucketKind
	Bucket(rec domain.Record) (domain.TimeBucket, bool)
}

type cohortOnly struct{}

// CohortOnly puts every record into a single cohort-wide bucket.
func CohortOnly() Partitioner { return cohortOnly{} }

func (cohortOnly) Kind() domain.BucketKind { return domain.BucketAll }

func (cohortOnly) Bucket(domain.Record) (domain.TimeBucket, bool) {
	return domain.TimeBucket{Kind: domain.BucketAll, Label: "all"}, true
}

type byDay struct{}

// ByDay buckets records by calendar day. Records without a date are excluded.
func ByDay() Partitioner { return byDay{} }

func (byDay) Kind() domain.BucketKind { return domain.BucketDay }

func (byDay) Bucket(rec domain.Record) (domain.TimeBucket, bool) {
	if rec.Date.IsZero() {
		return domain.TimeBucket{}, false
	}
	return domain.TimeBucket{
		Kind:  domain.BucketDay,
		Label: rec.Date.Format("2006-01-02"),
		Start: rec.Date,
		End:   rec.Date,
	}, true
}

type byMonth struct{}

// ByMonth buckets records by calendar month.
func ByMonth() Partitioner { return byMonth{} }

func (byMonth) Kind() domain.BucketKind { return domain.BucketMonth }

func (byMonth) Bucket(rec domain.Record) (domain.TimeBucket, bool) {
	if rec.Date.IsZero() {
		return domain.TimeBucket{}, false
	}
	start := time.Date(rec.Date.Year(), rec.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return domain.TimeBucket{
		Kind:  domain.BucketMonth,
		Label: start.Format("2006-01"),
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}, true
}

type byASIN struct{}

// ByASIN buckets records by advertised ASIN. Records with no ASIN are
// excluded from this axis.
func ByASIN() Partitioner { return byASIN{} }

func (byASIN) Kind() domain.BucketKind { return domain.BucketASIN }

func (byASIN) Bucket(rec domain.Record) (domain.TimeBucket, bool) {
	if rec.ASIN == "" {
		return domain.TimeBucket{}, false
	}
	return domain.TimeBucket{Kind: domain.BucketASIN, Label: rec.ASIN}, true
}

type byPhase struct {
	phases []domain.Phase
}

// ByPhases buckets records into the configured named phases. Phase boundaries
// are inclusive and fixed at configuration time; a record outside every phase
// is excluded from the axis. Phases are checked in order, so a boundary day
// belongs to exactly one phase when the ranges do not overlap.
func ByPhases(phases []domain.Phase) Partitioner { return byPhase{phases: phases} }

func (byPhase) Kind() domain.BucketKind { return domain.BucketPhase }

func (p byPhase) Bucket(rec domain.Record) (domain.TimeBucket, bool) {
	if rec.Date.IsZero() {
		return domain.TimeBucket{}, false
	}
	for _, phase := range p.phases {
		if phase.Contains(rec.Date) {
			return domain.TimeBucket{
				Kind:  domain.BucketPhase,
				Label: phase.Name,
				Start: phase.Start,
				End:   phase.End,
			}, true
		}
	}
	return domain.TimeBucket{}, false
}
