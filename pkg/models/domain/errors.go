package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal run errors: no partial report is emitted when these occur.
var (
	ErrNoUsableSource   = errors.New("no usable source: every configured source was skipped or empty")
	ErrNoReferenceLists = errors.New("cohort tagging requested but no reference lists were provided")
)

// SchemaMismatchError marks a single source as unreadable under its declared
// schema. It is non-fatal to the run; the source is skipped and reported.
type SchemaMismatchError struct {
	Source  string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("source %q: schema mismatch, missing required columns: %s",
		e.Source, strings.Join(e.Missing, ", "))
}

// ConflictingTagError reports entity keys claimed by more than one cohort
// list. Resolution never picks a side by list order; the affected entities
// count as Unknown and the conflicts are surfaced for manual resolution.
type ConflictingTagError struct {
	Conflicts []TagConflict
}

func (e *ConflictingTagError) Error() string {
	return fmt.Sprintf("%d entity keys appear in more than one cohort list", len(e.Conflicts))
}

// InsufficientDataError marks a statistic that was omitted because the sample
// was below its minimum size. The statistic is reported with this reason,
// never fabricated from a degenerate sample.
type InsufficientDataError struct {
	Statistic string
	Required  int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data, need at least %d samples, got %d",
		e.Statistic, e.Required, e.Got)
}
