package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
)

type TableConfig struct {
	MetricWidth int
	ValueWidth  int
	DeltaWidth  int
	WinnerWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		MetricWidth: 16,
		ValueWidth:  16,
		DeltaWidth:  14,
		WinnerWidth: 8,
	}
}

// Reporter renders a finalized run as formatted text. It consumes only the
// RunResult; nothing here re-derives a metric.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(result *domain.RunResult) error {
	funcMap := template.FuncMap{
		"ratio": formatRatio,
		"money": formatMoney,
		"formatDeltaRow": func(d domain.MetricDelta) string {
			return fmt.Sprintf("| %-*s | %*s | %*s | %*s | %-*s |",
				c.config.MetricWidth, d.Metric,
				c.config.ValueWidth, formatRatio(d.A),
				c.config.ValueWidth, formatRatio(d.B),
				c.config.DeltaWidth, formatPct(d.PctChange),
				c.config.WinnerWidth, winnerLabel(d.Winner))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.MetricWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.DeltaWidth+2),
				strings.Repeat("-", c.config.WinnerWidth+2))
		},
		"header": func(a, b string) string {
			return fmt.Sprintf("| %-*s | %*s | %*s | %*s | %-*s |",
				c.config.MetricWidth, "Metric",
				c.config.ValueWidth, a,
				c.config.ValueWidth, b,
				c.config.DeltaWidth, "% Change",
				c.config.WinnerWidth, "Winner")
		},
	}

	tmpl := `
Advertising Cohort Report {{.ID}}
Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}

{{range .Cohorts}}=== {{.Cohort}} ===
Spend: {{money .Totals.Spend}}  Ad Sales: {{money .Totals.AdSales}}  Revenue: {{money .Totals.Revenue}}
ROAS: {{ratio .ROAS}}  ACOS: {{ratio .ACOS}}  TACoS: {{ratio .TACoS}}  T-ROAS: {{ratio .TROAS}}
CPC: {{ratio .CPC}}  CTR: {{ratio .CTR}}  CVR: {{ratio .CVR}}  CPA: {{ratio .CPA}}  CPM: {{ratio .CPM}}  AOV: {{ratio .AOV}}

{{end}}
{{- if .CohortComparison}}
=== Cohort Comparison ({{.CohortComparison.A.Cohort}} vs {{.CohortComparison.B.Cohort}}) ===
{{separator}}
{{header (printf "%s" .CohortComparison.A.Cohort) (printf "%s" .CohortComparison.B.Cohort)}}
{{separator}}
{{range .CohortComparison.Deltas}}{{formatDeltaRow .}}
{{end}}{{separator}}
{{range .CohortComparison.Stats}}
{{.Name}}{{if .Scope}} [{{.Scope}}]{{end}}: {{if .Reason}}{{.Reason}}{{else}}{{ratio .Value}} (n={{.Samples}}){{end}}
{{- end}}
{{end}}
{{- if .PhaseComparison}}
=== Phase Comparison ({{.PhaseComparison.A.Bucket.Label}} vs {{.PhaseComparison.B.Bucket.Label}}) ===
{{separator}}
{{header .PhaseComparison.A.Bucket.Label .PhaseComparison.B.Bucket.Label}}
{{separator}}
{{range .PhaseComparison.Deltas}}{{formatDeltaRow .}}
{{end}}{{separator}}
{{range .PhaseComparison.Stats}}
{{.Name}}{{if .Scope}} [{{.Scope}}]{{end}}: {{if .Reason}}{{.Reason}}{{else}}{{ratio .Value}} (n={{.Samples}}){{end}}
{{- end}}
{{end}}
=== Data Quality ===
{{range .Quality.Sources}}{{.Source}}: read {{.RowsRead}}, kept {{.RowsKept}}, duplicates {{.Duplicates}}, filtered {{.FilteredByStatus}}, malformed {{.Malformed}}
{{end}}{{range .Quality.Skipped}}SKIPPED {{.Source}}: {{.Reason}}
{{end}}{{range .Quality.Conflicts}}CONFLICT {{.KeyType}} {{.Key}}: claimed by {{.Cohorts}}
{{end}}Unknown entities: {{.Quality.UnknownEntities}} ({{.Quality.UnknownRows}} rows)
Undefined ratios: {{.Quality.UndefinedRatios}}
`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, result)
}

func winnerLabel(s domain.Side) string {
	switch s {
	case domain.SideA:
		return "A"
	case domain.SideB:
		return "B"
	case domain.SideTie:
		return "tie"
	}
	return ""
}
