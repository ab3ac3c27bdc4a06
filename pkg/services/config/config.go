package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/de-tools/ad-atlas/pkg/services/source"
	"github.com/spf13/viper"
)

// RunConfig is the whole configuration of one reporting run. It is loaded
// once and passed explicitly into each component; nothing reads ambient
// process-wide state.
type RunConfig struct {
	Sources        []SourceConfig        `mapstructure:"sources"`
	ReferenceLists []ReferenceListConfig `mapstructure:"reference_lists"`
	TimeBuckets    string                `mapstructure:"time_buckets"` // none|daily|monthly|phase
	Phases         []PhaseConfig         `mapstructure:"phases"`
	Dedup          string                `mapstructure:"dedup"`
	StatusFilter   *StatusFilterConfig   `mapstructure:"status_filter"`
	Polarity       map[string]string     `mapstructure:"polarity"`
	ASINBreakdown  bool                  `mapstructure:"asin_breakdown"`
	OutputDir      string                `mapstructure:"output_dir"`
	DBPath         string                `mapstructure:"db_path"`
}

type SourceConfig struct {
	Name       string   `mapstructure:"name"`
	Path       string   `mapstructure:"path"`
	Format     string   `mapstructure:"format"`
	Sheet      string   `mapstructure:"sheet"`
	Schema     string   `mapstructure:"schema"` // preset: campaign|product|order
	NaturalKey []string `mapstructure:"natural_key"`
}

type ReferenceListConfig struct {
	Cohort string   `mapstructure:"cohort"`
	SKUs   []string `mapstructure:"skus"`
	ASINs  []string `mapstructure:"asins"`
	Path   string   `mapstructure:"path"`
	Format string   `mapstructure:"format"`
	Sheet  string   `mapstructure:"sheet"`
}

type PhaseConfig struct {
	Name  string `mapstructure:"name"`
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"` // empty = open-ended
}

type StatusFilterConfig struct {
	Field string   `mapstructure:"field"` // semantic field, defaults to "status"
	Keep  []string `mapstructure:"keep"`
}

// Load reads and validates a run configuration file.
func Load(path string) (*RunConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("time_buckets", "daily")
	v.SetDefault("dedup", string(source.LastWriteWins))
	v.SetDefault("output_dir", "outputs")
	v.SetDefault("db_path", "ad-atlas.db")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *RunConfig) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("config: at least one source is required")
	}
	for _, s := range c.Sources {
		if s.Name == "" || s.Path == "" {
			return fmt.Errorf("config: every source needs a name and a path")
		}
		if _, ok := source.PresetSchema(s.Schema); !ok {
			return fmt.Errorf("config: source %q: unknown schema preset %q", s.Name, s.Schema)
		}
	}
	switch c.TimeBuckets {
	case "none", "daily", "monthly", "phase":
	default:
		return fmt.Errorf("config: time_buckets must be none|daily|monthly|phase, got %q", c.TimeBuckets)
	}
	if c.TimeBuckets == "phase" && len(c.Phases) == 0 {
		return fmt.Errorf("config: time_buckets=phase requires phase boundaries")
	}
	switch source.DedupStrategy(c.Dedup) {
	case source.LastWriteWins, source.FirstWriteWins:
	default:
		return fmt.Errorf("config: dedup must be %s or %s", source.LastWriteWins, source.FirstWriteWins)
	}
	if _, err := c.PolarityTable(); err != nil {
		return err
	}
	if _, err := c.PhaseList(); err != nil {
		return err
	}
	return nil
}

// Descriptors converts the configured sources into loader descriptors. The
// run-level status filter applies to any source whose schema carries a status
// column.
func (c *RunConfig) Descriptors() ([]source.Descriptor, error) {
	descs := make([]source.Descriptor, 0, len(c.Sources))
	for _, s := range c.Sources {
		schema, _ := source.PresetSchema(s.Schema)

		desc := source.Descriptor{
			Name:       s.Name,
			Path:       s.Path,
			Format:     source.Format(strings.ToLower(s.Format)),
			Sheet:      s.Sheet,
			Schema:     schema,
			NaturalKey: naturalKey(s, schema),
			Dedup:      source.DedupStrategy(c.Dedup),
		}
		if c.StatusFilter != nil && schemaHasStatus(schema) {
			field := source.FieldStatus
			if c.StatusFilter.Field != "" {
				field = source.Field(c.StatusFilter.Field)
			}
			desc.Status = &source.StatusFilter{Field: field, Keep: c.StatusFilter.Keep}
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

func schemaHasStatus(s source.Schema) bool {
	for _, col := range s.Columns {
		if col.Field == source.FieldStatus {
			return true
		}
	}
	return false
}

func naturalKey(s SourceConfig, schema source.Schema) []source.Field {
	if len(s.NaturalKey) > 0 {
		key := make([]source.Field, len(s.NaturalKey))
		for i, f := range s.NaturalKey {
			key[i] = source.Field(f)
		}
		return key
	}
	switch schema.Name {
	case "order":
		return []source.Field{source.FieldOrderID, source.FieldSKU, source.FieldQuantity}
	case "campaign":
		return []source.Field{source.FieldDate, source.FieldCampaignName}
	case "product":
		return []source.Field{source.FieldDate, source.FieldASIN, source.FieldSKU}
	}
	return nil
}

const dateLayout = "2006-01-02"

// PhaseList parses the configured phase boundaries. Boundaries are inclusive
// dates, fixed here and never re-derived downstream.
func (c *RunConfig) PhaseList() ([]domain.Phase, error) {
	phases := make([]domain.Phase, 0, len(c.Phases))
	for _, p := range c.Phases {
		if p.Name == "" {
			return nil, fmt.Errorf("config: every phase needs a name")
		}
		start, err := time.Parse(dateLayout, p.Start)
		if err != nil {
			return nil, fmt.Errorf("config: phase %q: bad start date %q", p.Name, p.Start)
		}
		phase := domain.Phase{Name: p.Name, Start: start}
		if p.End != "" {
			end, err := time.Parse(dateLayout, p.End)
			if err != nil {
				return nil, fmt.Errorf("config: phase %q: bad end date %q", p.Name, p.End)
			}
			if end.Before(start) {
				return nil, fmt.Errorf("config: phase %q: end before start", p.Name)
			}
			phase.End = end
		}
		phases = append(phases, phase)
	}
	return phases, nil
}

// PolarityTable merges configured overrides over the built-in table.
func (c *RunConfig) PolarityTable() (map[string]domain.Polarity, error) {
	table := domain.DefaultPolarity()
	for metric, dir := range c.Polarity {
		switch domain.Polarity(strings.ToLower(dir)) {
		case domain.HigherIsBetter:
			table[metric] = domain.HigherIsBetter
		case domain.LowerIsBetter:
			table[metric] = domain.LowerIsBetter
		default:
			return nil, fmt.Errorf("config: polarity for %q must be higher or lower, got %q", metric, dir)
		}
	}
	return table, nil
}
