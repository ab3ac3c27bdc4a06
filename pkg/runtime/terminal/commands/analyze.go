package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/de-tools/ad-atlas/pkg/adapters"
	"github.com/de-tools/ad-atlas/pkg/export"
	"github.com/de-tools/ad-atlas/pkg/models/domain"
	"github.com/de-tools/ad-atlas/pkg/services/config"
	"github.com/de-tools/ad-atlas/pkg/services/pipeline"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite/run"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	configPath string
	outputDir  string
	skipStore  bool
	output     io.Writer
}

func NewAnalyzeCmd(output io.Writer) *cobra.Command {
	ac := &AnalyzeCmd{output: output}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the reporting pipeline and render the dashboards",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.configPath, "config", "", "Path to the run configuration file")
	cmd.Flags().StringVar(&ac.outputDir, "out", "", "Output directory (defaults to the configured output_dir)")
	cmd.Flags().BoolVar(&ac.skipStore, "no-store", false, "Do not persist the finalized run")

	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(ac.configPath)
	if err != nil {
		return err
	}
	if ac.outputDir == "" {
		ac.outputDir = cfg.OutputDir
	}

	result, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	if !ac.skipStore {
		if err := ac.persist(ctx, cfg, result); err != nil {
			return err
		}
	}

	if err := export.NewReporter(ac.output).Handle(result); err != nil {
		return fmt.Errorf("render terminal report: %w", err)
	}
	return ac.writeArtifacts(result)
}

func (ac *AnalyzeCmd) persist(ctx context.Context, cfg *config.RunConfig, result *domain.RunResult) error {
	db, err := sqlite.NewDB(sqlite.Settings{DbPath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer db.Close()

	runStore, err := run.NewStore(db)
	if err != nil {
		return err
	}
	rec, rows, err := adapters.MapDomainRunToStore(result)
	if err != nil {
		return err
	}
	if err := runStore.Add(ctx, rec, rows); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	return nil
}

func (ac *AnalyzeCmd) writeArtifacts(result *domain.RunResult) error {
	if ac.outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(ac.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	excelPath := filepath.Join(ac.outputDir, "dashboard.xlsx")
	if err := export.NewExcelReporter(excelPath).Handle(result); err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}

	mdFile, err := os.Create(filepath.Join(ac.outputDir, "report.md"))
	if err != nil {
		return err
	}
	defer mdFile.Close()
	if err := export.NewMarkdownReporter(mdFile).Handle(result); err != nil {
		return fmt.Errorf("render markdown report: %w", err)
	}

	csvFile, err := os.Create(filepath.Join(ac.outputDir, "metrics.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()
	if err := export.NewCSVReporter(csvFile).Handle(result); err != nil {
		return fmt.Errorf("render metrics csv: %w", err)
	}
	return nil
}
