package commands

import (
	"fmt"
	"io"

	"github.com/de-tools/ad-atlas/pkg/adapters"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite"
	"github.com/de-tools/ad-atlas/pkg/store/sqlite/run"
	"github.com/spf13/cobra"
)

type RunsCmd struct {
	dbPath string
	limit  int
	output io.Writer
}

func NewRunsCmd(output io.Writer) *cobra.Command {
	rc := &RunsCmd{output: output}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List finalized runs in the local store",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.dbPath, "db", "ad-atlas.db", "Path to the run store")
	cmd.Flags().IntVar(&rc.limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func (rc *RunsCmd) run(cmd *cobra.Command, _ []string) error {
	db, err := sqlite.NewDB(sqlite.Settings{DbPath: rc.dbPath})
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer db.Close()

	runStore, err := run.NewStore(db)
	if err != nil {
		return err
	}
	runs, err := runStore.List(cmd.Context(), rc.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(rc.output, "no finalized runs")
		return nil
	}

	for _, rec := range runs {
		summary := adapters.MapStoreRunToAPISummary(rec)
		fmt.Fprintf(rc.output, "%s  %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05"), summary.ID)
	}
	return nil
}
