package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/htseq-tools/countfilter/internal/runstore"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
		runID  int64
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded filter runs",
		Long:  "List past filter runs recorded with --history-db, newest first.",
		Example: `  countfilter history --db runs.duckdb
  countfilter history --db runs.duckdb --run 3   # per-sample stats of run 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = viper.GetString("history.db")
			}
			if dbPath == "" {
				return &usageError{msg: "no history database configured (use --db or set history.db)"}
			}

			store, err := runstore.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID > 0 {
				return printSampleStats(store, runID)
			}
			return printRuns(store, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "History database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().Int64Var(&runID, "run", 0, "Show per-sample stats for a single run")

	return cmd
}

func printRuns(store *runstore.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRUN AT\tINPUT\tFILTERS\tPASSED\tTOTAL\tMETACOUNTS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.RunAt.Format("2006-01-02 15:04:05"), r.Input,
			describeFilters(r), r.PassedGenes, r.TotalGenes, r.Metacounts)
	}
	return tw.Flush()
}

func printSampleStats(store *runstore.Store, runID int64) error {
	stats, err := store.SampleStats(runID)
	if err != nil {
		return err
	}

	if len(stats) == 0 {
		fmt.Printf("No sample stats recorded for run %d.\n", runID)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SAMPLE\tTOTAL COUNT\tPASSED COUNT\tTOTAL EXPRESSED\tPASSED EXPRESSED")
	for _, st := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
			st.Sample,
			strconv.FormatFloat(st.TotalCount, 'g', -1, 64),
			strconv.FormatFloat(st.PassedCount, 'g', -1, 64),
			st.TotalExpressed, st.PassedExpressed)
	}
	return tw.Flush()
}

// describeFilters renders the run's active thresholds, "none" when the run
// had no filters configured.
func describeFilters(r runstore.Run) string {
	var parts []string
	if r.MinCount != nil {
		parts = append(parts, fmt.Sprintf("m>=%s", strconv.FormatFloat(*r.MinCount, 'g', -1, 64)))
	}
	if r.MaxZeroCount != nil {
		parts = append(parts, fmt.Sprintf("z<=%d", *r.MaxZeroCount))
	}
	if r.MinExpressed != nil {
		parts = append(parts, fmt.Sprintf("e>=%d", *r.MinExpressed))
	}
	if r.FilterIdentical {
		parts = append(parts, "identical")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
