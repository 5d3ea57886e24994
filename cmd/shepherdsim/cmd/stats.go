package cmd

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
)

var statsDBPath string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "print the snapshots recorded by a prior --record run",
	Run: func(_ *cobra.Command, _ []string) {
		if err := printRecordedStats(statsDBPath); err != nil {
			fmt.Fprintf(os.Stderr, "shepherdsim: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDBPath, "db", "", "path to a --record SQLite database")
	statsCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(statsCmd)
}

func printRecordedStats(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(
		`SELECT run_id, seq, cycle, tags_in_use, replacements, ` +
			`total_refs, sampled_refs, warmed_up, warmup_cycle FROM snapshots ORDER BY seq`,
	)
	if err != nil {
		return fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			runID                              string
			seq, cycle, tagsInUse, replacements int
			totalRefs, sampledRefs, warmedUp    int
			warmupCycle                         int
		)

		err := rows.Scan(
			&runID, &seq, &cycle, &tagsInUse, &replacements,
			&totalRefs, &sampledRefs, &warmedUp, &warmupCycle,
		)
		if err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}

		fmt.Printf(
			"run=%s seq=%d cycle=%d tags_in_use=%d replacements=%d total_refs=%d sampled_refs=%d warmed_up=%d warmup_cycle=%d\n",
			runID, seq, cycle, tagsInUse, replacements, totalRefs, sampledRefs, warmedUp, warmupCycle,
		)
	}

	return rows.Err()
}
