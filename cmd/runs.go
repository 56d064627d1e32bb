package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alepazz/flight-monitor/internal/model"
	"github.com/Alepazz/flight-monitor/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent monitoring runs",
	Long:  "Display recent runs with candidate counts, deals found, and best price per person.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "runs: open store")
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "runs: migrate store")
		}

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs: list")
		}

		if len(runs) == 0 {
			zap.L().Info("no runs recorded yet")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "max number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func formatRuns(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tSEARCHED\tFAILED\tDEALS\tBEST €/PP\tSTARTED\tERROR")
	_, _ = fmt.Fprintln(w, "--\t------\t--------\t------\t-----\t---------\t-------\t-----")

	for _, r := range runs {
		searched, failed, deals := "-", "-", "-"
		best := "-"
		started := r.CreatedAt.Format("2006-01-02 15:04")
		if s := r.Summary; s != nil {
			searched = fmt.Sprintf("%d/%d", s.CandidatesSearched, s.CandidatesPlanned)
			failed = fmt.Sprintf("%d", s.CandidatesFailed)
			deals = fmt.Sprintf("%d", s.DealsFound)
			if s.BestPricePP > 0 {
				best = fmt.Sprintf("%.0f", s.BestPricePP)
			}
		}

		errMsg := r.Error
		if len(errMsg) > 50 {
			errMsg = errMsg[:47] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(r.ID),
			r.Status,
			searched,
			failed,
			deals,
			best,
			started,
			errMsg,
		)
	}

	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
