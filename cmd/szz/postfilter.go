package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/agusespa/szz/internal/batch"
	"github.com/agusespa/szz/internal/git"
	"github.com/spf13/cobra"
)

var postfilterMode string

var postfilterCmd = &cobra.Command{
	Use:   "postfilter <results-dir> <repos-dir>",
	Short: "Narrow the inducing commits of saved result files",
	Long: `Re-filter every bic_*.json file of results-dir without blaming again and
write the result next to it:

  issue-date  keep the commits authored before the issue date  (.issue-filter.json)
  latest      keep the commit committed last                   (.rszz.json)
  largest     keep the commit that changed the most lines      (.lszz.json)

Repositories are looked up as <repos-dir>/<owner>/<name> and cloned from
GitHub when missing.`,
	Args: cobra.ExactArgs(2),
	RunE: runPostfilter,
}

func init() {
	postfilterCmd.Flags().StringVar(&postfilterMode, "mode", string(batch.PostfilterIssueDate), "Filter to apply: issue-date, latest or largest")
	rootCmd.AddCommand(postfilterCmd)
}

func runPostfilter(cmd *cobra.Command, args []string) error {
	resultsDir, reposDir := args[0], args[1]

	mode, err := batch.ParsePostfilterMode(postfilterMode)
	if err != nil {
		return err
	}

	logger := newLogger("info")

	if _, err := git.CheckVersion(cmd.Context()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	written, err := batch.NewPostfilter(mode, reposDir, logger).FilterDir(ctx, resultsDir)
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	if err != nil {
		return err
	}
	logger.Info("postfilter done", "files", len(written))
	return nil
}
