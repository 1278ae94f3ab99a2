package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/agusespa/szz/internal/batch"
	"github.com/agusespa/szz/internal/git"
	"github.com/agusespa/szz/internal/szz"
	"github.com/agusespa/szz/pkg/config"
	"github.com/spf13/cobra"
)

var (
	runOutDir   string
	runWorkers  int
	runProgress bool
)

var runCmd = &cobra.Command{
	Use:   "run <bug-fixes.json> <conf.yml> [repos-dir]",
	Short: "Resolve the bug-inducing commits of every fix in a file",
	Long: `Resolve the bug-inducing commits of every fix commit listed in the input
file and write the records, extended with inducing_commit_hash, to
<out-dir>/bic_<conf>_<unix-time>.json.

Repositories are looked up as <repos-dir>/<owner>/<name> and cloned from
GitHub when missing. Without repos-dir every repository is cloned into a
temporary directory that is removed afterwards.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runOutDir, "out-dir", "out", "Directory for result files")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Repositories processed in parallel (default: workers from the config)")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "Show a progress spinner on stderr")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	inputPath, confPath := args[0], args[1]
	reposDir := ""
	if len(args) == 3 {
		reposDir = args[2]
	}

	cfg, err := config.LoadConfig(confPath)
	if err != nil {
		return err
	}
	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}

	logger := newLogger(cfg.LogLevel)

	if _, err := git.CheckVersion(cmd.Context()); err != nil {
		return err
	}

	strategy, err := szz.StrategyFor(cfg.SZZName)
	if err != nil {
		return err
	}
	opts, err := batch.FinderOptions(cfg)
	if err != nil {
		return err
	}
	parser, err := batch.NewParser(cfg)
	if err != nil {
		return err
	}
	if strategy.Context != szz.ContextNone && cfg.StructuralParser == config.ParserSrcML {
		if _, err := exec.LookPath(cfg.SrcMLBinary); err != nil {
			return fmt.Errorf("structural_parser is srcml but %s is not installed: %w", cfg.SrcMLBinary, err)
		}
	}

	records, err := batch.LoadRecords(inputPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger.Info("launching", "strategy", strategy.Name, "description", strategy.Description, "records", len(records), "workers", cfg.Workers)

	runnerOpts := []batch.RunnerOption{batch.WithReposDir(reposDir)}
	if runProgress {
		runnerOpts = append(runnerOpts, batch.WithProgress(os.Stderr))
	}
	runner := batch.NewRunner(strategy, opts, parser, cfg.Workers, logger, runnerOpts...)

	started := time.Now()
	results, summary, err := runner.Run(ctx, records)
	summary.Log(logger)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted: %w", context.Cause(ctx))
		}
		return err
	}

	path, err := batch.NewResultsManager(runOutDir).Save(config.Name(confPath), started, results)
	if err != nil {
		return err
	}
	logger.Info("results saved", "path", path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
