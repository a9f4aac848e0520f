package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"VelSave/internal/engine"
	"VelSave/internal/job"
)

var runAll bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runAll, "all", false, "Run every configured job")
}

var runCmd = &cobra.Command{
	Use:   "run [selection]",
	Short: "Run backup jobs by id, id list or id range",
	Long: "Run the selected jobs one after another. A selection is a single id (3), a list (\"1;3;5\")\n" +
		"or an inclusive range (1-5). Use --all to run every job.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case runAll && len(args) > 0:
			return fmt.Errorf("specify a selection or --all, not both")
		case runAll:
			return runSelection(cmd, "", true)
		case len(args) == 1:
			return runSelection(cmd, args[0], false)
		default:
			return fmt.Errorf("specify a job selection or --all")
		}
	},
}

func runSelection(cmd *cobra.Command, selection string, all bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, set, _, err := loadConfigForEdit()
	if err != nil {
		return err
	}

	var jobs []job.Job
	if all {
		jobs = set.All()
	} else {
		ids, err := job.ParseSelection(selection)
		if err != nil {
			return err
		}
		if jobs, err = set.Select(ids); err != nil {
			return err
		}
	}
	if len(jobs) == 0 {
		cmd.Println("No jobs to run")
		return nil
	}

	owner := "run " + selection
	if all {
		owner = "run --all"
	}
	var results []engine.Result
	err = withRunLock(ctx, cfg, owner, func() error {
		store, err := openState(cfg)
		if err != nil {
			return err
		}
		eng, err := newEngine(cfg, store)
		if err != nil {
			return err
		}
		batch := &engine.Batch{
			Engine:   eng,
			Notifier: NotifierFromConfig(cfg, warnf(cmd)),
			OnStart: func(i int, j job.Job) {
				cmd.Printf("[%d/%d] Running job %d %q (%s) ...\n", i+1, len(jobs), j.ID, j.Name, j.Policy)
			},
			OnResult: func(r engine.Result) { printResult(cmd, r) },
		}
		results = batch.Run(ctx, jobs)
		return nil
	})
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if ctx.Err() != nil {
		return fmt.Errorf("interrupted after %d of %d jobs", len(results), len(jobs))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
	}
	cmd.Println("All jobs completed.")
	return nil
}

func printResult(cmd *cobra.Command, r engine.Result) {
	d := r.Duration.Round(time.Millisecond)
	if r.Err != nil {
		cmd.Printf("  Failed after %s: %v\n", d, r.Err)
		return
	}
	s := r.Summary
	cmd.Printf("  OK in %s: %d copied (%s), %d skipped", d, s.Copied, humanize.IBytes(uint64(s.Bytes)), s.Skipped)
	if s.Failed > 0 {
		cmd.Printf(", %d failed (see event log)", s.Failed)
	}
	cmd.Println()
}
