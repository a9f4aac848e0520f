package cmd

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"VelSave/internal/state"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show the last known progress of each job",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openState(cfg)
	if err != nil {
		return err
	}

	entries := store.List()
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, ok := store.Get(id)
		if !ok {
			cmd.Printf("No state recorded for job %d\n", id)
			return nil
		}
		entries = []state.Progress{p}
	}
	if len(entries) == 0 {
		cmd.Println("No state recorded yet")
		return nil
	}

	cmd.Printf("%-4s %-20s %-9s %5s %10s %12s  %s\n", "ID", "NAME", "STATUS", "DONE", "FILES LEFT", "BYTES LEFT", "UPDATED")
	for _, p := range entries {
		updated := "-"
		if !p.Timestamp.IsZero() {
			updated = humanize.Time(p.Timestamp)
		}
		cmd.Printf("%-4d %-20s %-9s %4d%% %10s %12s  %s\n",
			p.JobID, p.JobName, p.Status, p.Percent,
			humanize.Comma(int64(p.RemainingFiles)), humanize.IBytes(uint64(p.RemainingBytes)), updated)
		if p.Status == state.StatusActive && p.CurrentSource != "" {
			cmd.Printf("     %s -> %s\n", p.CurrentSource, p.CurrentDestination)
		}
	}
	return nil
}
