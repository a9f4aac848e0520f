package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(removeCmd)
	removeCmd.AddCommand(removeJobCmd)
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a resource",
}

var removeJobCmd = &cobra.Command{
	Use:   "job [id]",
	Short: "Remove a job and its state entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemoveJob,
}

func runRemoveJob(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	cfg, set, path, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	j, err := set.Get(id)
	if err != nil {
		return err
	}
	if err := set.Remove(id); err != nil {
		return err
	}
	err = withRunLock(cmd.Context(), cfg, "remove job", func() error {
		if err := saveJobs(cfg, set, path); err != nil {
			return err
		}
		store, err := openState(cfg)
		if err != nil {
			return err
		}
		return store.Remove(id)
	})
	if err != nil {
		return err
	}
	cmd.Printf("Job %d %q removed\n", j.ID, j.Name)
	return nil
}
