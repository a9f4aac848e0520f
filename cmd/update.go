package cmd

import (
	"github.com/spf13/cobra"

	"VelSave/internal/job"
)

var (
	updName   string
	updSource string
	updDest   string
	updType   string
)

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.AddCommand(updateJobCmd)
	updateJobCmd.Flags().StringVar(&updName, "name", "", "New job name")
	updateJobCmd.Flags().StringVar(&updSource, "source", "", "New source directory")
	updateJobCmd.Flags().StringVar(&updDest, "dest", "", "New destination directory")
	updateJobCmd.Flags().StringVar(&updType, "type", "", "New backup type: complete or differential")
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a resource",
}

var updateJobCmd = &cobra.Command{
	Use:   "job [id]",
	Short: "Change fields of an existing job; the id never changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdateJob,
}

func runUpdateJob(cmd *cobra.Command, args []string) error {
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

	flags := cmd.Flags()
	if flags.Changed("name") {
		j.Name = updName
	}
	if flags.Changed("source") {
		j.Source = updSource
	}
	if flags.Changed("dest") {
		j.Destination = updDest
	}
	if flags.Changed("type") {
		if j.Policy, err = job.ParsePolicy(updType); err != nil {
			return err
		}
	}

	if err := set.Update(j); err != nil {
		return err
	}
	if err := saveJobs(cfg, set, path); err != nil {
		return err
	}
	cmd.Printf("Job %d %q updated\n", j.ID, j.Name)
	return nil
}
