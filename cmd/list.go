package cmd

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured jobs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	_, set, _, err := loadConfigForEdit()
	if err != nil {
		return err
	}
	if set.Len() == 0 {
		cmd.Println("No jobs configured. Add one with: velsave add job")
		return nil
	}
	cmd.Printf("%-4s %-20s %-13s %s\n", "ID", "NAME", "TYPE", "SOURCE -> DESTINATION")
	for _, j := range set.All() {
		cmd.Printf("%-4d %-20s %-13s %s -> %s\n", j.ID, j.Name, j.Policy, j.Source, j.Destination)
	}
	return nil
}
