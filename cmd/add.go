package cmd

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"VelSave/internal/job"
)

var (
	jobName   string
	jobSource string
	jobDest   string
	jobType   string
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.AddCommand(addJobCmd)
	addJobFlags(addJobCmd)
}

func addJobFlags(c *cobra.Command) {
	c.Flags().StringVar(&jobName, "name", "", "Job name")
	c.Flags().StringVar(&jobSource, "source", "", "Source directory")
	c.Flags().StringVar(&jobDest, "dest", "", "Destination directory")
	c.Flags().StringVar(&jobType, "type", "", "Backup type: complete or differential")
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a resource",
}

var addJobCmd = &cobra.Command{
	Use:   "job",
	Short: "Add a new job; missing values are prompted for",
	Args:  cobra.NoArgs,
	RunE:  runAddJob,
}

func runAddJob(cmd *cobra.Command, args []string) error {
	cfg, set, path, err := loadConfigForEdit()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	name := jobName
	if name == "" {
		name = prompt(cmd, reader, "Job name", "")
	}
	source := jobSource
	if source == "" {
		source = prompt(cmd, reader, "Source directory", "")
	}
	dest := jobDest
	if dest == "" {
		dest = prompt(cmd, reader, "Destination directory", "")
	}
	typ := jobType
	if typ == "" {
		typ = prompt(cmd, reader, "Backup type (complete/differential)", string(job.PolicyComplete))
	}
	policy, err := job.ParsePolicy(typ)
	if err != nil {
		return err
	}

	added, err := set.Add(job.Job{Name: name, Source: source, Destination: dest, Policy: policy})
	if err != nil {
		return err
	}
	err = withRunLock(cmd.Context(), cfg, "add job", func() error {
		if err := saveJobs(cfg, set, path); err != nil {
			return err
		}
		store, err := openState(cfg)
		if err != nil {
			return err
		}
		return store.MarkInactive(added.ID, added.Name)
	})
	if err != nil {
		return err
	}
	cmd.Printf("Job %d %q added\n", added.ID, added.Name)
	return nil
}

func prompt(cmd *cobra.Command, reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		cmd.Printf("%s [%s]: ", label, defaultVal)
	} else {
		cmd.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	s := strings.TrimSpace(strings.TrimSuffix(line, "\n"))
	if s == "" && defaultVal != "" {
		return defaultVal
	}
	return s
}
