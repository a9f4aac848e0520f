package cmd

import (
	"fmt"
	"strings"

	"github.com/juju/loggo/v2"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var logger = loggo.GetLogger("velsave.cmd")

var rootCmd = &cobra.Command{
	Use:   "velsave [selection]",
	Short: "Run and manage local backup jobs",
	Long: "Velsave copies source directories to destination directories as complete or differential backups,\n" +
		"recording progress in a state file and events in a daily log.\n\n" +
		"A bare selection runs jobs: 'velsave 3', 'velsave \"1;3;5\"' or 'velsave 1-5'.",
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: configureLogging,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("missing job selection (e.g. velsave 1-3, or velsave run --all)")
		}
		return runSelection(cmd, args[0], false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $VELSAVE_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARNING", "Diagnostic log level (TRACE, DEBUG, INFO, WARNING, ERROR)")
}

func configureLogging(cmd *cobra.Command, args []string) error {
	level := strings.ToUpper(strings.TrimSpace(logLevel))
	if _, ok := loggo.ParseLevel(level); !ok {
		return fmt.Errorf("invalid --log-level %q", logLevel)
	}
	return loggo.ConfigureLoggers("<root>=" + level)
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
