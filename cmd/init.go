package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"VelSave/internal/config"
)

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.ResolveConfigPath(configPath)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
	}
	cfg := config.Default(path)
	if err := config.Write(cfg, path); err != nil {
		return err
	}
	cmd.Printf("Config written to %s\n", path)
	cmd.Printf("State file: %s\n", cfg.StateFile)
	cmd.Printf("Event log:  %s (%s)\n", cfg.Log.Dir, cfg.Log.Format)
	return nil
}
