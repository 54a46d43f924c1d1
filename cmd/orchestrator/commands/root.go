package commands

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/orchestrator/version"
)

const serviceName = "orchestrator"

var (
	configFile string
	envFile    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Supervise a set of components in dependency order",
	Long: `orchestrator starts components in dependency order, health checks them while
they run, restarts the ones that fail and stops everything in reverse order
on shutdown. Components are HTTP and TCP probes declared in config.yml.`,
	Version:       version.Short(),
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"Path to config.yml (default: searched in ./cmd/orchestrator, ./config and .)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "",
		"Path to a .env file loaded on top of the process environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
