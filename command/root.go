package command

import (
	"github.com/spf13/cobra"

	"github.com/RxRoster/rxroster/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rxroster",
	Short: "Pharmacy account and member profile service",
	Long: `rxroster keeps the signed-in state of dashboard clients and the member
profiles (pharmacists and technicians) of the pharmacy account each client
works on.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "rxroster.yaml", "config file, skipped when missing")
	rootCmd.AddCommand(serveCmd, snapshotCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ConfigureLogging()
	return cfg, nil
}
