package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vipaii/internal/common"
)

var (
	// Command-line flags
	configFiles []string // Multiple --config flags supported
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "vipaii",
	Short: "Vipaii - Vietnamese study assistant",
	Long: `Vipaii explains homework photos and documents in Vietnamese, answers
follow-up questions in a streaming chat and draws study illustrations.

Running vipaii without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return loadConfig()
	},
	RunE: runServe,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times, later files override earlier ones)")
	rootCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.Flags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(versionCmd, analyzeCmd, imageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence in order:
// defaults -> file1 -> file2 -> ... -> env -> CLI flags, then the logger.
func loadConfig() error {
	if len(configFiles) == 0 {
		if _, err := os.Stat("vipaii.toml"); err == nil {
			configFiles = append(configFiles, "vipaii.toml")
		} else if _, err := os.Stat("deployments/local/vipaii.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/vipaii.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		if len(configFiles) == 0 {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return fmt.Errorf("failed to load configuration files %v: %w", configFiles, err)
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)

	logger = common.InitLogger(config)

	logger.Debug().
		Str("badger_path", config.Storage.Badger.Path).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Bool("keygate_enabled", config.KeyGate.Enabled).
		Msg("Resolved configuration (sanitized)")

	logger.Info().
		Strs("config_files", configFiles).
		Int("port", config.Server.Port).
		Str("host", config.Server.Host).
		Msg("Application configuration loaded")

	return nil
}
