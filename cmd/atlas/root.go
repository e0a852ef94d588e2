// Root command for the atlas CLI.
// Implements: prd009-atlas-cli R1, R6; prd010-configuration-directories R1, R2, R8.
package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/masterplan/internal/paths"
	"github.com/mesh-intelligence/masterplan/pkg/masterplan"
)

// Exit codes per prd009-atlas-cli R8.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagVerbose   bool
)

// Values loaded from config.yaml by PersistentPreRunE so all
// subcommands can use them.
var (
	configDataDir string
	configCRS     int
)

// logger is the process-wide zap logger, rebuilt per invocation in
// PersistentPreRunE. Debug level with --verbose, warn otherwise so
// table output stays clean.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "Atlas is a master plan analytics toolkit",
	Long: `Atlas manages an archive of urban blocks, buildings and service
facilities, computes travel time matrices over route networks, assesses
service provision and searches development plans that improve it.`,
	Version:       masterplan.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configCRS = cfg.GetInt(cfgKeyCRS)

		logger, err = newLogger(flagVerbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.atlas)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.atlas-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(serviceTypeCmd)
	rootCmd.AddCommand(cityCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(connectivityCmd)
	rootCmd.AddCommand(accessibilityCmd)
	rootCmd.AddCommand(centralityCmd)
	rootCmd.AddCommand(populationCentralityCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(runsCmd)
}

// newLogger builds the CLI logger: zap production config at warn level,
// lifted to debug with --verbose (prd009-atlas-cli R6).
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// resolveDataDir returns the data directory path following prd010 R2.3
// precedence: --data-dir flag > config.yaml data_dir > ATLAS_DATA_DIR
// env > default $(CWD)/.atlas-db.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following prd010
// R1.3 precedence: --config-dir flag > ATLAS_CONFIG_DIR env > DefaultConfigDir().
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
