package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domainscout/domainscout/internal/config"
	"github.com/domainscout/domainscout/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "domainscout",
	Short: "Domain availability resolution engine",
	Long: `domainscout resolves whether domains are available for registration,
combining a local availability cache, DNS probes, authoritative RDAP
lookups, and WHOIS fallback for registries without RDAP coverage.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/domainscout/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// initConfig initializes logging and loads the configuration.
func initConfig() {
	// Initialize CLI logger early so config loading can use it
	observability.InitCLILogger("domainscout", verbose)

	if _, err := config.Load(cfgFile); err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
	}

	if verbose {
		observability.CLILogger.Debug("Configuration loaded", zap.String("config_file", cfgFile))
	}
}

// loadedConfig returns the active configuration, guarding against
// commands that run before initialization.
func loadedConfig() *config.Config {
	cfg := config.GetConfig()
	if cfg == nil {
		ExitWithCodeStderr(foundry.ExitConfigInvalid, "Configuration not loaded", nil)
	}
	return cfg
}
