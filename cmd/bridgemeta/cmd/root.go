// Package cmd implements the bridgemeta command line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bridgemeta/bridgemeta/pkg/logging"
)

var (
	configFile string
	verbose    bool
	quiet      bool
	logFormat  string

	// Version is the release version, set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bridgemeta",
	Short: "Framework metadata merge tool",
	Long: `Bridgemeta merges per-architecture framework header scans into one
canonical metadata record set.

Each scan describes one architecture and SDK combination. Values that
differ between scans are collapsed when equal, turned into runtime
selections when the difference follows a known hardware axis, and
reported for a hand-authored exception otherwise.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		configureLogging()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.bridgemeta.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "log format (auto, console, json)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".bridgemeta")
		}
	}

	// .env files load before viper env binding so both see the same
	// environment.
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	_ = viper.ReadInConfig()
}

// configureLogging builds the default logger from flags and environment.
// Flag precedence: --verbose, then --quiet, then LOG_LEVEL, then info.
func configureLogging() {
	level := viper.GetString("log_level")
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "warn"
	case level == "":
		level = "info"
	}

	format := logFormat
	if format == "auto" {
		if v := viper.GetString("log_format"); v != "" {
			format = v
		}
	}

	logging.Configure(&logging.Config{
		Level:  level,
		Format: format,
		Output: "stderr",
	})
}
